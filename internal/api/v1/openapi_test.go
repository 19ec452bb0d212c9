package apiv1

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPIDocPath = "../../../public/docs/v1/openapi.yml"

// TestOpenAPIDocument ensures the served document stays valid OpenAPI 3 and
// keeps describing the draft authoring contract.
func TestOpenAPIDocument(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIDocPath)
	require.NoError(t, err, "openapi document must parse")

	require.NoError(t, doc.Validate(context.Background()), "openapi document must validate")

	assert.Equal(t, "Doorstep Market API", doc.Info.Title)

	for _, path := range []string{
		"/ping",
		"/services/{slug}/quote",
		"/partners/eligible",
		"/bookings",
		"/billing/checkout",
		"/admin/services/{serviceId}/draft",
		"/admin/services/{serviceId}/draft/card",
		"/admin/service-versions/{draftId}/publish",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s must be documented", path)
	}

	// Draft writes must document the optimistic concurrency conflict.
	patchCard := doc.Paths.Find("/admin/services/{serviceId}/draft/card")
	require.NotNil(t, patchCard)
	require.NotNil(t, patchCard.Patch)
	assert.NotNil(t, patchCard.Patch.Responses.Status(409), "draft patch must document 409")
}
