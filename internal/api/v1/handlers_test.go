package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorstep-market/doorstep/app/models"
	"github.com/doorstep-market/doorstep/internal/pkg/drafts"
)

// errorApp mounts a route that feeds a fixed error through the draft error
// mapper so the HTTP contract can be asserted without a database.
func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		return draftErrorResponse(c, err)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestDraftErrorResponse_VersionConflict(t *testing.T) {
	app := errorApp(&drafts.VersionConflictError{Expected: 3, Actual: 5})

	status, body := doRequest(t, app, fiber.MethodGet, "/t")

	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "version_conflict", body["error"])
	assert.Equal(t, float64(3), body["expected"])
	assert.Equal(t, float64(5), body["actual"])
}

func TestDraftErrorResponse_Validation(t *testing.T) {
	app := errorApp(&drafts.ValidationError{Fields: []drafts.FieldError{
		{Path: "card.title", Message: "must not be empty"},
		{Path: "pricing.tiers", Message: "at least one tier required"},
	}})

	status, body := doRequest(t, app, fiber.MethodGet, "/t")

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation_failed", body["error"])

	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]any)
	assert.Equal(t, "card.title", first["path"])
	assert.Equal(t, "must not be empty", first["message"])
}

func TestDraftErrorResponse_SentinelMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", drafts.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{"auth required", drafts.ErrAuthRequired, fiber.StatusUnauthorized, "unauthorized"},
		{"forbidden", drafts.ErrForbidden, fiber.StatusForbidden, "forbidden"},
		{"not editable", drafts.ErrNotEditable, fiber.StatusConflict, "not_editable"},
		{"unknown", errors.New("connection reset"), fiber.StatusBadGateway, "upstream_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doRequest(t, errorApp(tc.err), fiber.MethodGet, "/t")
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantError, body["error"])
		})
	}
}

func TestDraftWriteParams(t *testing.T) {
	app := fiber.New()
	app.Patch("/svc/:serviceId", func(c *fiber.Ctx) error {
		id, rowVersion, err := draftWriteParams(c, c.Params("serviceId"))
		if err != nil {
			return draftParamsResponse(c, err)
		}
		return c.JSON(fiber.Map{"id": id.String(), "row_version": rowVersion})
	})

	t.Run("rejects malformed uuid", func(t *testing.T) {
		status, body := doRequest(t, app, fiber.MethodPatch, "/svc/not-a-uuid?row_version=1")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "bad_request", body["error"])
	})

	t.Run("requires row_version", func(t *testing.T) {
		status, body := doRequest(t, app, fiber.MethodPatch, "/svc/7c9e6679-7425-40de-944b-e07fc1f90ae7")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "bad_request", body["error"])
	})

	t.Run("rejects zero row_version", func(t *testing.T) {
		status, _ := doRequest(t, app, fiber.MethodPatch, "/svc/7c9e6679-7425-40de-944b-e07fc1f90ae7?row_version=0")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("accepts valid params", func(t *testing.T) {
		status, body := doRequest(t, app, fiber.MethodPatch, "/svc/7c9e6679-7425-40de-944b-e07fc1f90ae7?row_version=4")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", body["id"])
		assert.Equal(t, float64(4), body["row_version"])
	})
}

// recordingDraftRepo counts Publish invocations so tests can assert that a
// rejected request never reaches the store.
type recordingDraftRepo struct {
	publishCalls int
}

func (r *recordingDraftRepo) GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	return nil, drafts.ErrNotFound
}

func (r *recordingDraftRepo) GetDraft(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error) {
	return nil, drafts.ErrNotFound
}

func (r *recordingDraftRepo) EnsureDraft(ctx context.Context, service *models.Service) (*models.ServiceVersion, error) {
	return nil, drafts.ErrNotFound
}

func (r *recordingDraftRepo) GetVersion(ctx context.Context, id uuid.UUID) (*models.ServiceVersion, error) {
	return nil, drafts.ErrNotFound
}

func (r *recordingDraftRepo) GetPublished(ctx context.Context, serviceID uuid.UUID) (*models.ServiceVersion, error) {
	return nil, drafts.ErrNotFound
}

func (r *recordingDraftRepo) History(ctx context.Context, serviceID uuid.UUID) ([]models.ServiceVersion, error) {
	return nil, nil
}

func (r *recordingDraftRepo) UpdateContent(ctx context.Context, id uuid.UUID, expectedRowVersion int, column string, value interface{}) (*models.ServiceVersion, error) {
	return nil, drafts.ErrNotFound
}

func (r *recordingDraftRepo) Publish(ctx context.Context, draftID uuid.UUID, expectedRowVersion int) (*models.ServiceVersion, error) {
	r.publishCalls++
	return &models.ServiceVersion{ID: draftID, State: models.VersionStatePublished, RowVersion: expectedRowVersion}, nil
}

// A publish request missing its row_version must answer 400 and must not
// execute the state transition behind the rejection.
func TestPublishServiceVersion_RejectedParamsStopTheHandler(t *testing.T) {
	repo := &recordingDraftRepo{}
	server := &APIServer{drafts: drafts.NewService(repo)}
	wrapper := &ServerInterfaceWrapper{Handler: server}

	app := fiber.New()
	app.Post("/publish/:draftId", wrapper.PublishServiceVersion)

	draftID := uuid.New().String()

	status, body := doRequest(t, app, fiber.MethodPost, "/publish/"+draftID)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body["error"])
	assert.Zero(t, repo.publishCalls, "publish must not run when row_version is missing")

	status, _ = doRequest(t, app, fiber.MethodPost, "/publish/not-a-uuid?row_version=1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, repo.publishCalls, "publish must not run for a malformed id")

	status, _ = doRequest(t, app, fiber.MethodPost, "/publish/"+draftID+"?row_version=3")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, repo.publishCalls)
}

func TestGetPing(t *testing.T) {
	app := fiber.New()
	server := &APIServer{}
	app.Get("/ping", server.GetPing)

	status, body := doRequest(t, app, fiber.MethodGet, "/ping")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pong", body["ping"])
}
