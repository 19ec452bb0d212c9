package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/doorstep-market/doorstep/internal/pkg/cache"
)

// EnqueuePublishPropagationJob enqueues post-publish fanout for a service
func (q *Queue) EnqueuePublishPropagationJob(serviceID, versionID, slug string) (*Job, error) {
	payload := PublishPropagationJobPayload{
		ServiceID: serviceID,
		VersionID: versionID,
		Slug:      slug,
	}
	return q.EnqueueJob(JobTypePublishPropagation, payload.ToMap())
}

// processPublishPropagationJob invalidates cached storefront payloads after a
// publish so readers see the new version on their next request. The publish
// itself already moved the pointer in the database; this only clears stale
// cache entries.
func (q *Queue) processPublishPropagationJob(ctx context.Context, job *Job) error {
	_ = ctx
	payload, perr := PublishPropagationJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse publish propagation payload: %w", perr)
	}

	if err := cache.Delete(cache.StorefrontServicesKey); err != nil {
		return fmt.Errorf("failed to invalidate service list cache: %w", err)
	}
	if payload.Slug != "" {
		if err := cache.Delete(cache.ServiceKey(payload.Slug)); err != nil {
			return fmt.Errorf("failed to invalidate service cache for %s: %w", payload.Slug, err)
		}
	}

	log.Infof("[PublishPropagation] Invalidated storefront cache for service %s (version %s)",
		payload.ServiceID, payload.VersionID)
	return nil
}
