package jobqueue

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"

	"github.com/doorstep-market/doorstep/internal/pkg/mediastore"
)

// DefaultThumbnailWidth is used when the enqueuer does not specify one.
const DefaultThumbnailWidth = 640

const thumbnailJPEGQuality = 82

// EnqueueMediaThumbnailJob enqueues thumbnail generation for an uploaded asset
func (q *Queue) EnqueueMediaThumbnailJob(serviceID, objectKey string, maxWidth int) (*Job, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailWidth
	}
	payload := MediaThumbnailJobPayload{
		ServiceID: serviceID,
		ObjectKey: objectKey,
		MaxWidth:  maxWidth,
	}
	return q.EnqueueJob(JobTypeMediaThumbnail, payload.ToMap())
}

// processMediaThumbnailJob downloads an uploaded gallery image, renders a
// width-bounded JPEG thumbnail and stores it next to the original under a
// "_thumb" suffix. Cards load the thumbnail, funnels load the original.
func (q *Queue) processMediaThumbnailJob(ctx context.Context, job *Job) error {
	payload, perr := MediaThumbnailJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse media thumbnail payload: %w", perr)
	}

	cfg, err := mediastore.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load media store config: %w", err)
	}
	if !cfg.IsEnabled() {
		log.Infof("[MediaThumbnail] Media uploads disabled, skipping %s", payload.ObjectKey)
		return nil
	}

	client, err := mediastore.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create media store client: %w", err)
	}

	data, err := client.DownloadBytes(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", payload.ObjectKey, err)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", payload.ObjectKey, err)
	}

	width := payload.MaxWidth
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if src.Bounds().Dx() > width {
		src = imaging.Resize(src, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumbKey := ThumbnailObjectKey(payload.ObjectKey)
	if err := client.UploadBytes(ctx, thumbKey, "image/jpeg", buf.Bytes()); err != nil {
		return fmt.Errorf("failed to upload thumbnail %s: %w", thumbKey, err)
	}

	log.Infof("[MediaThumbnail] Generated %s (%d bytes) for service %s", thumbKey, buf.Len(), payload.ServiceID)
	return nil
}

// ThumbnailObjectKey derives the thumbnail key from an original object key.
// Thumbnails are always JPEG regardless of the source format.
func ThumbnailObjectKey(objectKey string) string {
	if idx := strings.LastIndex(objectKey, "."); idx > strings.LastIndex(objectKey, "/") {
		return objectKey[:idx] + "_thumb.jpg"
	}
	return objectKey + "_thumb.jpg"
}
