package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingNotificationJobPayloadRoundTrip(t *testing.T) {
	payload := BookingNotificationJobPayload{
		BookingID: "6f1f9a3e-46a1-4d6a-9d27-9be04b0b2f01",
		Kind:      "confirmed",
	}

	parsed, err := BookingNotificationJobPayloadFromMap(payload.ToMap())
	assert.NoError(t, err)
	assert.Equal(t, payload, *parsed)
}

func TestPublishPropagationJobPayloadRoundTrip(t *testing.T) {
	payload := PublishPropagationJobPayload{
		ServiceID: "0b9e3a77-5d27-4a53-8b8e-6a1d7a9a1c2e",
		VersionID: "7d4a1b60-93c4-4d4e-b9f1-52c1f3a2d901",
		Slug:      "pro-photography-austin",
	}

	parsed, err := PublishPropagationJobPayloadFromMap(payload.ToMap())
	assert.NoError(t, err)
	assert.Equal(t, payload, *parsed)
}

func TestMediaThumbnailJobPayloadRoundTrip(t *testing.T) {
	payload := MediaThumbnailJobPayload{
		ServiceID: "0b9e3a77-5d27-4a53-8b8e-6a1d7a9a1c2e",
		ObjectKey: "services/0b9e3a77/cover.png",
		MaxWidth:  640,
	}

	parsed, err := MediaThumbnailJobPayloadFromMap(payload.ToMap())
	assert.NoError(t, err)
	assert.Equal(t, payload, *parsed)
}

func TestThumbnailObjectKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"services/abc/def.png", "services/abc/def_thumb.jpg"},
		{"services/abc/def.jpeg", "services/abc/def_thumb.jpg"},
		{"services/abc.v2/def", "services/abc.v2/def_thumb.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThumbnailObjectKey(tt.in))
	}
}

func TestJobLifecycleMarks(t *testing.T) {
	job := &Job{
		ID:         "job-1",
		Type:       JobTypeBookingNotification,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)
}

func TestJobRetryExhaustion(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 2}

	job.MarkAsFailed("first")
	assert.True(t, job.IsRetryable())
	job.MarkAsFailed("second")
	assert.False(t, job.IsRetryable())
}

func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(tt.workers)

			assert.NotNil(t, queue)
			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.NotNil(t, queue.workerPool)
			assert.Equal(t, tt.expectedWorkers, cap(queue.workerPool))
			assert.NotNil(t, queue.stopCh)
			assert.False(t, queue.running)
		})
	}
}

func TestQueueConstants(t *testing.T) {
	assert.Equal(t, "job:", JobKeyPrefix)
	assert.Equal(t, "job_queue", JobQueueKey)
	assert.Equal(t, "job_processing", JobProcessingKey)
	assert.Equal(t, "job_stats", JobStatsKey)

	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}
