package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeBookingNotification JobType = "booking_notification"
	JobTypePublishPropagation  JobType = "publish_propagation"
	JobTypeMediaThumbnail      JobType = "media_thumbnail"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// BookingNotificationJobPayload contains the payload for booking emails
type BookingNotificationJobPayload struct {
	BookingID string `json:"booking_id"`
	// Kind is the lifecycle event being announced: confirmed, cancelled or completed.
	Kind string `json:"kind"`
}

// ToMap converts the payload to a map for storage
func (p BookingNotificationJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"booking_id": p.BookingID,
		"kind":       p.Kind,
	}
}

// FromMap creates a payload from a map
func BookingNotificationJobPayloadFromMap(data map[string]interface{}) (*BookingNotificationJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload BookingNotificationJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// PublishPropagationJobPayload contains the payload for post-publish fanout
type PublishPropagationJobPayload struct {
	ServiceID string `json:"service_id"`
	VersionID string `json:"version_id"`
	Slug      string `json:"slug"`
}

// ToMap converts the payload to a map for storage
func (p PublishPropagationJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"service_id": p.ServiceID,
		"version_id": p.VersionID,
		"slug":       p.Slug,
	}
}

// FromMap creates a payload from a map
func PublishPropagationJobPayloadFromMap(data map[string]interface{}) (*PublishPropagationJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload PublishPropagationJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// MediaThumbnailJobPayload contains the payload for thumbnail generation
type MediaThumbnailJobPayload struct {
	ServiceID string `json:"service_id"`
	ObjectKey string `json:"object_key"`
	MaxWidth  int    `json:"max_width"`
}

// ToMap converts the payload to a map for storage
func (p MediaThumbnailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"service_id": p.ServiceID,
		"object_key": p.ObjectKey,
		"max_width":  p.MaxWidth,
	}
}

// FromMap creates a payload from a map
func MediaThumbnailJobPayloadFromMap(data map[string]interface{}) (*MediaThumbnailJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload MediaThumbnailJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
