package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeImageDelete JobType = "image_delete"
	JobTypeOrphanSweep JobType = "orphan_sweep"
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

// ImageDeleteJobPayload contains the payload for asynchronous image deletion
type ImageDeleteJobPayload struct {
	ImageID     uint   `json:"image_id"`
	ImageUUID   string `json:"image_uuid"`
	InitiatedBy *uint  `json:"initiated_by,omitempty"`
}

// ToMap converts the payload to a map for storage
func (p ImageDeleteJobPayload) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"image_id":   p.ImageID,
		"image_uuid": p.ImageUUID,
	}
	if p.InitiatedBy != nil {
		m["initiated_by"] = *p.InitiatedBy
	}
	return m
}

// ImageDeleteJobPayloadFromMap creates a payload from a map
func ImageDeleteJobPayloadFromMap(data map[string]interface{}) (*ImageDeleteJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ImageDeleteJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// OrphanSweepJobPayload contains the payload for an orphaned-image sweep run
type OrphanSweepJobPayload struct {
	Types          []string `json:"types"`
	CheckRevisions bool     `json:"check_revisions"`
	DryRun         bool     `json:"dry_run"`
}

// ToMap converts the payload to a map for storage
func (p OrphanSweepJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"types":           p.Types,
		"check_revisions": p.CheckRevisions,
		"dry_run":         p.DryRun,
	}
}

// OrphanSweepJobPayloadFromMap creates a payload from a map
func OrphanSweepJobPayloadFromMap(data map[string]interface{}) (*OrphanSweepJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload OrphanSweepJobPayload
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
