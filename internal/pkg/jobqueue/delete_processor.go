package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/app/models"
)

// EnqueueImageDelete enqueues an asynchronous delete job for an image
func (q *Queue) EnqueueImageDelete(imageID uint, imageUUID string, initiatedBy *uint) (*Job, error) {
	payload := ImageDeleteJobPayload{
		ImageID:     imageID,
		ImageUUID:   imageUUID,
		InitiatedBy: initiatedBy,
	}
	return q.EnqueueJob(JobTypeImageDelete, payload.ToMap())
}

// processImageDeleteJob destroys one image and its derived files. A record
// that is already gone counts as done; the job is safe to replay.
func (q *Queue) processImageDeleteJob(job *Job) error {
	payload, perr := ImageDeleteJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse image delete payload: %w", perr)
	}

	// Try to load the image by ID; fall back to UUID
	var image *models.Image
	if payload.ImageID > 0 {
		loaded, err := q.svc.GetByID(payload.ImageID)
		if err != nil {
			log.Warnf("[ImageDeleteJob] Image %d not found by ID, trying UUID %s", payload.ImageID, payload.ImageUUID)
		} else {
			image = loaded
		}
	}
	if image == nil && payload.ImageUUID != "" {
		loaded, err := q.svc.GetByUUID(payload.ImageUUID)
		if err != nil {
			log.Infof("[ImageDeleteJob] Image %s not found in DB (already deleted)", payload.ImageUUID)
			return nil
		}
		image = loaded
	}
	if image == nil {
		return nil // nothing to do
	}

	if err := q.svc.Destroy(image); err != nil {
		return fmt.Errorf("failed to destroy image %s: %w", image.UUID, err)
	}

	log.Infof("[ImageDeleteJob] Completed delete for image %s (ID: %d)", image.UUID, image.ID)
	return nil
}
