package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/images"
)

// EnqueueOrphanSweep enqueues a sweep over images no page references anymore
func (q *Queue) EnqueueOrphanSweep(types []string, checkRevisions bool, dryRun bool) (*Job, error) {
	payload := OrphanSweepJobPayload{
		Types:          types,
		CheckRevisions: checkRevisions,
		DryRun:         dryRun,
	}
	return q.EnqueueJob(JobTypeOrphanSweep, payload.ToMap())
}

// processOrphanSweepJob runs one full sweep. An empty type list means every
// sweepable type.
func (q *Queue) processOrphanSweepJob(job *Job) error {
	payload, perr := OrphanSweepJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse orphan sweep payload: %w", perr)
	}

	types := payload.Types
	if len(types) == 0 {
		types = images.SweepableTypes
	}

	orphaned, err := q.svc.Sweep(images.SweepOptions{
		Types:          types,
		CheckRevisions: payload.CheckRevisions,
		DryRun:         payload.DryRun,
	})
	if err != nil {
		return fmt.Errorf("orphan sweep failed: %w", err)
	}

	log.Infof("[OrphanSweepJob] Sweep finished, %d orphaned image(s) (dry run: %v)", len(orphaned), payload.DryRun)
	return nil
}
