package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/jobqueue"
	"github.com/quietpage/quietpage/internal/pkg/statistics"
)

// AdminController serves the maintenance surface: orphan sweeps and
// aggregate statistics.
type AdminController struct {
	svc       *images.Service
	collector *statistics.Collector
}

func NewAdminController(svc *images.Service, collector *statistics.Collector) *AdminController {
	return &AdminController{svc: svc, collector: collector}
}

type sweepRequest struct {
	Types          []string `json:"types"`
	CheckRevisions bool     `json:"check_revisions"`
	DryRun         bool     `json:"dry_run"`
}

// HandleSweep triggers an orphaned-image sweep. Dry runs answer with the
// orphaned path list synchronously; real runs go through the job queue when
// it is up.
func (ac *AdminController) HandleSweep(c *fiber.Ctx) error {
	var req sweepRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}
	if len(req.Types) == 0 {
		req.Types = images.SweepableTypes
	}

	if req.DryRun {
		orphaned, err := ac.svc.Sweep(images.SweepOptions{
			Types:          req.Types,
			CheckRevisions: req.CheckRevisions,
			DryRun:         true,
		})
		if err != nil {
			return respondServiceError(c, err)
		}
		if orphaned == nil {
			orphaned = []string{}
		}
		return c.JSON(fiber.Map{"dry_run": true, "orphaned": orphaned, "count": len(orphaned)})
	}

	if manager := jobqueue.GetManager(); manager != nil && manager.IsRunning() {
		job, err := manager.GetQueue().EnqueueOrphanSweep(req.Types, req.CheckRevisions, false)
		if err == nil {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued", "job_id": job.ID})
		}
		fiberlog.Warnf("[API] enqueue sweep failed, running synchronously: %v", err)
	}

	orphaned, err := ac.svc.Sweep(images.SweepOptions{
		Types:          req.Types,
		CheckRevisions: req.CheckRevisions,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	statistics.Invalidate()
	return c.JSON(fiber.Map{"dry_run": false, "orphaned": orphaned, "count": len(orphaned)})
}

// HandleStats returns the aggregate overview plus current queue depths.
func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	overview, err := ac.collector.Overview()
	if err != nil {
		fiberlog.Errorf("[API] stats collection failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "could not collect statistics"})
	}

	resp := fiber.Map{
		"total_images":   overview.TotalImages,
		"images_by_type": overview.ImagesByType,
		"total_bytes":    overview.TotalBytes,
		"total_pages":    overview.TotalPages,
	}

	if manager := jobqueue.GetManager(); manager != nil {
		ctx := context.Background()
		queue := manager.GetQueue()
		if pending, err := queue.GetQueueSize(ctx); err == nil {
			resp["jobs_pending"] = pending
		}
		if processing, err := queue.GetProcessingSize(ctx); err == nil {
			resp["jobs_processing"] = processing
		}
	}

	return c.JSON(resp)
}
