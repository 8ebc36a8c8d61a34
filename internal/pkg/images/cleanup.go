package images

import (
	"path"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/internal/pkg/storage"
)

// SweepableTypes lists the categories eligible for orphan removal. Avatar,
// cover and system images are never swept, their loss is not recoverable
// from page content.
var SweepableTypes = []string{models.ImageTypeGallery, models.ImageTypeDrawing}

// Candidates are loaded in batches of this size.
const sweepBatchSize = 1000

// SweepOptions steers one orphan-sweep run.
type SweepOptions struct {
	// CheckRevisions extends the reference search into historical page
	// revisions.
	CheckRevisions bool
	// DryRun reports orphaned paths without deleting anything.
	DryRun bool
	// Types restricts the run; entries outside SweepableTypes are ignored.
	Types []string
}

// Destroy removes one image: every variant file sharing the source's
// basename, directories the deletion emptied, and finally the record.
// Record deletion is the last step, a failed storage deletion leaves the
// record in place rather than pointing a record at nothing.
func (s *Service) Destroy(image *models.Image) error {
	gw := s.storage.ForType(image.Type)
	imageDir := path.Dir(image.Path)
	fileName := path.Base(image.Path)

	all, err := gw.AllFiles(imageDir)
	if err != nil {
		return err
	}

	matches := make([]string, 0, len(all))
	for _, f := range all {
		if path.Base(f) == fileName {
			matches = append(matches, f)
		}
	}
	if len(matches) > 0 {
		if err := gw.Delete(matches...); err != nil {
			return err
		}
	}

	if err := s.removeEmptyDirs(gw, imageDir); err != nil {
		return err
	}

	if err := s.repos.Image.Delete(image); err != nil {
		return err
	}

	log.Infof("[Images] destroyed %s", image.Path)
	return nil
}

// removeEmptyDirs drops the source directory and each of its direct
// subdirectories when the file deletion left them empty. Each directory is
// checked independently, one surviving variant directory does not keep its
// emptied siblings alive.
func (s *Service) removeEmptyDirs(gw storage.Gateway, imageDir string) error {
	subdirs, err := gw.Directories(imageDir)
	if err != nil {
		return err
	}

	involved := append([]string{imageDir}, subdirs...)
	for _, dir := range involved {
		empty, err := isDirEmpty(gw, dir)
		if err != nil {
			return err
		}
		if empty {
			if err := gw.DeleteDirectory(dir); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDirEmpty(gw storage.Gateway, dir string) (bool, error) {
	files, err := gw.Files(dir)
	if err != nil {
		return false, err
	}
	if len(files) > 0 {
		return false, nil
	}
	subdirs, err := gw.Directories(dir)
	if err != nil {
		return false, err
	}
	return len(subdirs) == 0, nil
}

// Sweep finds images of the requested types that no page content references
// and removes them through Destroy. The returned paths cover every detected
// orphan whether or not DryRun suppressed the deletion.
//
// A reference is the image basename appearing as a substring in a page's
// raw content. The match is deliberately coarse: false positives only keep
// an image alive, and renamed duplicates counting as orphans is accepted.
func (s *Service) Sweep(opts SweepOptions) ([]string, error) {
	types := filterSweepable(opts.Types)
	if len(types) == 0 {
		return nil, nil
	}

	var orphaned []string
	err := s.repos.Image.QueryByTypes(types, sweepBatchSize, func(batch []models.Image) error {
		for i := range batch {
			image := &batch[i]

			referenced, err := s.isReferenced(image, opts.CheckRevisions)
			if err != nil {
				return err
			}
			if referenced {
				continue
			}

			orphaned = append(orphaned, image.Path)
			if opts.DryRun {
				continue
			}
			if err := s.Destroy(image); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return orphaned, err
	}

	log.Infof("[Images] sweep found %d orphaned image(s) (dry run: %v)", len(orphaned), opts.DryRun)
	return orphaned, nil
}

func (s *Service) isReferenced(image *models.Image, checkRevisions bool) (bool, error) {
	name := image.Filename()

	count, err := s.repos.Page.CountContaining(name)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	if checkRevisions {
		count, err = s.repos.Page.CountRevisionsContaining(name)
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}

	return false, nil
}

func filterSweepable(requested []string) []string {
	out := make([]string, 0, len(requested))
	for _, t := range requested {
		for _, allowed := range SweepableTypes {
			if t == allowed {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
