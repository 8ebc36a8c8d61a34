package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/app/repository"
	"github.com/quietpage/quietpage/internal/pkg/storage"
)

// newTestService builds a service over a throwaway local backend with
// in-memory repositories and stubbed cache seams.
func newTestService(t *testing.T) (*Service, *fakeCache, *fakeImageRepo, *fakePageRepo) {
	t.Helper()

	cfg := &storage.Config{
		Backend:    storage.BackendLocal,
		LocalPath:  t.TempDir(),
		SecurePath: t.TempDir(),
		AppURL:     "http://localhost:4000",
	}
	manager, err := storage.NewManager(cfg)
	require.NoError(t, err)

	imageRepo := newFakeImageRepo()
	pageRepo := newFakePageRepo()
	repos := &repository.Repositories{Image: imageRepo, Page: pageRepo}

	fc := stubSeams(t)
	svc := NewService(manager, NewResolver(cfg), repos, nil)
	return svc, fc, imageRepo, pageRepo
}

// stubSeams swaps the cache and counter seams for the duration of one test.
func stubSeams(t *testing.T) *fakeCache {
	t.Helper()

	fc := &fakeCache{entries: make(map[string]string)}
	origHas, origSet, origCount := cacheHas, cacheSet, addDerivedCount
	cacheHas = fc.has
	cacheSet = fc.set
	addDerivedCount = func(uint) error { return nil }
	t.Cleanup(func() {
		cacheHas, cacheSet, addDerivedCount = origHas, origSet, origCount
	})
	return fc
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

type fakeCache struct {
	mux      sync.Mutex
	entries  map[string]string
	hasCalls int
	setCalls int
}

func (f *fakeCache) has(key string) bool {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.hasCalls++
	_, ok := f.entries[key]
	return ok
}

func (f *fakeCache) set(key string, value interface{}, _ time.Duration) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.setCalls++
	f.entries[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeCache) forget(key string) {
	f.mux.Lock()
	defer f.mux.Unlock()
	delete(f.entries, key)
}

type fakeImageRepo struct {
	mux         sync.Mutex
	nextID      uint
	images      map[uint]*models.Image
	deleted     []string
	createCalls int
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{images: make(map[uint]*models.Image)}
}

func (r *fakeImageRepo) Create(image *models.Image) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.createCalls++
	r.nextID++
	image.ID = r.nextID
	if image.UUID == "" {
		image.UUID = uuid.NewString()
	}
	copied := *image
	r.images[image.ID] = &copied
	return nil
}

func (r *fakeImageRepo) GetByID(id uint) (*models.Image, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	image, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("image %d not found", id)
	}
	return image, nil
}

func (r *fakeImageRepo) GetByUUID(id string) (*models.Image, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, image := range r.images {
		if image.UUID == id {
			return image, nil
		}
	}
	return nil, fmt.Errorf("image %s not found", id)
}

func (r *fakeImageRepo) GetByPath(path string) (*models.Image, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, image := range r.images {
		if image.Path == path {
			return image, nil
		}
	}
	return nil, fmt.Errorf("image %s not found", path)
}

func (r *fakeImageRepo) Update(image *models.Image) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	copied := *image
	r.images[image.ID] = &copied
	return nil
}

func (r *fakeImageRepo) UpdateFields(image *models.Image, fields map[string]interface{}) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	stored, ok := r.images[image.ID]
	if !ok {
		return fmt.Errorf("image %d not found", image.ID)
	}
	if v, ok := fields["uploaded_to"].(uint); ok {
		stored.UploadedTo = v
	}
	if v, ok := fields["updated_by"].(uint); ok {
		stored.UpdatedBy = v
	}
	return nil
}

func (r *fakeImageRepo) Delete(image *models.Image) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	delete(r.images, image.ID)
	r.deleted = append(r.deleted, image.Path)
	return nil
}

func (r *fakeImageRepo) List(offset, limit int) ([]models.Image, error) {
	return nil, nil
}

func (r *fakeImageRepo) Count() (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	return int64(len(r.images)), nil
}

func (r *fakeImageRepo) CountByType() (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (r *fakeImageRepo) SumFileSize() (int64, error) {
	return 0, nil
}

func (r *fakeImageRepo) QueryByTypes(types []string, batchSize int, fn func(batch []models.Image) error) error {
	r.mux.Lock()
	var batch []models.Image
	for _, image := range r.images {
		for _, t := range types {
			if image.Type == t {
				batch = append(batch, *image)
				break
			}
		}
	}
	r.mux.Unlock()

	for start := 0; start < len(batch); start += batchSize {
		end := start + batchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := fn(batch[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeImageRepo) deletedPaths() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]string(nil), r.deleted...)
}

type fakePageRepo struct {
	mux                sync.Mutex
	content            []string
	revisions          []string
	containingCalls    int
	revContainingCalls int
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{}
}

func (r *fakePageRepo) Create(page *models.Page) error {
	return nil
}

func (r *fakePageRepo) GetByID(id uint) (*models.Page, error) {
	return nil, fmt.Errorf("page %d not found", id)
}

func (r *fakePageRepo) GetBySlug(slug string) (*models.Page, error) {
	return nil, fmt.Errorf("page %s not found", slug)
}

func (r *fakePageRepo) Update(page *models.Page) error {
	return nil
}

func (r *fakePageRepo) Delete(id uint) error {
	return nil
}

func (r *fakePageRepo) Count() (int64, error) {
	return 0, nil
}

func (r *fakePageRepo) CountContaining(substring string) (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.containingCalls++
	var n int64
	for _, c := range r.content {
		if strings.Contains(c, substring) {
			n++
		}
	}
	return n, nil
}

func (r *fakePageRepo) CountRevisionsContaining(substring string) (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.revContainingCalls++
	var n int64
	for _, c := range r.revisions {
		if strings.Contains(c, substring) {
			n++
		}
	}
	return n, nil
}

func (r *fakePageRepo) addContent(html string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.content = append(r.content, html)
}

func (r *fakePageRepo) addRevision(html string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.revisions = append(r.revisions, html)
}
