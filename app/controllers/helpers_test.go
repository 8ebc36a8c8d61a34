package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/app/repository"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/storage"
)

// newTestService builds an image service over a throwaway local backend so
// handler tests run without a database or Redis.
func newTestService(t *testing.T) (*images.Service, *stubImageRepo, *stubPageRepo) {
	t.Helper()

	cfg := &storage.Config{
		Backend:    storage.BackendLocal,
		LocalPath:  t.TempDir(),
		SecurePath: t.TempDir(),
		AppURL:     "http://localhost:4000",
	}
	manager, err := storage.NewManager(cfg)
	require.NoError(t, err)

	imageRepo := newStubImageRepo()
	pageRepo := &stubPageRepo{}
	repos := &repository.Repositories{Image: imageRepo, Page: pageRepo}

	return images.NewService(manager, images.NewResolver(cfg), repos, nil), imageRepo, pageRepo
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// newImageUploadRequest builds a multipart POST with an optional file part
// and extra form fields.
func newImageUploadRequest(t *testing.T, target string, fileName string, fileData []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newJSONRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func decodeJSONBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

type stubImageRepo struct {
	mux    sync.Mutex
	nextID uint
	images map[uint]*models.Image
}

func newStubImageRepo() *stubImageRepo {
	return &stubImageRepo{images: make(map[uint]*models.Image)}
}

func (r *stubImageRepo) Create(image *models.Image) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.nextID++
	image.ID = r.nextID
	if image.UUID == "" {
		image.UUID = uuid.NewString()
	}
	copied := *image
	r.images[image.ID] = &copied
	return nil
}

func (r *stubImageRepo) GetByID(id uint) (*models.Image, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	img, ok := r.images[id]
	if !ok {
		return nil, fmt.Errorf("image %d not found", id)
	}
	return img, nil
}

func (r *stubImageRepo) GetByUUID(id string) (*models.Image, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, img := range r.images {
		if img.UUID == id {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image %s not found", id)
}

func (r *stubImageRepo) GetByPath(path string) (*models.Image, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, img := range r.images {
		if img.Path == path {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image %s not found", path)
}

func (r *stubImageRepo) Update(image *models.Image) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	copied := *image
	r.images[image.ID] = &copied
	return nil
}

func (r *stubImageRepo) UpdateFields(image *models.Image, fields map[string]interface{}) error {
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

func (r *stubImageRepo) Delete(image *models.Image) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	delete(r.images, image.ID)
	return nil
}

func (r *stubImageRepo) List(offset, limit int) ([]models.Image, error) {
	return nil, nil
}

func (r *stubImageRepo) Count() (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	return int64(len(r.images)), nil
}

func (r *stubImageRepo) CountByType() (map[string]int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	out := make(map[string]int64)
	for _, img := range r.images {
		out[img.Type]++
	}
	return out, nil
}

func (r *stubImageRepo) SumFileSize() (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	var sum int64
	for _, img := range r.images {
		sum += img.FileSize
	}
	return sum, nil
}

func (r *stubImageRepo) QueryByTypes(types []string, batchSize int, fn func(batch []models.Image) error) error {
	r.mux.Lock()
	var batch []models.Image
	for _, img := range r.images {
		for _, typ := range types {
			if img.Type == typ {
				batch = append(batch, *img)
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

func (r *stubImageRepo) size() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.images)
}

type stubPageRepo struct {
	mux       sync.Mutex
	content   []string
	revisions []string
	pageCount int64
}

func (r *stubPageRepo) Create(page *models.Page) error {
	return nil
}

func (r *stubPageRepo) GetByID(id uint) (*models.Page, error) {
	return nil, fmt.Errorf("page %d not found", id)
}

func (r *stubPageRepo) GetBySlug(slug string) (*models.Page, error) {
	return nil, fmt.Errorf("page %s not found", slug)
}

func (r *stubPageRepo) Update(page *models.Page) error {
	return nil
}

func (r *stubPageRepo) Delete(id uint) error {
	return nil
}

func (r *stubPageRepo) Count() (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.pageCount, nil
}

func (r *stubPageRepo) CountContaining(substring string) (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	var n int64
	for _, c := range r.content {
		if strings.Contains(c, substring) {
			n++
		}
	}
	return n, nil
}

func (r *stubPageRepo) CountRevisionsContaining(substring string) (int64, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	var n int64
	for _, c := range r.revisions {
		if strings.Contains(c, substring) {
			n++
		}
	}
	return n, nil
}

func (r *stubPageRepo) addContent(html string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.content = append(r.content, html)
}

func (r *stubPageRepo) addRevision(html string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.revisions = append(r.revisions, html)
}
