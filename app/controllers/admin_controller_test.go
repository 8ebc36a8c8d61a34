package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/internal/pkg/images"
	"github.com/quietpage/quietpage/internal/pkg/statistics"
)

func newAdminTestApp(t *testing.T) (*fiber.App, *images.Service, *stubImageRepo, *stubPageRepo) {
	t.Helper()

	svc, imageRepo, pageRepo := newTestService(t)
	ctrl := NewAdminController(svc, statistics.NewCollector(imageRepo, pageRepo))

	app := fiber.New()
	app.Post("/api/v1/admin/images/sweep", ctrl.HandleSweep)
	app.Get("/api/v1/admin/stats", ctrl.HandleStats)
	return app, svc, imageRepo, pageRepo
}

func TestHandleSweepDryRunListsOrphans(t *testing.T) {
	app, svc, imageRepo, pageRepo := newAdminTestApp(t)

	_, err := svc.SaveNew("kept.png", encodeTestPNG(t, 10, 10), models.ImageTypeGallery, 0, 0)
	require.NoError(t, err)
	orphan, err := svc.SaveNew("orphan.png", encodeTestPNG(t, 10, 10), models.ImageTypeGallery, 0, 0)
	require.NoError(t, err)

	pageRepo.addContent(`<p>still in use: <img src="/uploads/kept.png"></p>`)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/images/sweep", map[string]interface{}{
		"dry_run": true,
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, true, body["dry_run"])
	assert.EqualValues(t, 1, body["count"])
	require.Len(t, body["orphaned"], 1)
	assert.Contains(t, body["orphaned"].([]interface{})[0], orphan.Filename())

	// Dry run deletes nothing.
	assert.Equal(t, 2, imageRepo.size())
}

func TestHandleSweepDeletesOrphans(t *testing.T) {
	app, svc, imageRepo, pageRepo := newAdminTestApp(t)

	kept, err := svc.SaveNew("kept.png", encodeTestPNG(t, 10, 10), models.ImageTypeGallery, 0, 0)
	require.NoError(t, err)
	_, err = svc.SaveNew("orphan.png", encodeTestPNG(t, 10, 10), models.ImageTypeGallery, 0, 0)
	require.NoError(t, err)

	pageRepo.addContent(`<img src="/uploads/kept.png">`)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/images/sweep", map[string]interface{}{})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, false, body["dry_run"])
	assert.EqualValues(t, 1, body["count"])

	require.Equal(t, 1, imageRepo.size())
	remaining, err := imageRepo.GetByUUID(kept.UUID)
	require.NoError(t, err)
	assert.Equal(t, "kept.png", remaining.Name)
}

func TestHandleSweepRevisionReferenceNeedsFlag(t *testing.T) {
	app, svc, imageRepo, pageRepo := newAdminTestApp(t)

	_, err := svc.SaveNew("historic.png", encodeTestPNG(t, 10, 10), models.ImageTypeGallery, 0, 0)
	require.NoError(t, err)
	pageRepo.addRevision(`<img src="/uploads/historic.png">`)

	// Without the flag only live content counts, the image looks orphaned.
	req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/images/sweep", map[string]interface{}{
		"dry_run": true,
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body := decodeJSONBody(t, resp)
	assert.EqualValues(t, 1, body["count"])

	req = newJSONRequest(t, http.MethodPost, "/api/v1/admin/images/sweep", map[string]interface{}{
		"dry_run":         true,
		"check_revisions": true,
	})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	body = decodeJSONBody(t, resp)
	assert.EqualValues(t, 0, body["count"])

	assert.Equal(t, 1, imageRepo.size())
}

func TestHandleSweepIgnoresNonSweepableTypes(t *testing.T) {
	app, svc, imageRepo, _ := newAdminTestApp(t)

	_, err := svc.SaveNew("face.png", encodeTestPNG(t, 10, 10), models.ImageTypeAvatar, 0, 0)
	require.NoError(t, err)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/images/sweep", map[string]interface{}{
		"types":   []string{"avatar"},
		"dry_run": true,
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.EqualValues(t, 0, body["count"])
	assert.Empty(t, body["orphaned"])
	assert.Equal(t, 1, imageRepo.size())
}

func TestHandleSweepRejectsMalformedBody(t *testing.T) {
	app, _, _, _ := newAdminTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/images/sweep", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleStats(t *testing.T) {
	statistics.Invalidate()
	app, svc, _, pageRepo := newAdminTestApp(t)

	_, err := svc.SaveNew("one.png", encodeTestPNG(t, 10, 10), models.ImageTypeGallery, 0, 0)
	require.NoError(t, err)
	_, err = svc.SaveNew("two.png", encodeTestPNG(t, 10, 10), models.ImageTypeDrawing, 0, 0)
	require.NoError(t, err)
	pageRepo.pageCount = 4

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.EqualValues(t, 2, body["total_images"])
	assert.EqualValues(t, 4, body["total_pages"])
	assert.Greater(t, body["total_bytes"], float64(0))

	byType, ok := body["images_by_type"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, byType["gallery"])
	assert.EqualValues(t, 1, byType["drawing"])
}
