package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/property-admin-console/internal/config"
	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/store"
)

const fixtureDoc = `
properties:
  - id: P1
    name: Seaside
    price: 2500000
    features: [Wifi, Parking]
    images: [uploads/a.jpg]
gallery:
  - id: G1
    property_id: P1
    url: uploads/g1.jpg
comments:
  - id: C1
    property_id: P1
    content: Lovely
    status: APPROVED
  - id: C2
    property_id: P1
    content: Hidden
    status: PENDING
`

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func init() { gin.SetMode(gin.TestMode) }

func newTestApp(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	st := store.New()
	_, err := st.ApplyFixtures([]byte(fixtureDoc))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	app := NewApp(config.Defaults(), st, obs.NewMetrics(reg), reg)
	return app, NewRouter(app)
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func formRequest(method, target string, vals url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, target string, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile(uploadField, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestGetProperty(t *testing.T) {
	_, r := newTestApp(t)

	rr := do(r, httptest.NewRequest(http.MethodGet, "/properties/P1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var p model.Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Seaside", p.Name)
	assert.Equal(t, model.StatusActive, p.Status)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	rr = do(r, httptest.NewRequest(http.MethodGet, "/properties/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeError(t, rr)["error"])
}

func TestRequestIDPropagated(t *testing.T) {
	_, r := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	rr := do(r, req)
	assert.Equal(t, "rid-1", rr.Header().Get(RequestIDHeader))
}

func TestUpdateProperty(t *testing.T) {
	_, r := newTestApp(t)

	rr := do(r, formRequest(http.MethodPut, "/properties/P1", url.Values{
		"name":     {"Seaside Villa"},
		"price":    {"2600000.5"},
		"bedrooms": {"3"},
		"features": {`["Wifi","Pool"]`},
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var p model.Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Seaside Villa", p.Name)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 2600000.5, *p.Price, 0.001)
	assert.Equal(t, "3", p.Bedrooms)
	assert.Equal(t, []string{"Wifi", "Pool"}, p.Features)
	assert.Equal(t, []string{"uploads/a.jpg"}, p.Images, "fields not submitted stay unchanged")
	assert.NotEmpty(t, p.UpdatedAt)
}

func TestUpdatePropertyValidation(t *testing.T) {
	_, r := newTestApp(t)
	cases := []struct {
		name  string
		vals  url.Values
		field string
	}{
		{"blank name", url.Values{"name": {"  "}}, "name"},
		{"negative price", url.Values{"price": {"-1"}}, "price"},
		{"text price", url.Values{"price": {"abc"}}, "price"},
		{"latitude range", url.Values{"latitude": {"91"}}, "latitude"},
		{"longitude range", url.Values{"longitude": {"-181"}}, "longitude"},
		{"fractional bedrooms", url.Values{"bedrooms": {"2.5"}}, "bedrooms"},
		{"status", url.Values{"status": {"archived"}}, "status"},
		{"features not json", url.Values{"features": {"Wifi"}}, "features"},
		{"features not strings", url.Values{"features": {"[1,2]"}}, "features"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(r, formRequest(http.MethodPut, "/properties/P1", tc.vals))
			require.Equal(t, http.StatusBadRequest, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, "validation_error", body["error"])
			assert.Contains(t, body["details"], tc.field)
		})
	}

	rr := do(r, httptest.NewRequest(http.MethodGet, "/properties/P1", nil))
	var p model.Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Seaside", p.Name, "rejected updates leave the record untouched")
}

func TestUpdatePropertyUnsupportedMedia(t *testing.T) {
	_, r := newTestApp(t)
	req := httptest.NewRequest(http.MethodPut, "/properties/P1", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := do(r, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestUpdatePropertyUnknown(t *testing.T) {
	_, r := newTestApp(t)
	rr := do(r, formRequest(http.MethodPut, "/properties/nope", url.Values{"name": {"x"}}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMutationsRejectedWhileShuttingDown(t *testing.T) {
	app, r := newTestApp(t)
	app.StartShutdown()

	rr := do(r, formRequest(http.MethodPut, "/properties/P1", url.Values{"name": {"x"}}))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr = do(r, httptest.NewRequest(http.MethodDelete, "/gallery/G1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = do(r, httptest.NewRequest(http.MethodGet, "/properties/P1", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "reads keep working")
}

func TestGalleryUploadListDelete(t *testing.T) {
	_, r := newTestApp(t)

	rr := do(r, multipartRequest(t, "/properties/P1/gallery",
		map[string][]byte{"Pool.PNG": pngHeader}, map[string]string{"category": "outdoor"}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var added []model.GalleryImage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	require.Len(t, added, 1)
	assert.Equal(t, "P1", added[0].PropertyID)
	assert.Equal(t, "outdoor", added[0].Category)
	assert.Equal(t, 1, added[0].Position)
	assert.True(t, strings.HasPrefix(added[0].URL, "uploads/"))
	assert.True(t, strings.HasSuffix(added[0].URL, ".png"))

	rr = do(r, httptest.NewRequest(http.MethodGet, "/"+added[0].URL, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	rr = do(r, httptest.NewRequest(http.MethodGet, "/properties/P1/gallery", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.GalleryImage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "G1", list[0].ID)
	assert.Equal(t, added[0].ID, list[1].ID)

	rr = do(r, httptest.NewRequest(http.MethodDelete, "/gallery/"+added[0].ID, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(r, httptest.NewRequest(http.MethodGet, "/"+added[0].URL, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(r, httptest.NewRequest(http.MethodDelete, "/gallery/"+added[0].ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGalleryUploadRejectsNonImages(t *testing.T) {
	_, r := newTestApp(t)
	rr := do(r, multipartRequest(t, "/properties/P1/gallery",
		map[string][]byte{"notes.txt": []byte("plain text")}, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, multipartRequest(t, "/properties/P1/gallery", nil, map[string]string{"category": "x"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(r, multipartRequest(t, "/properties/nope/gallery",
		map[string][]byte{"a.png": pngHeader}, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateGalleryImage(t *testing.T) {
	_, r := newTestApp(t)
	req := httptest.NewRequest(http.MethodPatch, "/gallery/G1", strings.NewReader(`{"caption":"Front","position":4}`))
	req.Header.Set("Content-Type", "application/json")
	rr := do(r, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var img model.GalleryImage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &img))
	assert.Equal(t, "Front", img.Caption)
	assert.Equal(t, 4, img.Position)

	req = httptest.NewRequest(http.MethodPatch, "/gallery/G1", strings.NewReader(`{"position":-1}`))
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)
	req = httptest.NewRequest(http.MethodPatch, "/gallery/G1", strings.NewReader(`{"bogus":1}`))
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)
	req = httptest.NewRequest(http.MethodPatch, "/gallery/none", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusNotFound, do(r, req).Code)
}

func TestUploadFeaturedAppends(t *testing.T) {
	_, r := newTestApp(t)
	rr := do(r, multipartRequest(t, "/properties/P1/featured-images",
		map[string][]byte{"hero.png": pngHeader}, nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var p model.Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Len(t, p.Images, 2)
	assert.Equal(t, "uploads/a.jpg", p.Images[0])
}

func TestListComments(t *testing.T) {
	_, r := newTestApp(t)
	rr := do(r, httptest.NewRequest(http.MethodGet, "/comments?propertyId=P1&status=APPROVED", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var cs []model.Comment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cs))
	require.Len(t, cs, 1)
	assert.Equal(t, "C1", cs[0].ID)

	rr = do(r, httptest.NewRequest(http.MethodGet, "/comments?propertyId=none", nil))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHealthMetricsDocs(t *testing.T) {
	_, r := newTestApp(t)

	rr := do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = do(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")

	rr = do(r, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/properties/{id}")

	rr = do(r, httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "swagger-ui")
}
