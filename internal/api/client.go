// Package api is the HTTP transport to the property service. Every error it
// returns is a *resource.Failure classified from the response status.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
)

// RequestIDHeader is set on every outgoing request.
const RequestIDHeader = "X-Request-Id"

// Client talks to the property service.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	group   singleflight.Group
	// writes counts settled writes; GETs only share a flight within one count.
	writes atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithRateLimit caps outgoing requests to rps per second. Zero or less
// leaves requests unlimited.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}

// New returns a client for the service at baseURL. A positive timeout bounds
// every request.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: timeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ImageURL resolves a stored image path against the service address.
// Absolute URLs are returned as is.
func (c *Client) ImageURL(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return c.base + "/" + strings.TrimLeft(path, "/")
}

// FetchProperty returns one property record.
func (c *Client) FetchProperty(ctx context.Context, id string) (model.Property, error) {
	var p model.Property
	err := c.get(ctx, "/properties/"+url.PathEscape(id), &p)
	return p, err
}

// FetchGallery returns a property's gallery in display order.
func (c *Client) FetchGallery(ctx context.Context, propertyID string) ([]model.GalleryImage, error) {
	var imgs []model.GalleryImage
	err := c.get(ctx, "/properties/"+url.PathEscape(propertyID)+"/gallery", &imgs)
	return imgs, err
}

// FetchComments returns comments matching f, newest first.
func (c *Client) FetchComments(ctx context.Context, f model.CommentFilter) ([]model.Comment, error) {
	q := url.Values{}
	if f.PropertyID != "" {
		q.Set("propertyId", f.PropertyID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	var cs []model.Comment
	err := c.get(ctx, "/comments?"+q.Encode(), &cs)
	return cs, err
}

// UpdateProperty submits fields as a multipart form.
func (c *Client) UpdateProperty(ctx context.Context, id string, fields []model.FormField) (model.Property, error) {
	body, ct, err := encodeMultipart(fields, nil)
	if err != nil {
		return model.Property{}, resource.Fail(resource.UnknownFailure, "encode form", err)
	}
	var p model.Property
	err = c.send(ctx, http.MethodPut, "/properties/"+url.PathEscape(id), ct, body, &p)
	return p, err
}

// UploadGalleryImages adds files to a property's gallery under an optional
// category.
func (c *Client) UploadGalleryImages(ctx context.Context, propertyID, category string, files []model.Upload) ([]model.GalleryImage, error) {
	var fields []model.FormField
	if category != "" {
		fields = append(fields, model.FormField{Name: "category", Value: category})
	}
	body, ct, err := encodeMultipart(fields, files)
	if err != nil {
		return nil, resource.Fail(resource.UnknownFailure, "encode upload", err)
	}
	var imgs []model.GalleryImage
	err = c.send(ctx, http.MethodPost, "/properties/"+url.PathEscape(propertyID)+"/gallery", ct, body, &imgs)
	return imgs, err
}

// UploadFeaturedImages appends files to a property's own images.
func (c *Client) UploadFeaturedImages(ctx context.Context, propertyID string, files []model.Upload) (model.Property, error) {
	body, ct, err := encodeMultipart(nil, files)
	if err != nil {
		return model.Property{}, resource.Fail(resource.UnknownFailure, "encode upload", err)
	}
	var p model.Property
	err = c.send(ctx, http.MethodPost, "/properties/"+url.PathEscape(propertyID)+"/featured-images", ct, body, &p)
	return p, err
}

// UpdateGalleryImage patches one gallery image.
func (c *Client) UpdateGalleryImage(ctx context.Context, imageID string, patch model.GalleryImagePatch) (model.GalleryImage, error) {
	b, err := json.Marshal(patch)
	if err != nil {
		return model.GalleryImage{}, resource.Fail(resource.UnknownFailure, "encode patch", err)
	}
	var img model.GalleryImage
	err = c.send(ctx, http.MethodPatch, "/gallery/"+url.PathEscape(imageID), "application/json", b, &img)
	return img, err
}

// DeleteGalleryImage removes one gallery image.
func (c *Client) DeleteGalleryImage(ctx context.Context, imageID string) error {
	return c.send(ctx, http.MethodDelete, "/gallery/"+url.PathEscape(imageID), "", nil, nil)
}

// get performs a GET. Identical concurrent GETs share one round trip unless a
// write settled in between; each caller still stops waiting when its own
// context ends.
func (c *Client) get(ctx context.Context, path string, out any) error {
	key := strconv.FormatUint(c.writes.Load(), 10) + " " + path
	ch := c.group.DoChan(key, func() (any, error) {
		return c.roundTrip(context.WithoutCancel(ctx), http.MethodGet, path, "", nil)
	})
	select {
	case <-ctx.Done():
		return resource.Normalize(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return decode(res.Val.([]byte), out)
	}
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	b, err := c.roundTrip(ctx, method, path, contentType, body)
	c.writes.Add(1)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(b, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, resource.Normalize(err)
		}
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, resource.Fail(resource.UnknownFailure, "build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.Logger.Warn("api_request_failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return nil, resource.Normalize(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resource.Fail(resource.NetworkFailure, "read response", err)
	}
	obs.Logger.Debug("api_request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return b, nil
	}
	return nil, statusFailure(resp.StatusCode, b)
}

// errorEnvelope is the service's JSON error body.
type errorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// StatusError is the cause of a Failure built from a non-2xx response.
type StatusError struct {
	Code    int
	Reason  string
	Details string
}

func (e *StatusError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Code, e.Reason, e.Details)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Reason)
}

func statusFailure(code int, body []byte) *resource.Failure {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	cause := &StatusError{Code: code, Reason: env.Error, Details: env.Details}
	msg := env.Details
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	switch {
	case code == http.StatusNotFound:
		return resource.Fail(resource.NotFoundFailure, msg, cause)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return resource.Fail(resource.ValidationFailure, msg, cause)
	case code >= 500:
		return resource.Fail(resource.NetworkFailure, msg, cause)
	default:
		return resource.Fail(resource.UnknownFailure, msg, cause)
	}
}

func decode(b []byte, out any) error {
	if err := json.Unmarshal(b, out); err != nil {
		return resource.Fail(resource.UnknownFailure, "malformed response", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(fields []model.FormField, files []model.Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, quoteEscaper.Replace(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// IsStatus reports whether err came from a response with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
