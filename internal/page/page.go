// Package page wires the property detail view: the queries and mutations
// behind it, the composed image list, the recent comments and the edit
// workflow.
package page

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/notify"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
	"github.com/fairyhunter13/property-admin-console/internal/staging"
)

// Transport is the remote property service.
type Transport interface {
	FetchProperty(ctx context.Context, id string) (model.Property, error)
	FetchGallery(ctx context.Context, propertyID string) ([]model.GalleryImage, error)
	FetchComments(ctx context.Context, f model.CommentFilter) ([]model.Comment, error)
	UpdateProperty(ctx context.Context, id string, fields []model.FormField) (model.Property, error)
	UploadGalleryImages(ctx context.Context, propertyID, category string, files []model.Upload) ([]model.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, imageID string) error
	UpdateGalleryImage(ctx context.Context, imageID string, patch model.GalleryImagePatch) (model.GalleryImage, error)
	UploadFeaturedImages(ctx context.Context, propertyID string, files []model.Upload) (model.Property, error)
	ImageURL(path string) string
}

// ErrNotOpen is returned by operations that need an open property.
var ErrNotOpen = errors.New("page: no property open")

// ErrSaveInProgress is returned by Save while an update is pending.
var ErrSaveInProgress = errors.New("page: save already in progress")

// Options tunes a Page.
type Options struct {
	// RecentComments caps RecentComments. Zero means 4.
	RecentComments int
	// CommentStatus filters the comments query. Empty means APPROVED.
	CommentStatus string
	Notifier      notify.Notifier
	Metrics       *obs.Metrics
}

// UpdateArgs is the input of the update mutation.
type UpdateArgs struct {
	ID     string
	Fields []model.FormField
}

// GalleryUpload is the input of the gallery upload mutation.
type GalleryUpload struct {
	PropertyID string
	Category   string
	Files      []model.Upload
}

// GalleryEdit is the input of the gallery image update mutation.
type GalleryEdit struct {
	ImageID string
	Patch   model.GalleryImagePatch
}

// FeaturedUpload is the input of the featured images upload mutation.
type FeaturedUpload struct {
	PropertyID string
	Files      []model.Upload
}

// Schema lists the edit form fields in submission order.
var Schema = staging.Schema{
	Fields: []string{
		"name", "description", "address", "refNo", "price", "longitude", "latitude",
		"cleaningfee", "petsfee", "pets", "nickname", "status", "bathrooms", "guests", "bedrooms",
	},
	Lists: []string{"features"},
}

// Page owns the controllers of one property detail view. A Page is used by
// a single consumer; open one property at a time with Open.
type Page struct {
	tr       Transport
	notifier notify.Notifier
	opts     Options

	property       *resource.Controller[model.Property, string]
	gallery        *resource.Controller[[]model.GalleryImage, string]
	comments       *resource.Controller[[]model.Comment, model.CommentFilter]
	update         *resource.Controller[model.Property, UpdateArgs]
	uploadGallery  *resource.Controller[[]model.GalleryImage, GalleryUpload]
	deleteGallery  *resource.Controller[struct{}, string]
	updateGallery  *resource.Controller[model.GalleryImage, GalleryEdit]
	uploadFeatured *resource.Controller[model.Property, FeaturedUpload]

	images   *resource.Composer[[]string]
	featured *resource.Composer[[]string]

	session *staging.Session

	mu      sync.Mutex
	key     string
	pending map[string]waiter
	unsub   []func()
}

type waiter interface {
	wait(ctx context.Context) error
}

type callWaiter[T any] struct{ c *resource.Call[T] }

func (w callWaiter[T]) wait(ctx context.Context) error {
	_, err := w.c.Wait(ctx)
	return err
}

// New builds a Page over tr. Nothing is fetched until Open.
func New(tr Transport, opts Options) *Page {
	if opts.RecentComments <= 0 {
		opts.RecentComments = 4
	}
	if opts.CommentStatus == "" {
		opts.CommentStatus = model.CommentApproved
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	p := &Page{
		tr:       tr,
		notifier: opts.Notifier,
		opts:     opts,
		session:  staging.NewSession(staging.NewBuffer("", Schema)),
		pending:  make(map[string]waiter),
	}
	observe := resource.WithObserver(func(name string, s resource.Status) {
		opts.Metrics.ObserveTransition(name, s.String())
	})
	query := []resource.Option{observe, resource.WithCancelOnSupersede()}
	mutation := []resource.Option{observe}

	p.property = resource.New("property", tr.FetchProperty, query...)
	p.gallery = resource.New("gallery", tr.FetchGallery, query...)
	p.comments = resource.New("comments", tr.FetchComments, query...)
	p.update = resource.New("update", func(ctx context.Context, a UpdateArgs) (model.Property, error) {
		return tr.UpdateProperty(ctx, a.ID, a.Fields)
	}, append(mutation, resource.WithPolicy(resource.IgnoreWhilePending))...)
	p.uploadGallery = resource.New("upload_gallery", func(ctx context.Context, a GalleryUpload) ([]model.GalleryImage, error) {
		return tr.UploadGalleryImages(ctx, a.PropertyID, a.Category, a.Files)
	}, mutation...)
	p.deleteGallery = resource.New("delete_gallery", func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, tr.DeleteGalleryImage(ctx, id)
	}, mutation...)
	p.updateGallery = resource.New("update_gallery", func(ctx context.Context, a GalleryEdit) (model.GalleryImage, error) {
		return tr.UpdateGalleryImage(ctx, a.ImageID, a.Patch)
	}, mutation...)
	p.uploadFeatured = resource.New("upload_featured", func(ctx context.Context, a FeaturedUpload) (model.Property, error) {
		return tr.UploadFeaturedImages(ctx, a.PropertyID, a.Files)
	}, mutation...)

	sources := map[string]resource.Source{"property": p.property, "gallery": p.gallery}
	p.images = resource.Compose(sources, mergeImages)
	p.featured = resource.Compose(sources, mergeFeatured)
	p.unsub = append(p.unsub, p.property.Subscribe(p.OnPropertyResolved))
	return p
}

// Close detaches the page from its controllers.
func (p *Page) Close() {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()
	for _, fn := range unsub {
		fn()
	}
	p.images.Close()
	p.featured.Close()
}

// Key returns the open property id.
func (p *Page) Key() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

// Open shows the property key. Opening a different key drops everything
// belonging to the previous one and fetches the new property, its gallery
// and its comments. Opening the current key again does nothing.
func (p *Page) Open(ctx context.Context, key string) error {
	if key == "" {
		return ErrNotOpen
	}
	p.mu.Lock()
	if p.key == key {
		p.mu.Unlock()
		return nil
	}
	p.key = key
	p.pending = make(map[string]waiter)
	p.mu.Unlock()

	obs.Logger.Debug("page_open", "property_id", key)
	p.property.Reset()
	p.gallery.Reset()
	p.comments.Reset()
	p.update.Reset()
	p.uploadGallery.Reset()
	p.deleteGallery.Reset()
	p.updateGallery.Reset()
	p.uploadFeatured.Reset()
	p.session.Reset(key)
	return p.Refresh(ctx)
}

// Refresh refetches the property, the gallery and the comments.
func (p *Page) Refresh(ctx context.Context) error {
	key := p.Key()
	if key == "" {
		return ErrNotOpen
	}
	p.refreshProperty(ctx, key)
	p.refreshGallery(ctx, key)
	p.track("comments", callWaiter[[]model.Comment]{p.comments.Invoke(ctx, p.commentFilter(key))})
	return nil
}

func (p *Page) refreshProperty(ctx context.Context, key string) {
	p.track("property", callWaiter[model.Property]{p.property.Invoke(ctx, key)})
}

func (p *Page) refreshGallery(ctx context.Context, key string) {
	p.track("gallery", callWaiter[[]model.GalleryImage]{p.gallery.Invoke(ctx, key)})
}

func (p *Page) commentFilter(key string) model.CommentFilter {
	return model.CommentFilter{PropertyID: key, Status: p.opts.CommentStatus}
}

func (p *Page) track(name string, w waiter) {
	p.mu.Lock()
	p.pending[name] = w
	p.mu.Unlock()
}

// Await blocks until the latest property, gallery and comments fetches have
// settled. It returns the first fetch failure, if any. Fetches overtaken by a
// newer one do not count as failures.
func (p *Page) Await(ctx context.Context) error {
	p.mu.Lock()
	ws := make([]waiter, 0, len(p.pending))
	for _, w := range p.pending {
		ws = append(ws, w)
	}
	p.mu.Unlock()

	var g errgroup.Group
	for _, w := range ws {
		g.Go(func() error {
			err := w.wait(ctx)
			if errors.Is(err, resource.ErrSuperseded) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// OnPropertyResolved seeds the edit buffer from a resolved property
// snapshot. Each snapshot version seeds at most once, so edits in progress
// survive repeated deliveries of the same data.
func (p *Page) OnPropertyResolved(snap resource.Snapshot[model.Property]) {
	prop, ok := snap.Value()
	if !ok || snap.Stale || prop.ID != p.Key() {
		return
	}
	if p.session.Seed(snap.Version, FormFromProperty(prop)) {
		obs.Logger.Debug("edit_buffer_seeded", "property_id", prop.ID, "version", snap.Version)
	}
}

// FormFromProperty maps a property onto the edit form.
func FormFromProperty(prop model.Property) staging.Form {
	status := prop.Status
	if status == "" {
		status = model.StatusActive
	}
	return staging.Form{
		Values: map[string]string{
			"name":        prop.Name,
			"nickname":    prop.Nickname,
			"description": prop.Description,
			"address":     prop.Address,
			"refNo":       prop.RefNo,
			"price":       formatOptional(prop.Price),
			"longitude":   formatOptional(prop.Longitude),
			"latitude":    formatOptional(prop.Latitude),
			"cleaningfee": prop.CleaningFee,
			"petsfee":     prop.PetsFee,
			"pets":        prop.Pets,
			"bedrooms":    prop.Bedrooms,
			"bathrooms":   prop.Bathrooms,
			"guests":      prop.Guests,
			"status":      status,
		},
		Lists: map[string][]string{"features": prop.Features},
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Property returns the property query snapshot.
func (p *Page) Property() resource.Snapshot[model.Property] { return p.property.Snapshot() }

// Gallery returns the gallery query snapshot.
func (p *Page) Gallery() resource.Snapshot[[]model.GalleryImage] { return p.gallery.Snapshot() }

// Comments returns the comments query snapshot.
func (p *Page) Comments() resource.Snapshot[[]model.Comment] { return p.comments.Snapshot() }

// UpdateStatus returns the update mutation snapshot.
func (p *Page) UpdateStatus() resource.Snapshot[model.Property] { return p.update.Snapshot() }

// Session returns the edit session.
func (p *Page) Session() *staging.Session { return p.session }

// SubscribeProperty registers fn for property query transitions.
func (p *Page) SubscribeProperty(fn func(resource.Snapshot[model.Property])) (unsubscribe func()) {
	return p.property.Subscribe(fn)
}
