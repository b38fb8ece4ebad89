package page

import (
	"context"
	"errors"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/notify"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
)

type outcome struct {
	success string
	failure string
}

// mutate invokes c, waits for its own outcome, runs after on success and
// notifies either way.
func mutate[T, A any](ctx context.Context, p *Page, c *resource.Controller[T, A], args A, o outcome, after func(key string)) (T, error) {
	key := p.Key()
	if key == "" {
		var zero T
		return zero, ErrNotOpen
	}
	v, err := c.Invoke(ctx, args).Wait(ctx)
	if errors.Is(err, resource.ErrSuperseded) || abandoned(ctx, err) {
		return v, err
	}
	if err != nil {
		obs.Logger.Info("mutation_failed", "mutation", c.Name(), "property_id", key, "err", err)
		p.notifier.Notify(notify.Notice{Title: "Error", Description: o.failure, Variant: notify.Destructive, Key: key})
		return v, err
	}
	after(key)
	p.notifier.Notify(notify.Notice{Title: "Success", Description: o.success, Key: key})
	return v, nil
}

// UploadGalleryImages adds files to the gallery of the open property and
// refetches the gallery.
func (p *Page) UploadGalleryImages(ctx context.Context, category string, files []model.Upload) ([]model.GalleryImage, error) {
	return mutate(ctx, p, p.uploadGallery, GalleryUpload{PropertyID: p.Key(), Category: category, Files: files},
		outcome{"Images uploaded successfully", "Failed to upload images"},
		func(key string) { p.refreshGallery(ctx, key) })
}

// DeleteGalleryImage removes one gallery image and refetches the gallery.
func (p *Page) DeleteGalleryImage(ctx context.Context, imageID string) error {
	_, err := mutate(ctx, p, p.deleteGallery, imageID,
		outcome{"Image deleted successfully", "Failed to delete image"},
		func(key string) { p.refreshGallery(ctx, key) })
	return err
}

// UpdateGalleryImage edits one gallery image and refetches the gallery.
func (p *Page) UpdateGalleryImage(ctx context.Context, imageID string, patch model.GalleryImagePatch) (model.GalleryImage, error) {
	return mutate(ctx, p, p.updateGallery, GalleryEdit{ImageID: imageID, Patch: patch},
		outcome{"Image updated successfully", "Failed to update image"},
		func(key string) { p.refreshGallery(ctx, key) })
}

// UploadFeaturedImages appends files to the property's own images and
// refetches the property.
func (p *Page) UploadFeaturedImages(ctx context.Context, files []model.Upload) (model.Property, error) {
	return mutate(ctx, p, p.uploadFeatured, FeaturedUpload{PropertyID: p.Key(), Files: files},
		outcome{"Featured images uploaded successfully", "Failed to upload featured images"},
		func(key string) { p.refreshProperty(ctx, key) })
}
