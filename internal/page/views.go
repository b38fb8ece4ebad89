package page

import (
	"slices"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
)

// mergeImages lists the property's own images followed by the gallery image
// URLs in gallery order. Until the gallery resolves the list holds only the
// property's images. Duplicates are kept.
func mergeImages(in resource.Inputs) ([]string, bool) {
	prop, ok := resource.Lookup[model.Property](in, "property").Value()
	if !ok {
		return nil, false
	}
	out := slices.Clone(prop.Images)
	if gallery, ok := resource.Lookup[[]model.GalleryImage](in, "gallery").Value(); ok {
		for _, g := range gallery {
			out = append(out, g.URL)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}

// mergeFeatured is the property's own images, available once both the
// property and its gallery resolved.
func mergeFeatured(in resource.Inputs) ([]string, bool) {
	if !in.AllResolved("property", "gallery") {
		return nil, false
	}
	prop, _ := resource.Lookup[model.Property](in, "property").Value()
	out := slices.Clone(prop.Images)
	if out == nil {
		out = []string{}
	}
	return out, true
}

// Images returns the composed image list.
func (p *Page) Images() resource.View[[]string] { return p.images.View() }

// SubscribeImages registers fn for image list changes.
func (p *Page) SubscribeImages(fn func(resource.View[[]string])) (unsubscribe func()) {
	return p.images.Subscribe(fn)
}

// FeaturedImages returns the property's own images once the gallery is in.
func (p *Page) FeaturedImages() resource.View[[]string] { return p.featured.View() }

// RecentComments returns the newest comments, at most Options.RecentComments.
func (p *Page) RecentComments() []model.Comment {
	cs, ok := p.comments.Snapshot().Value()
	if !ok {
		return nil
	}
	if len(cs) > p.opts.RecentComments {
		cs = cs[:p.opts.RecentComments]
	}
	return slices.Clone(cs)
}
