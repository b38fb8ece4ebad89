package page

import (
	"context"
	"errors"

	"github.com/fairyhunter13/property-admin-console/internal/notify"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
	"github.com/fairyhunter13/property-admin-console/internal/staging"
)

// BeginEdit enters edit mode. It reports false when already editing.
func (p *Page) BeginEdit() bool { return p.session.Begin() }

// CancelEdit leaves edit mode and discards unsaved edits.
func (p *Page) CancelEdit() { p.session.Cancel() }

// Editing reports whether the edit form is open.
func (p *Page) Editing() bool { return p.session.Mode() == staging.Editing }

// SetField stages a scalar field.
func (p *Page) SetField(name string, value any) { p.session.Buffer().SetField(name, value) }

// AddFeature appends an empty feature row.
func (p *Page) AddFeature() { p.session.Buffer().AddListItem("features") }

// RemoveFeature deletes feature row i.
func (p *Page) RemoveFeature(i int) bool { return p.session.Buffer().RemoveListItem("features", i) }

// SetFeature replaces feature row i.
func (p *Page) SetFeature(i int, value string) bool {
	return p.session.Buffer().SetListItem("features", i, value)
}

// Save submits the edit form. On success the page leaves edit mode and
// refetches the property; on failure it stays in edit mode with every typed
// value kept. Either way a notice is sent. If ctx ends before the update
// settles, Save returns ctx's error, stays in edit mode and sends nothing.
func (p *Page) Save(ctx context.Context) error {
	if p.Key() == "" {
		return ErrNotOpen
	}
	if p.update.Snapshot().Loading() {
		return ErrSaveInProgress
	}
	payload, err := p.session.Commit()
	if err != nil {
		return err
	}
	call := p.update.Invoke(ctx, UpdateArgs{ID: payload.Key, Fields: payload.Encode()})
	_, err = call.Wait(ctx)
	if errors.Is(err, resource.ErrSuperseded) {
		return err
	}
	if abandoned(ctx, err) {
		obs.Logger.Info("property_save_abandoned", "property_id", payload.Key, "err", err)
		return err
	}
	p.session.Committed(err)
	if err != nil {
		obs.Logger.Info("property_save_failed", "property_id", payload.Key, "err", err)
		p.notifier.Notify(notify.Notice{
			Title:       "Error",
			Description: "Failed to update property",
			Variant:     notify.Destructive,
			Key:         payload.Key,
		})
		return err
	}
	obs.Logger.Info("property_saved", "property_id", payload.Key, "generation", call.Generation)
	p.refreshProperty(ctx, payload.Key)
	p.notifier.Notify(notify.Notice{
		Title:       "Success",
		Description: "Property updated successfully",
		Key:         payload.Key,
	})
	return nil
}

// abandoned reports whether the caller stopped waiting before the call
// settled. The outcome is unknown then, so nothing is reported.
func abandoned(ctx context.Context, err error) bool {
	var f *resource.Failure
	return err != nil && ctx.Err() != nil && !errors.As(err, &f)
}
