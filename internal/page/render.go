package page

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/resource"
)

// Render writes a plain-text rendition of the page to w.
func (p *Page) Render(w io.Writer) error {
	snap := p.property.Snapshot()
	switch {
	case snap.Loading():
		_, err := fmt.Fprintln(w, "Loading property details...")
		return err
	case snap.Failed() || snap.Status == resource.Idle:
		msg := "Failed to load property details"
		if snap.Err != nil {
			msg += ": " + snap.Err.Error()
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	prop := snap.Data

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s %s\t[%s]\n", prop.Name, prop.RefNo, StatusLabel(prop.Status))
	if p.Editing() {
		fmt.Fprintln(tw, "(editing)")
	}
	fmt.Fprintf(tw, "Starting from\t%s\n", FormatPrice(prop.Price))
	fmt.Fprintf(tw, "Address\t%s\n", prop.Address)
	fmt.Fprintf(tw, "Guests\t%s\n", prop.Guests)
	fmt.Fprintf(tw, "Bedrooms\t%s\n", prop.Bedrooms)
	fmt.Fprintf(tw, "Bathrooms\t%s\n", prop.Bathrooms)
	fmt.Fprintf(tw, "Pets\t%s\n", prop.Pets)
	if prop.Description != "" {
		fmt.Fprintf(tw, "Description\t%s\n", prop.Description)
	}
	fmt.Fprintf(tw, "Features\t%s\n", strings.Join(DisplayFeatures(prop), ", "))

	images := p.Images()
	if images.Available && len(images.Value) > 0 {
		fmt.Fprintf(tw, "Images\t%s\n", ImageCounter(0, len(images.Value)))
		for _, img := range images.Value {
			fmt.Fprintf(tw, "\t%s\n", p.tr.ImageURL(img))
		}
	} else {
		fmt.Fprintf(tw, "Images\tnone\n")
	}
	if gs := p.gallery.Snapshot(); gs.Failed() {
		fmt.Fprintf(tw, "Gallery\tunavailable: %s\n", gs.Err.Error())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return renderComments(w, p.comments.Snapshot(), p.RecentComments())
}

func renderComments(w io.Writer, snap resource.Snapshot[[]model.Comment], recent []model.Comment) error {
	if _, err := fmt.Fprintln(w, "\nRecent comments"); err != nil {
		return err
	}
	switch {
	case snap.Loading():
		_, err := fmt.Fprintln(w, "  loading...")
		return err
	case snap.Failed():
		_, err := fmt.Fprintf(w, "  unavailable: %s\n", snap.Err.Error())
		return err
	case len(recent) == 0:
		_, err := fmt.Fprintln(w, "  none yet")
		return err
	}
	for _, c := range recent {
		head := fmt.Sprintf("  [%s] %s  %s", VisitorInitials(c), VisitorName(c), FormatDate(c.CreatedAt))
		if s := Stars(c.Rating); s != "" {
			head += "  " + s
		}
		if _, err := fmt.Fprintf(w, "%s\n    %s\n", head, c.Content); err != nil {
			return err
		}
	}
	return nil
}
