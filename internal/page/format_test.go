package page

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

func TestInitials(t *testing.T) {
	assert.Equal(t, "JD", Initials("jane doe"))
	assert.Equal(t, "A", Initials("Anonymous"))
	assert.Equal(t, "ÉB", Initials("  élise   bard "))
	assert.Equal(t, "", Initials(""))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "5 Mar 2024", FormatDate(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestFormatPrice(t *testing.T) {
	v := 2500000.0
	assert.Equal(t, "£ 2,500,000", FormatPrice(&v))
	v = 1234.5
	assert.Equal(t, "£ 1,234.5", FormatPrice(&v))
	v = 0
	assert.Equal(t, "£ 0", FormatPrice(&v))
	assert.Equal(t, "£ 2,500,000", FormatPrice(nil))
}

func TestDisplayFeatures(t *testing.T) {
	assert.Equal(t, DefaultFeatures, DisplayFeatures(model.Property{}))
	assert.Equal(t, []string{"Sauna"}, DisplayFeatures(model.Property{Features: []string{"Sauna"}}))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Active", StatusLabel("active"))
	assert.Equal(t, "Inactive", StatusLabel("inactive"))
	assert.Equal(t, "Inactive", StatusLabel(""))
	assert.Equal(t, "4 of 7", ImageCounter(3, 7))

	r := 3
	assert.Equal(t, "★★★☆☆", Stars(&r))
	r = 9
	assert.Equal(t, "★★★★★", Stars(&r))
	assert.Equal(t, "", Stars(nil))

	assert.Equal(t, "Anonymous User", VisitorName(model.Comment{}))
	assert.Equal(t, "A", VisitorInitials(model.Comment{}))
	assert.Equal(t, "Ann", VisitorName(model.Comment{Visitor: &model.Visitor{Name: "Ann"}}))
}
