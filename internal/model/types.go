// Package model defines domain types shared by the property service, the
// transport client and the admin page.
package model

import "time"

// Property status values accepted by the service.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Comment moderation status used by the page.
const CommentApproved = "APPROVED"

// Property represents the current state of a property record.
//
// Counts and fees are carried as text; the service keeps whatever the admin
// typed once it passes validation.
type Property struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Nickname    string   `json:"nickname" yaml:"nickname"`
	Description string   `json:"description" yaml:"description"`
	Address     string   `json:"address" yaml:"address"`
	RefNo       string   `json:"refNo" yaml:"ref_no"`
	Price       *float64 `json:"price,omitempty" yaml:"price"`
	Longitude   *float64 `json:"longitude,omitempty" yaml:"longitude"`
	Latitude    *float64 `json:"latitude,omitempty" yaml:"latitude"`
	CleaningFee string   `json:"cleaning_fee" yaml:"cleaning_fee"`
	PetsFee     string   `json:"pets_fee" yaml:"pets_fee"`
	Pets        string   `json:"pets" yaml:"pets"`
	Bedrooms    string   `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms   string   `json:"bathrooms" yaml:"bathrooms"`
	Guests      string   `json:"guests" yaml:"guests"`
	Features    []string `json:"features" yaml:"features"`
	Status      string   `json:"status" yaml:"status"`
	Images      []string `json:"images" yaml:"images"`
	UpdatedAt   string   `json:"updatedAt,omitempty" yaml:"-"`
}

// Clone returns a deep copy of p.
func (p Property) Clone() Property {
	c := p
	if p.Price != nil {
		v := *p.Price
		c.Price = &v
	}
	if p.Longitude != nil {
		v := *p.Longitude
		c.Longitude = &v
	}
	if p.Latitude != nil {
		v := *p.Latitude
		c.Latitude = &v
	}
	c.Features = append([]string(nil), p.Features...)
	c.Images = append([]string(nil), p.Images...)
	return c
}

// GalleryImage is one image of a property's gallery.
type GalleryImage struct {
	ID         string    `json:"id" yaml:"id"`
	PropertyID string    `json:"propertyId" yaml:"property_id"`
	URL        string    `json:"url" yaml:"url"`
	Caption    string    `json:"caption,omitempty" yaml:"caption"`
	Category   string    `json:"category,omitempty" yaml:"category"`
	Position   int       `json:"position" yaml:"position"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at"`
}

// GalleryImagePatch carries the editable fields of a gallery image. Nil
// fields are left unchanged.
type GalleryImagePatch struct {
	Caption  *string `json:"caption,omitempty"`
	Category *string `json:"category,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// Visitor is the author of a comment.
type Visitor struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email"`
}

// Comment is a visitor comment on a property.
type Comment struct {
	ID         string    `json:"id" yaml:"id"`
	PropertyID string    `json:"propertyId" yaml:"property_id"`
	Content    string    `json:"content" yaml:"content"`
	Rating     *int      `json:"rating,omitempty" yaml:"rating"`
	Status     string    `json:"status" yaml:"status"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at"`
	Visitor    *Visitor  `json:"visitor,omitempty" yaml:"visitor"`
}

// CommentFilter selects comments.
type CommentFilter struct {
	PropertyID string
	Status     string
}

// FormField is one named value of a form submission, in submission order.
type FormField struct {
	Name  string
	Value string
}

// Upload is a file handed to an upload mutation.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}
