package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

// formValidate validates property update forms. Field names in errors are
// the form field names.
var formValidate *validator.Validate

func init() {
	formValidate = validator.New()
	_ = formValidate.RegisterValidation("nonnegnum", validateNonNegNumber)
	formValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
}

// validateNonNegNumber accepts decimal text >= 0.
func validateNonNegNumber(fl validator.FieldLevel) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	return err == nil && v >= 0 && !math.IsInf(v, 0)
}

var errUnsupportedMedia = errors.New("expected multipart/form-data or application/x-www-form-urlencoded")

// propertyForm is a property update as submitted by the admin page. Nil
// fields were not submitted and stay unchanged.
type propertyForm struct {
	Name        *string `form:"name" validate:"omitnil,min=1,max=200"`
	Nickname    *string `form:"nickname" validate:"omitempty,max=200"`
	Description *string `form:"description" validate:"omitempty,max=10000"`
	Address     *string `form:"address" validate:"omitempty,max=500"`
	RefNo       *string `form:"refNo" validate:"omitempty,max=64"`
	Price       *string `form:"price" validate:"omitempty,nonnegnum"`
	Longitude   *string `form:"longitude" validate:"omitempty,longitude"`
	Latitude    *string `form:"latitude" validate:"omitempty,latitude"`
	CleaningFee *string `form:"cleaningfee" validate:"omitempty,nonnegnum"`
	PetsFee     *string `form:"petsfee" validate:"omitempty,nonnegnum"`
	Pets        *string `form:"pets" validate:"omitempty,number"`
	Bedrooms    *string `form:"bedrooms" validate:"omitempty,number"`
	Bathrooms   *string `form:"bathrooms" validate:"omitempty,number"`
	Guests      *string `form:"guests" validate:"omitempty,number"`
	Status      *string `form:"status" validate:"omitnil,oneof=active inactive"`
	Features    *string `form:"features" validate:"omitnil,json"`

	features []string
}

func isFormContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "multipart/form-data" || mt == "application/x-www-form-urlencoded"
}

func bindPropertyForm(c *gin.Context) (*propertyForm, error) {
	if !isFormContentType(c.GetHeader("Content-Type")) {
		return nil, errUnsupportedMedia
	}
	f := &propertyForm{}
	fields := []struct {
		name string
		dst  **string
	}{
		{"name", &f.Name},
		{"nickname", &f.Nickname},
		{"description", &f.Description},
		{"address", &f.Address},
		{"refNo", &f.RefNo},
		{"price", &f.Price},
		{"longitude", &f.Longitude},
		{"latitude", &f.Latitude},
		{"cleaningfee", &f.CleaningFee},
		{"petsfee", &f.PetsFee},
		{"pets", &f.Pets},
		{"bedrooms", &f.Bedrooms},
		{"bathrooms", &f.Bathrooms},
		{"guests", &f.Guests},
		{"status", &f.Status},
		{"features", &f.Features},
	}
	for _, fd := range fields {
		if v, ok := c.GetPostForm(fd.name); ok {
			v := strings.TrimSpace(v)
			*fd.dst = &v
		}
	}
	return f, nil
}

// validate returns a human-readable description of every invalid field, or
// "" when the form is acceptable.
func (f *propertyForm) validate() string {
	var msgs []string
	if err := formValidate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err.Error()
		}
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), describe(fe)))
		}
	}
	if f.Features != nil && len(msgs) == 0 {
		if err := json.Unmarshal([]byte(*f.Features), &f.features); err != nil {
			msgs = append(msgs, "features: must be a JSON array of strings")
		}
	}
	return strings.Join(msgs, "; ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "is required"
	case "max":
		return "is too long"
	case "nonnegnum":
		return "must be a non-negative number"
	case "number":
		return "must be a whole number"
	case "latitude":
		return "must be a latitude between -90 and 90"
	case "longitude":
		return "must be a longitude between -180 and 180"
	case "oneof":
		return "must be one of " + fe.Param()
	case "json":
		return "must be a JSON array of strings"
	default:
		return "is invalid"
	}
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// apply copies the submitted fields onto p. It must run after validate.
func (f *propertyForm) apply(p *model.Property) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, f.Name)
	set(&p.Nickname, f.Nickname)
	set(&p.Description, f.Description)
	set(&p.Address, f.Address)
	set(&p.RefNo, f.RefNo)
	set(&p.CleaningFee, f.CleaningFee)
	set(&p.PetsFee, f.PetsFee)
	set(&p.Pets, f.Pets)
	set(&p.Bedrooms, f.Bedrooms)
	set(&p.Bathrooms, f.Bathrooms)
	set(&p.Guests, f.Guests)
	set(&p.Status, f.Status)
	if f.Price != nil {
		p.Price = parseOptionalFloat(*f.Price)
	}
	if f.Longitude != nil {
		p.Longitude = parseOptionalFloat(*f.Longitude)
	}
	if f.Latitude != nil {
		p.Latitude = parseOptionalFloat(*f.Latitude)
	}
	if f.Features != nil {
		p.Features = append([]string{}, f.features...)
	}
}
