package page

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

// DefaultFeatures is shown when a property lists no features.
var DefaultFeatures = []string{
	"Air Conditioning", "Heating", "Kitchen", "Washing Machine", "Dryer",
	"Wifi", "TV", "Cable TV", "Parquet",
}

const fallbackPrice = "2,500,000"

var gbPrinter = message.NewPrinter(language.BritishEnglish)

// Initials upper-cases the first letter of every word of name.
func Initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// FormatDate renders t as a short British date, e.g. "5 Mar 2024".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}

// FormatPrice renders a price with grouped thousands behind a pound sign.
// A missing price shows the placeholder amount.
func FormatPrice(price *float64) string {
	if price == nil {
		return "£ " + fallbackPrice
	}
	return "£ " + gbPrinter.Sprint(number.Decimal(*price, number.MaxFractionDigits(3)))
}

// StatusLabel is the badge text of a property status.
func StatusLabel(status string) string {
	if status == model.StatusActive {
		return "Active"
	}
	return "Inactive"
}

// DisplayFeatures returns the property's features, or DefaultFeatures when
// it has none.
func DisplayFeatures(p model.Property) []string {
	if len(p.Features) > 0 {
		return append([]string(nil), p.Features...)
	}
	return append([]string(nil), DefaultFeatures...)
}

// ImageCounter renders the position of image index (zero-based) in a list
// of total images.
func ImageCounter(index, total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d of %d", index+1, total)
}

// Stars renders a 1..5 rating as filled and empty stars.
func Stars(rating *int) string {
	if rating == nil || *rating <= 0 {
		return ""
	}
	n := min(*rating, 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// VisitorName is the display name of a comment's author.
func VisitorName(c model.Comment) string {
	if c.Visitor == nil || strings.TrimSpace(c.Visitor.Name) == "" {
		return "Anonymous User"
	}
	return c.Visitor.Name
}

// VisitorInitials is the avatar text of a comment's author.
func VisitorInitials(c model.Comment) string {
	if c.Visitor == nil || strings.TrimSpace(c.Visitor.Name) == "" {
		return Initials("Anonymous")
	}
	return Initials(c.Visitor.Name)
}
