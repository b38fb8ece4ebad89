package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/property-admin-console/internal/model"
)

var testSchema = Schema{
	Fields: []string{"name", "price", "bedrooms"},
	Lists:  []string{"features"},
}

func seeded(t *testing.T) *Buffer {
	t.Helper()
	b := NewBuffer("P1", testSchema)
	require.True(t, b.Seed(1, Form{
		Values: map[string]string{"name": "Villa A", "price": "2500", "bedrooms": "4"},
		Lists:  map[string][]string{"features": {"Wifi", "Pool"}},
	}))
	return b
}

func TestNewBufferIsBlank(t *testing.T) {
	b := NewBuffer("P1", testSchema)
	assert.Equal(t, "P1", b.Key())
	assert.Equal(t, "", b.Field("name"))
	assert.Equal(t, []string{""}, b.List("features"))
	assert.False(t, b.Dirty())
}

func TestSeedOverwritesFields(t *testing.T) {
	b := seeded(t)
	assert.Equal(t, "Villa A", b.Field("name"))
	assert.Equal(t, "4", b.Field("bedrooms"))
	assert.Equal(t, []string{"Wifi", "Pool"}, b.List("features"))
	assert.Equal(t, uint64(1), b.Revision())
}

func TestSeedSameRevisionDoesNotClobberEdits(t *testing.T) {
	b := seeded(t)
	b.SetField("name", "Villa B")

	applied := b.Seed(1, Form{Values: map[string]string{"name": "Villa A", "bedrooms": "4"}})
	assert.False(t, applied)
	assert.Equal(t, "Villa B", b.Field("name"))
	assert.True(t, b.Dirty())

	applied = b.Seed(2, Form{Values: map[string]string{"name": "Villa A", "bedrooms": "4"}})
	assert.True(t, applied)
	assert.Equal(t, "Villa A", b.Field("name"))
	assert.False(t, b.Dirty())
}

func TestSeedEmptyListKeepsOneBlankItem(t *testing.T) {
	b := NewBuffer("P1", testSchema)
	b.Seed(1, Form{Lists: map[string][]string{"features": nil}})
	assert.Equal(t, []string{""}, b.List("features"))
}

func TestSetFieldStagesNumbersAsText(t *testing.T) {
	b := seeded(t)
	b.SetField("price", 1999.5)
	b.SetField("bedrooms", 3)
	b.SetField("name", nil)
	assert.Equal(t, "1999.5", b.Field("price"))
	assert.Equal(t, "3", b.Field("bedrooms"))
	assert.Equal(t, "", b.Field("name"))

	b.SetField("price", "12abc")
	assert.Equal(t, "12abc", b.Field("price"), "no validation at staging time")
}

func TestListOperationsAreBoundsChecked(t *testing.T) {
	b := seeded(t)
	b.AddListItem("features")
	assert.Equal(t, []string{"Wifi", "Pool", ""}, b.List("features"))

	assert.True(t, b.SetListItem("features", 2, "Sauna"))
	assert.False(t, b.SetListItem("features", 3, "Gym"))
	assert.False(t, b.SetListItem("features", -1, "Gym"))
	assert.Equal(t, []string{"Wifi", "Pool", "Sauna"}, b.List("features"))

	assert.True(t, b.RemoveListItem("features", 0))
	assert.False(t, b.RemoveListItem("features", 5))
	assert.Equal(t, []string{"Pool", "Sauna"}, b.List("features"))
}

func TestListReturnsCopy(t *testing.T) {
	b := seeded(t)
	l := b.List("features")
	l[0] = "mutated"
	assert.Equal(t, "Wifi", b.List("features")[0])
}

func TestCommitFiltersBlankListItems(t *testing.T) {
	b := NewBuffer("P1", testSchema)
	b.Seed(1, Form{Lists: map[string][]string{"features": {"Wifi", "", "  ", "Pool"}}})
	p := b.Commit()
	assert.Equal(t, []string{"Wifi", "Pool"}, p.Lists["features"])
	assert.Equal(t, []string{"Wifi", "", "  ", "Pool"}, b.List("features"), "commit must not clear the buffer")
}

func TestCommitEncodeOrder(t *testing.T) {
	b := seeded(t)
	b.SetField("price", 3100)
	b.SetField("extra", "x")
	fields := b.Commit().Encode()
	assert.Equal(t, []model.FormField{
		{Name: "name", Value: "Villa A"},
		{Name: "price", Value: "3100"},
		{Name: "bedrooms", Value: "4"},
		{Name: "extra", Value: "x"},
		{Name: "features", Value: `["Wifi","Pool"]`},
	}, fields)
}

func TestCommitEncodeEmptyList(t *testing.T) {
	b := NewBuffer("P1", testSchema)
	fields := b.Commit().Encode()
	assert.Equal(t, model.FormField{Name: "features", Value: "[]"}, fields[len(fields)-1])
}
