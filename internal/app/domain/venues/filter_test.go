package venues

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

func names(list []models.Venue) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, v.Name)
	}
	return out
}

func sampleVenues() []models.Venue {
	return []models.Venue{
		{Name: "Cafe Sakura", Address: "Yamagata, Kasumi-cho 1", HasNursingRoom: true, HasParking: true},
		{Name: "Soba House", Address: "Tendo 2-3", HasTatamiRoom: true, Comment: "Kids menu available"},
		{Name: "Family Diner", Address: "Yamagata Station", HasParking: true, StrollerAccessible: true,
			ChildSeats: models.ChildSeats{Has6To18m: true}},
		{Name: "Bakery Mori", Address: "Sagae", HasDiaperChanging: true,
			ChildSeats: models.ChildSeats{Count3yPlus: 4}},
	}
}

func TestApply(t *testing.T) {
	list := sampleVenues()

	t.Run("empty filter returns everything in order", func(t *testing.T) {
		got := Apply(list, Filter{Query: "   "})
		assert.Equal(t, names(list), names(got))
	})

	t.Run("text matches name, address or comment case-insensitively", func(t *testing.T) {
		assert.Equal(t, []string{"Cafe Sakura", "Family Diner"}, names(Apply(list, Filter{Query: "yamagata"})))
		assert.Equal(t, []string{"Soba House"}, names(Apply(list, Filter{Query: "KIDS MENU"})))
		assert.Equal(t, []string{"Bakery Mori"}, names(Apply(list, Filter{Query: " mori "})))
		assert.Empty(t, Apply(list, Filter{Query: "sushi"}))
	})

	t.Run("toggles are AND-combined", func(t *testing.T) {
		got := Apply(list, Filter{Toggles: Toggles{HasParking: true}})
		assert.Equal(t, []string{"Cafe Sakura", "Family Diner"}, names(got))

		got = Apply(list, Filter{Toggles: Toggles{HasParking: true, StrollerAccessible: true}})
		assert.Equal(t, []string{"Family Diner"}, names(got))

		got = Apply(list, Filter{Query: "yamagata", Toggles: Toggles{HasNursingRoom: true}})
		assert.Equal(t, []string{"Cafe Sakura"}, names(got))
	})

	t.Run("child seat toggle looks at band flags only", func(t *testing.T) {
		got := Apply(list, Filter{Toggles: Toggles{HasChildSeat: true}})
		// Bakery Mori has a count but no flag.
		assert.Equal(t, []string{"Family Diner"}, names(got))
	})

	t.Run("each toggle", func(t *testing.T) {
		assert.Equal(t, []string{"Soba House"}, names(Apply(list, Filter{Toggles: Toggles{HasTatamiRoom: true}})))
		assert.Equal(t, []string{"Bakery Mori"}, names(Apply(list, Filter{Toggles: Toggles{HasDiaperChanging: true}})))
		assert.Equal(t, []string{"Cafe Sakura"}, names(Apply(list, Filter{Toggles: Toggles{HasNursingRoom: true}})))
	})

	t.Run("idempotent and commutative", func(t *testing.T) {
		a := Filter{Query: "yamagata"}
		b := Filter{Toggles: Toggles{HasParking: true}}

		once := Apply(list, a)
		assert.Equal(t, once, Apply(once, a))
		assert.Equal(t, Apply(Apply(list, a), b), Apply(Apply(list, b), a))
	})

	t.Run("input is not modified", func(t *testing.T) {
		before := names(list)
		_ = Apply(list, Filter{Query: "soba"})
		assert.Equal(t, before, names(list))
	})
}

func TestApplyUnicode(t *testing.T) {
	list := []models.Venue{
		{Name: "やまがたカフェ", Address: "山形市香澄町"},
		{Name: "STRASSE Café", Address: "Tendo"},
	}
	assert.Equal(t, []string{"やまがたカフェ"}, names(Apply(list, Filter{Query: "山形"})))
	assert.Equal(t, []string{"STRASSE Café"}, names(Apply(list, Filter{Query: "café"})))
}

func TestFilterIsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.True(t, Filter{Query: "  "}.IsEmpty())
	assert.False(t, Filter{Toggles: Toggles{HasParking: true}}.IsEmpty())
	assert.True(t, Matches(models.Venue{Name: "x"}, Filter{}))
}
