package venues

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

// Toggles are the amenity switches of the filter panel. A false toggle
// places no constraint.
type Toggles struct {
	HasChildSeat       bool `form:"child_seat" json:"child_seat"`
	HasTatamiRoom      bool `form:"tatami" json:"tatami"`
	HasParking         bool `form:"parking" json:"parking"`
	HasNursingRoom     bool `form:"nursing_room" json:"nursing_room"`
	HasDiaperChanging  bool `form:"diaper_changing" json:"diaper_changing"`
	StrollerAccessible bool `form:"stroller" json:"stroller"`
}

// Filter is a free-text query plus amenity toggles, AND-combined.
type Filter struct {
	Query string `form:"q" json:"q"`
	Toggles
}

// IsEmpty reports whether the filter places no constraint at all.
func (f Filter) IsEmpty() bool {
	return strings.TrimSpace(f.Query) == "" && f.Toggles == (Toggles{})
}

// Apply returns the venues matching f in their original order. The input
// slice is not modified.
func Apply(list []models.Venue, f Filter) []models.Venue {
	m := newMatcher(f)
	out := make([]models.Venue, 0, len(list))
	for i := range list {
		if m.match(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// Matches reports whether a single venue satisfies f.
func Matches(v models.Venue, f Filter) bool {
	return newMatcher(f).match(&v)
}

type matcher struct {
	query   string
	toggles Toggles
	folder  cases.Caser
}

func newMatcher(f Filter) matcher {
	folder := cases.Fold()
	return matcher{
		query:   folder.String(strings.TrimSpace(f.Query)),
		toggles: f.Toggles,
		folder:  folder,
	}
}

func (m matcher) match(v *models.Venue) bool {
	if m.query != "" && !m.matchText(v) {
		return false
	}

	t := m.toggles
	switch {
	case t.HasChildSeat && !v.ChildSeats.Any():
		return false
	case t.HasTatamiRoom && !v.HasTatamiRoom:
		return false
	case t.HasParking && !v.HasParking:
		return false
	case t.HasNursingRoom && !v.HasNursingRoom:
		return false
	case t.HasDiaperChanging && !v.HasDiaperChanging:
		return false
	case t.StrollerAccessible && !v.StrollerAccessible:
		return false
	}
	return true
}

func (m matcher) matchText(v *models.Venue) bool {
	for _, field := range []string{v.Name, v.Address, v.Comment} {
		if field == "" {
			continue
		}
		if strings.Contains(m.folder.String(field), m.query) {
			return true
		}
	}
	return false
}
