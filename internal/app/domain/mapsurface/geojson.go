package mapsurface

import (
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-tekuteku/internal/app/models"
)

var _ Surface = (*GeoJSONSurface)(nil)

// FeatureCollection is the GeoJSON document served to the map SDK, with the
// initial viewport alongside.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	View     View      `json:"view"`
}

type View struct {
	Center  [2]float64 `json:"center"` // lat, lng
	Zoom    int        `json:"zoom"`
	Focused *uuid.UUID `json:"focused,omitempty"`
}

type Feature struct {
	Type       string          `json:"type"`
	Geometry   Point           `json:"geometry"`
	Properties MarkerProperties `json:"properties"`
}

// Point uses GeoJSON order: lng, lat.
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type MarkerProperties struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	DetailURL  string    `json:"detail_url"`
	LikesCount int       `json:"likes_count"`
	Focused    bool      `json:"focused"`

	Chairs []ChairBand `json:"chairs,omitempty"`
	// CountsUnverified is set when a band is marked without a seat count.
	CountsUnverified bool     `json:"counts_unverified"`
	Facilities       []string `json:"facilities,omitempty"`
}

type ChairBand struct {
	Band  string `json:"band"`
	Count int    `json:"count,omitempty"`
}

// GeoJSONSurface builds one FeatureCollection. It is not safe for concurrent
// use; create one per request.
type GeoJSONSurface struct {
	fallback [2]float64
	features []Feature
	focused  *models.Venue
}

func NewGeoJSONSurface(defaultCenter [2]float64) *GeoJSONSurface {
	return &GeoJSONSurface{fallback: defaultCenter}
}

// RenderMarkers replaces the markers, keeping the given order.
func (s *GeoJSONSurface) RenderMarkers(venues []models.Venue) {
	s.features = make([]Feature, 0, len(venues))
	for i := range venues {
		s.features = append(s.features, toFeature(&venues[i]))
	}
	s.markFocus()
}

// Focus pans to v. A nil venue clears the focus.
func (s *GeoJSONSurface) Focus(v *models.Venue) {
	s.focused = v
	s.markFocus()
}

func (s *GeoJSONSurface) Select(sel Selection) (Navigation, error) {
	return Navigate(sel)
}

// Document returns the collection in its current state.
func (s *GeoJSONSurface) Document() FeatureCollection {
	view := View{Zoom: DefaultZoom}
	if s.focused != nil && models.HasValidCoordinates(s.focused.Latitude, s.focused.Longitude) {
		id := s.focused.ID
		view.Center = [2]float64{s.focused.Latitude, s.focused.Longitude}
		view.Zoom = FocusZoom
		view.Focused = &id
	} else {
		points := make([][2]float64, 0, len(s.features))
		for _, f := range s.features {
			points = append(points, [2]float64{f.Geometry.Coordinates[1], f.Geometry.Coordinates[0]})
		}
		lat, lng := models.CenterPoint(points, s.fallback[0], s.fallback[1])
		view.Center = [2]float64{lat, lng}
	}

	features := s.features
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features, View: view}
}

func (s *GeoJSONSurface) markFocus() {
	for i := range s.features {
		s.features[i].Properties.Focused = s.focused != nil && s.features[i].Properties.ID == s.focused.ID
	}
}

func toFeature(v *models.Venue) Feature {
	props := MarkerProperties{
		ID:         v.ID,
		Name:       v.Name,
		Address:    v.Address,
		DetailURL:  "/venues/" + v.ID.String(),
		LikesCount: v.LikesCount,
	}

	bands := []struct {
		has   bool
		count int
		label string
	}{
		{v.Has0To6m, v.Count0To6m, "0-6m"},
		{v.Has6To18m, v.Count6To18m, "6-18m"},
		{v.Has18mTo3y, v.Count18mTo3y, "18m-3y"},
		{v.Has3yPlus, v.Count3yPlus, "3y+"},
	}
	for _, b := range bands {
		if !b.has {
			continue
		}
		props.Chairs = append(props.Chairs, ChairBand{Band: b.label, Count: b.count})
		if b.count == 0 {
			props.CountsUnverified = true
		}
	}

	if v.HasNursingRoom {
		props.Facilities = append(props.Facilities, "nursing_room")
	}
	if v.HasDiaperChanging {
		props.Facilities = append(props.Facilities, "diaper_changing")
	}
	if v.HasTatamiRoom {
		props.Facilities = append(props.Facilities, "tatami_room")
	}
	if v.StrollerAccessible {
		props.Facilities = append(props.Facilities, "stroller")
	}
	if v.HasParking {
		props.Facilities = append(props.Facilities, "parking")
	}

	return Feature{
		Type:       "Feature",
		Geometry:   Point{Type: "Point", Coordinates: [2]float64{v.Longitude, v.Latitude}},
		Properties: props,
	}
}
