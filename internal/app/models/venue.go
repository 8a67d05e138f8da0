package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SeatBand identifies one child seat age band.
type SeatBand string

const (
	Band0To6Months   SeatBand = "0_6m"
	Band6To18Months  SeatBand = "6_18m"
	Band18MonthsTo3Y SeatBand = "18m_3y"
	Band3YearsPlus   SeatBand = "3y_plus"
)

// SeatBands lists the bands in display order.
var SeatBands = []SeatBand{Band0To6Months, Band6To18Months, Band18MonthsTo3Y, Band3YearsPlus}

// ChildSeats holds availability and count per age band.
type ChildSeats struct {
	Has0To6m   bool `json:"has_chair_0_6m" db:"has_chair_0_6m"`
	Has6To18m  bool `json:"has_chair_6_18m" db:"has_chair_6_18m"`
	Has18mTo3y bool `json:"has_chair_18m_3y" db:"has_chair_18m_3y"`
	Has3yPlus  bool `json:"has_chair_3y_plus" db:"has_chair_3y_plus"`

	Count0To6m   int `json:"chair_count_0_6m" db:"chair_count_0_6m"`
	Count6To18m  int `json:"chair_count_6_18m" db:"chair_count_6_18m"`
	Count18mTo3y int `json:"chair_count_18m_3y" db:"chair_count_18m_3y"`
	Count3yPlus  int `json:"chair_count_3y_plus" db:"chair_count_3y_plus"`
}

// Any reports whether any band has a seat. Counts are not consulted.
func (s ChildSeats) Any() bool {
	return s.Has0To6m || s.Has6To18m || s.Has18mTo3y || s.Has3yPlus
}

// Venue is a child-friendly place listed on the map.
type Venue struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Address       string    `json:"address" db:"address"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	BusinessHours string    `json:"business_hours" db:"business_hours"`

	HasNursingRoom       bool   `json:"has_nursing_room" db:"has_nursing_room"`
	NursingRoomDetail    string `json:"nursing_room_detail" db:"nursing_room_detail"`
	HasDiaperChanging    bool   `json:"has_diaper_changing" db:"has_diaper_changing"`
	DiaperChangingDetail string `json:"diaper_changing_detail" db:"diaper_changing_detail"`
	HasTatamiRoom        bool   `json:"has_tatami_room" db:"has_tatami_room"`
	HasPrivateRoom       bool   `json:"has_private_room" db:"has_private_room"`
	PrivateRoomDetail    string `json:"private_room_detail" db:"private_room_detail"`
	StrollerAccessible   bool   `json:"stroller_accessible" db:"stroller_accessible"`
	HasParking           bool   `json:"has_parking" db:"has_parking"`
	ParkingDetail        string `json:"parking_detail" db:"parking_detail"`

	ChildSeats

	// Comment is free text; empty means absent.
	Comment string `json:"comment,omitempty" db:"comment"`

	PostedBy   *uuid.UUID `json:"posted_by,omitempty" db:"posted_by"`
	DeviceID   *string    `json:"device_id,omitempty" db:"device_id"`
	LikesCount int        `json:"likes_count" db:"likes_count"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Coordinates returns the venue position.
func (v Venue) Coordinates() Coordinates {
	return Coordinates{Latitude: v.Latitude, Longitude: v.Longitude}
}

// OwnedBy reports whether the user posted this venue.
func (v Venue) OwnedBy(userID uuid.UUID) bool {
	return v.PostedBy != nil && userID != uuid.Nil && *v.PostedBy == userID
}

// EditableBy reports whether the actor may edit the venue: admins always,
// otherwise the posting user or device.
func (v Venue) EditableBy(a Actor) bool {
	if a.IsAdmin || v.OwnedBy(a.UserID) {
		return true
	}
	return a.DeviceID != "" && v.DeviceID != nil && *v.DeviceID == a.DeviceID
}

// VenueInput is the editable field set submitted by the add and edit forms.
type VenueInput struct {
	Name          string  `json:"name" binding:"required"`
	Address       string  `json:"address" binding:"required"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	BusinessHours string  `json:"business_hours"`

	HasNursingRoom       bool   `json:"has_nursing_room"`
	NursingRoomDetail    string `json:"nursing_room_detail"`
	HasDiaperChanging    bool   `json:"has_diaper_changing"`
	DiaperChangingDetail string `json:"diaper_changing_detail"`
	HasTatamiRoom        bool   `json:"has_tatami_room"`
	HasPrivateRoom       bool   `json:"has_private_room"`
	PrivateRoomDetail    string `json:"private_room_detail"`
	StrollerAccessible   bool   `json:"stroller_accessible"`
	HasParking           bool   `json:"has_parking"`
	ParkingDetail        string `json:"parking_detail"`

	// HasChildChair is the manual "child seats present" flag; it marks every
	// band as available even when no count is known.
	HasChildChair bool `json:"has_child_chair"`

	ChairCount0To6m   int `json:"chair_count_0_6m"`
	ChairCount6To18m  int `json:"chair_count_6_18m"`
	ChairCount18mTo3y int `json:"chair_count_18m_3y"`
	ChairCount3yPlus  int `json:"chair_count_3y_plus"`

	Comment string `json:"comment"`
}

// Normalize trims the free-text fields in place.
func (in *VenueInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Comment = strings.TrimSpace(in.Comment)
	in.BusinessHours = strings.TrimSpace(in.BusinessHours)
}

// Validate checks required fields and count ranges.
func (in VenueInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Address) == "" {
		return fmt.Errorf("name and address are required: %w", ErrValidation)
	}
	for _, c := range []int{in.ChairCount0To6m, in.ChairCount6To18m, in.ChairCount18mTo3y, in.ChairCount3yPlus} {
		if c < 0 {
			return fmt.Errorf("chair counts cannot be negative: %w", ErrValidation)
		}
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}

// Coordinates returns the coordinates picked on the map, if any.
func (in VenueInput) Coordinates() Coordinates {
	return Coordinates{Latitude: in.Latitude, Longitude: in.Longitude}
}

// Seats derives the per-band flags: a band is available when its count is
// positive or the manual flag is set.
func (in VenueInput) Seats() ChildSeats {
	return ChildSeats{
		Has0To6m:     in.HasChildChair || in.ChairCount0To6m > 0,
		Has6To18m:    in.HasChildChair || in.ChairCount6To18m > 0,
		Has18mTo3y:   in.HasChildChair || in.ChairCount18mTo3y > 0,
		Has3yPlus:    in.HasChildChair || in.ChairCount3yPlus > 0,
		Count0To6m:   in.ChairCount0To6m,
		Count6To18m:  in.ChairCount6To18m,
		Count18mTo3y: in.ChairCount18mTo3y,
		Count3yPlus:  in.ChairCount3yPlus,
	}
}

// ToVenue builds a venue row from the input at the given coordinates.
func (in VenueInput) ToVenue(at Coordinates) Venue {
	return Venue{
		Name:                 in.Name,
		Address:              in.Address,
		Latitude:             at.Latitude,
		Longitude:            at.Longitude,
		BusinessHours:        in.BusinessHours,
		HasNursingRoom:       in.HasNursingRoom,
		NursingRoomDetail:    in.NursingRoomDetail,
		HasDiaperChanging:    in.HasDiaperChanging,
		DiaperChangingDetail: in.DiaperChangingDetail,
		HasTatamiRoom:        in.HasTatamiRoom,
		HasPrivateRoom:       in.HasPrivateRoom,
		PrivateRoomDetail:    in.PrivateRoomDetail,
		StrollerAccessible:   in.StrollerAccessible,
		HasParking:           in.HasParking,
		ParkingDetail:        in.ParkingDetail,
		ChildSeats:           in.Seats(),
		Comment:              in.Comment,
	}
}

// Actor is whoever performs a write: a signed-in user, a device, or both.
type Actor struct {
	UserID   uuid.UUID
	DeviceID string
	IsAdmin  bool
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool {
	return a.UserID != uuid.Nil
}

// Identified reports whether the actor carries a user or a device identity.
func (a Actor) Identified() bool {
	return a.Authenticated() || a.DeviceID != ""
}
