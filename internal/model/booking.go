package model

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// Active reports whether a booking in this status still holds its slot.
// Rejected bookings free the slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a request to use a room for a slot.  It mirrors a row in the
// `bookings` table and is the only booking shape used above the
// repository layer.
//
// Fields:
//  ID          – bookings.id, assigned by the store, never reused.
//  RoomID      – room being booked; the room itself is never embedded.
//  RequesterID – user who asked for the room.
//  Slot        – date_of_booking, start_minute and end_minute.
//  Purpose     – free text supplied by the requester.
//  Status      – PENDING, CONFIRMED or REJECTED.
type Booking struct {
	ID          uint64    `json:"booking_id"`
	RoomID      uint64    `json:"room_id"`
	RequesterID uint64    `json:"requester_id"`
	Slot        Slot      `json:"slot"`
	Purpose     string    `json:"purpose"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookingDetail is a booking joined with the names an approver needs to
// decide on it.
type BookingDetail struct {
	Booking
	RoomName     string `json:"room_name"`
	BuildingID   uint64 `json:"building_id"`
	BuildingName string `json:"building_name"`
}

// BookingFilter narrows a detailed booking list.  A nil InchargeID means
// every building and a nil RequesterID every requester.
type BookingFilter struct {
	InchargeID  *uint64
	RequesterID *uint64
	Status      Status
}
