// Package queue defines the booking domain events exchanged over the
// message broker, the publisher used by the booking service and the audit
// consumer that writes them to disk.
package queue

import (
	"strings"
	"time"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// Routing keys on the booking events exchange.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventBookingDeleted   = "booking.deleted"
)

// BookingEvent is published whenever a booking is created, changes status
// or is removed by an administrator.  It carries enough information for
// downstream consumers to log, notify or trigger analytics without
// querying the primary database.
type BookingEvent struct {
	Type        string       `json:"type"`
	BookingID   uint64       `json:"booking_id"`
	RoomID      uint64       `json:"room_id"`
	RequesterID uint64       `json:"requester_id"`
	ActorID     uint64       `json:"actor_id"`
	Date        string       `json:"date"`
	StartTime   string       `json:"start_time"`
	EndTime     string       `json:"end_time"`
	Status      model.Status `json:"status"`
	Purpose     string       `json:"purpose,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// NewBookingEvent snapshots b for the given event type.
func NewBookingEvent(typ string, b model.Booking, actorID uint64, at time.Time) BookingEvent {
	return BookingEvent{
		Type:        typ,
		BookingID:   b.ID,
		RoomID:      b.RoomID,
		RequesterID: b.RequesterID,
		ActorID:     actorID,
		Date:        b.Slot.Date.String(),
		StartTime:   b.Slot.Start.String(),
		EndTime:     b.Slot.End.String(),
		Status:      b.Status,
		Purpose:     b.Purpose,
		OccurredAt:  at.UTC(),
	}
}

// StatusEventType returns the routing key for a status change into s.
func StatusEventType(s model.Status) string {
	switch s {
	case model.StatusConfirmed:
		return EventBookingConfirmed
	case model.StatusRejected:
		return EventBookingRejected
	}
	return "booking." + strings.ToLower(string(s))
}
