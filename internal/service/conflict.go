package service

import (
	"sort"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// Conflicts returns the bookings in existing that block requested for
// roomID on date.  Only active bookings (PENDING or CONFIRMED) for the same
// room and day are considered; rejected bookings never block.  The result
// is ordered by start time.
func Conflicts(roomID uint64, date model.Date, requested model.Slot, existing []model.Booking) []model.Booking {
	req := requested
	req.Date = date

	var out []model.Booking
	for _, b := range existing {
		if b.RoomID != roomID || !b.Slot.Date.Equal(date) || !b.Status.Active() {
			continue
		}
		if model.Overlaps(b.Slot, req) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.Start < out[j].Slot.Start })
	return out
}

// IsAvailable reports whether requested can be booked in roomID on date
// given the freshly read existing bookings.
func IsAvailable(roomID uint64, date model.Date, requested model.Slot, existing []model.Booking) bool {
	return len(Conflicts(roomID, date, requested, existing)) == 0
}
