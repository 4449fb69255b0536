package service

import (
	"errors"
	"testing"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
	"github.com/iliyamo/campus-room-booking/internal/model"
)

func booking(t *testing.T, id, room uint64, date, start, end string, status model.Status) model.Booking {
	t.Helper()
	s, err := model.ParseSlot(date, start, end)
	if err != nil {
		t.Fatalf("ParseSlot: %v", err)
	}
	return model.Booking{ID: id, RoomID: room, Slot: s, Status: status}
}

func TestIsAvailable(t *testing.T) {
	req, _ := model.ParseSlot("2026-11-02", "09:30", "10:30")
	date := req.Date

	tests := []struct {
		name     string
		existing []model.Booking
		want     bool
	}{
		{"no bookings", nil, true},
		{"pending overlap", []model.Booking{booking(t, 1, 11, "2026-11-02", "09:00", "10:00", model.StatusPending)}, false},
		{"confirmed overlap", []model.Booking{booking(t, 1, 11, "2026-11-02", "10:00", "11:00", model.StatusConfirmed)}, false},
		{"rejected identical slot", []model.Booking{booking(t, 1, 11, "2026-11-02", "09:30", "10:30", model.StatusRejected)}, true},
		{"ends when requested starts", []model.Booking{booking(t, 1, 11, "2026-11-02", "08:30", "09:30", model.StatusConfirmed)}, true},
		{"other room", []model.Booking{booking(t, 1, 12, "2026-11-02", "09:00", "10:00", model.StatusPending)}, true},
		{"other date", []model.Booking{booking(t, 1, 11, "2026-11-03", "09:00", "10:00", model.StatusPending)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable(11, date, req, tt.existing); got != tt.want {
				t.Errorf("IsAvailable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConflicts_SortedByStart(t *testing.T) {
	req, _ := model.ParseSlot("2026-11-02", "08:00", "18:00")
	existing := []model.Booking{
		booking(t, 3, 11, "2026-11-02", "14:00", "15:00", model.StatusPending),
		booking(t, 1, 11, "2026-11-02", "09:00", "10:00", model.StatusConfirmed),
		booking(t, 2, 11, "2026-11-02", "11:00", "12:00", model.StatusRejected),
	}
	got := Conflicts(11, req.Date, req, existing)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("expected bookings 1 and 3 in order, got %+v", got)
	}
}

func TestTransition(t *testing.T) {
	statuses := []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusRejected, "CANCELLED"}
	allowed := map[[2]model.Status]bool{
		{model.StatusPending, model.StatusConfirmed}: true,
		{model.StatusPending, model.StatusRejected}:  true,
	}
	for _, from := range statuses[:3] {
		for _, to := range statuses {
			err := Transition(from, to)
			if allowed[[2]model.Status{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s: unexpected error %v", from, to, err)
				}
				continue
			}
			if !errors.Is(err, apperr.ErrInvalidTransition) {
				t.Errorf("%s -> %s: expected InvalidTransition, got %v", from, to, err)
			}
		}
	}
}
