package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
)

func mustSlot(t *testing.T, date, start, end string) Slot {
	t.Helper()
	s, err := ParseSlot(date, start, end)
	if err != nil {
		t.Fatalf("ParseSlot(%s, %s, %s): %v", date, start, end, err)
	}
	return s
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", MinutesPerDay, false},
		{" 10:00 ", 600, false},
		{"8:30am", 0, true},
		{"25:00", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimeOfDay_String(t *testing.T) {
	if s := TimeOfDay(545).String(); s != "09:05" {
		t.Errorf("expected 09:05, got %s", s)
	}
}

func TestNewSlot_Invalid(t *testing.T) {
	d, _ := ParseDate("2026-11-02")
	tests := []struct {
		name       string
		date       Date
		start, end TimeOfDay
	}{
		{"start equals end", d, 600, 600},
		{"start after end", d, 660, 600},
		{"negative start", d, -10, 600},
		{"end past midnight", d, 600, MinutesPerDay + 1},
		{"zero date", Date{}, 600, 660},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSlot(tt.date, tt.start, tt.end)
			if !errors.Is(err, apperr.ErrInvalidSlot) {
				t.Errorf("expected InvalidSlot, got %v", err)
			}
		})
	}
}

func TestParseSlot_BadInputIsInvalidSlot(t *testing.T) {
	inputs := [][3]string{
		{"02/11/2026", "09:00", "10:00"},
		{"2026-11-02", "nine", "10:00"},
		{"2026-11-02", "09:00", "ten"},
	}
	for _, in := range inputs {
		if _, err := ParseSlot(in[0], in[1], in[2]); !errors.Is(err, apperr.ErrInvalidSlot) {
			t.Errorf("ParseSlot%v: expected InvalidSlot, got %v", in, err)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Slot
		want bool
	}{
		{"back to back", mustSlot(t, "2026-11-02", "10:00", "11:00"), mustSlot(t, "2026-11-02", "11:00", "12:00"), false},
		{"partial", mustSlot(t, "2026-11-02", "09:00", "10:00"), mustSlot(t, "2026-11-02", "09:30", "10:30"), true},
		{"contained", mustSlot(t, "2026-11-02", "08:00", "12:00"), mustSlot(t, "2026-11-02", "09:00", "10:00"), true},
		{"disjoint", mustSlot(t, "2026-11-02", "08:00", "09:00"), mustSlot(t, "2026-11-02", "13:00", "14:00"), false},
		{"different dates", mustSlot(t, "2026-11-02", "09:00", "10:00"), mustSlot(t, "2026-11-03", "09:00", "10:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps_SymmetricAndReflexive(t *testing.T) {
	d, _ := ParseDate("2026-11-02")
	var slots []Slot
	for start := TimeOfDay(480); start < 1080; start += 45 {
		for _, length := range []TimeOfDay{15, 60, 75, 180} {
			s, err := NewSlot(d, start, start+length)
			if err != nil {
				t.Fatalf("NewSlot: %v", err)
			}
			slots = append(slots, s)
		}
	}
	for _, a := range slots {
		if !Overlaps(a, a) {
			t.Errorf("slot %s should overlap itself", a)
		}
		for _, b := range slots {
			if Overlaps(a, b) != Overlaps(b, a) {
				t.Errorf("asymmetric overlap for %s and %s", a, b)
			}
		}
	}
}

func TestDate_EqualIgnoresClockAndZone(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	a := NewDate(time.Date(2026, 11, 2, 23, 10, 0, 0, loc))
	b, _ := ParseDate("2026-11-02")
	if !a.Equal(b) {
		t.Errorf("expected %s to equal %s", a, b)
	}
	c, _ := ParseDate("2026-11-03")
	if !b.Before(c) || c.Before(b) {
		t.Error("expected 2026-11-02 to be before 2026-11-03")
	}
}

func TestSlot_JSON(t *testing.T) {
	s := mustSlot(t, "2026-11-02", "08:30", "09:45")
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"date":"2026-11-02","start_time":"08:30","end_time":"09:45"}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
	var back Slot
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != s {
		t.Errorf("expected %+v, got %+v", s, back)
	}
}
