package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"student", RoleStudent, true},
		{"INCHARGE", RoleIncharge, true},
		{"BI", RoleIncharge, true},
		{"BuildingIncharge", RoleIncharge, true},
		{"po", RoleAdmin, true},
		{"ADMIN", RoleAdmin, true},
		{"OWNER", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStatus(t *testing.T) {
	if !StatusPending.Active() || !StatusConfirmed.Active() {
		t.Error("pending and confirmed bookings must hold their slot")
	}
	if StatusRejected.Active() {
		t.Error("rejected bookings must not hold their slot")
	}
	if Status("CANCELLED").Valid() {
		t.Error("unknown status must not be valid")
	}
}
