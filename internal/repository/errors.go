// Package repository contains the MySQL implementations of the room
// directory, booking store and authorization provider.  The sentinel
// values below let the service layer distinguish failure scenarios
// without depending on driver specifics.  For example, ErrOverlap
// indicates that the write-time re-check found an active booking for the
// same room and an overlapping slot, while ErrStatusChanged signals that a
// conditional status update lost a race with another approver.
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// ErrRoomNotFound is returned when a room lookup finds no row.
var ErrRoomNotFound = errors.New("room not found")

// ErrBuildingNotFound is returned when a building lookup finds no row.
var ErrBuildingNotFound = errors.New("building not found")

// ErrBookingNotFound is returned when a booking lookup finds no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrOverlap is returned by Insert when an active booking with an
// overlapping slot already exists for the room.
var ErrOverlap = errors.New("overlapping booking exists")

// ErrStatusChanged is returned by UpdateStatus when the booking is no
// longer in the expected status.
var ErrStatusChanged = errors.New("booking status changed")

// ErrUnavailable wraps connection-level failures (refused, reset, bad
// connection).  Callers may retry reads that fail with it.
var ErrUnavailable = errors.New("store unavailable")

// mysql error numbers we react to.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// classify wraps connection-level failures in ErrUnavailable and leaves
// everything else untouched.  Context errors pass through so callers can
// tell a timeout from an outage.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == errLockWaitTimeout || myErr.Number == errDeadlock) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
