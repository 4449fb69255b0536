package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// BookingRepo persists bookings in the bookings table.  Slots are stored as
// date_of_booking plus start_minute/end_minute (minutes since midnight) so
// overlap checks are plain integer comparisons in SQL.  All timestamp
// fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.room_id, b.requester_id, b.date_of_booking, b.start_minute, b.end_minute, b.purpose, b.status, b.created_at, b.updated_at`

// scanBooking is the single place a bookings row becomes a model.Booking.
// extra receives any additional selected columns after the booking ones.
func scanBooking(s rowScanner, extra ...any) (model.Booking, error) {
	var (
		b          model.Booking
		day        time.Time
		start, end int
		status     string
	)
	dest := append([]any{
		&b.ID, &b.RoomID, &b.RequesterID, &day, &start, &end,
		&b.Purpose, &status, &b.CreatedAt, &b.UpdatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return model.Booking{}, err
	}
	b.Slot = model.Slot{Date: model.NewDate(day), Start: model.TimeOfDay(start), End: model.TimeOfDay(end)}
	b.Status = model.Status(status)
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, b)
	}
	return out, classify(rows.Err())
}

// Insert stores a new booking.  Within one transaction it locks the room
// row (SELECT ... FOR UPDATE), which serialises concurrent inserts for the
// same room across every application instance, re-checks for an active
// booking with an overlapping slot and only then inserts.  ErrOverlap is
// returned when the re-check finds one and ErrRoomNotFound when the room
// does not exist.  On success b is populated with the generated id and
// timestamps.  Nothing is written unless the whole sequence commits.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var roomID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, b.RoomID).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return classify(err)
	}

	const overlapQ = `SELECT id FROM bookings
		WHERE room_id = ? AND date_of_booking = ? AND status IN ('PENDING','CONFIRMED')
		  AND start_minute < ? AND end_minute > ?
		LIMIT 1`
	var clash uint64
	err = tx.QueryRowContext(ctx, overlapQ, b.RoomID, b.Slot.Date.String(), int(b.Slot.End), int(b.Slot.Start)).Scan(&clash)
	switch {
	case err == nil:
		return ErrOverlap
	case !errors.Is(err, sql.ErrNoRows):
		return classify(err)
	}

	const ins = `INSERT INTO bookings (room_id, requester_id, date_of_booking, start_minute, end_minute, purpose, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins,
		b.RoomID, b.RequesterID, b.Slot.Date.String(), int(b.Slot.Start), int(b.Slot.End), b.Purpose, string(b.Status))
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify(err)
	}

	// Query back the full row to populate timestamps and defaults
	stored, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id))
	if err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	*b = stored
	return nil
}

// FindByRoomAndDate returns every booking of a room on a day, in any
// status, ordered by start time.
func (r *BookingRepo) FindByRoomAndDate(ctx context.Context, roomID uint64, date model.Date) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.room_id = ? AND b.date_of_booking = ?
		ORDER BY b.start_minute, b.id`
	rows, err := r.db.QueryContext(ctx, q, roomID, date.String())
	if err != nil {
		return nil, classify(err)
	}
	return collectBookings(rows)
}

// FindByID returns a booking or ErrBookingNotFound.
func (r *BookingRepo) FindByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

// UpdateStatus sets the status of a booking only while it is still in
// status from.  A booking that moved on in the meantime yields
// ErrStatusChanged; a missing one ErrBookingNotFound.
func (r *BookingRepo) UpdateStatus(ctx context.Context, bookingID uint64, from, to model.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		string(to), bookingID, string(from))
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return classify(err)
	}
	return ErrStatusChanged
}

// FindByRequester returns the bookings a user asked for, most recent day
// first.
func (r *BookingRepo) FindByRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.requester_id = ?
		ORDER BY b.date_of_booking DESC, b.start_minute DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, requesterID)
	if err != nil {
		return nil, classify(err)
	}
	return collectBookings(rows)
}

// ListDetailed returns bookings joined with their room and building names,
// newest first.  When filter.InchargeID is set only rooms in buildings
// assigned to that incharge are included; filter.RequesterID keeps one
// requester's bookings.
func (r *BookingRepo) ListDetailed(ctx context.Context, filter model.BookingFilter) ([]model.BookingDetail, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + bookingColumns + `, r.name, bl.id, bl.name
		FROM bookings b
		JOIN rooms r ON r.id = b.room_id
		JOIN buildings bl ON bl.id = r.building_id`)
	if filter.InchargeID != nil {
		sb.WriteString(`
		JOIN building_incharges bi ON bi.building_id = bl.id AND bi.user_id = ?`)
		args = append(args, *filter.InchargeID)
	}
	var where []string
	if filter.RequesterID != nil {
		where = append(where, "b.requester_id = ?")
		args = append(args, *filter.RequesterID)
	}
	if filter.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(filter.Status))
	}
	if len(where) > 0 {
		sb.WriteString(`
		WHERE ` + strings.Join(where, " AND "))
	}
	sb.WriteString(`
		ORDER BY b.id DESC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.BookingDetail{}
	for rows.Next() {
		var d model.BookingDetail
		b, err := scanBooking(rows, &d.RoomName, &d.BuildingID, &d.BuildingName)
		if err != nil {
			return nil, classify(err)
		}
		d.Booking = b
		out = append(out, d)
	}
	return out, classify(rows.Err())
}

// Delete removes a booking row.  ErrBookingNotFound is returned when no
// row matched.
func (r *BookingRepo) Delete(ctx context.Context, bookingID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bookingID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
