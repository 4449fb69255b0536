package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

var bookingCols = []string{"id", "room_id", "requester_id", "date_of_booking", "start_minute", "end_minute", "purpose", "status", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var (
	day     = time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	created = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
)

func newBooking(t *testing.T) *model.Booking {
	t.Helper()
	s, err := model.ParseSlot("2026-11-02", "09:00", "10:00")
	if err != nil {
		t.Fatalf("ParseSlot: %v", err)
	}
	return &model.Booking{RoomID: 11, RequesterID: 7, Slot: s, Purpose: "seminar", Status: model.StatusPending}
}

func TestBookingRepo_Insert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	b := newBooking(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM rooms WHERE id = ? FOR UPDATE")).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(q("SELECT id FROM bookings WHERE room_id = ? AND date_of_booking = ?")).
		WithArgs(11, "2026-11-02", 600, 540).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(q("INSERT INTO bookings")).
		WithArgs(11, 7, "2026-11-02", 540, 600, "seminar", "PENDING").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(q("FROM bookings b WHERE b.id = ?")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(42, 11, 7, day, 540, 600, "seminar", "PENDING", created, created))
	mock.ExpectCommit()

	if err := repo.Insert(context.Background(), b); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if b.ID != 42 || !b.CreatedAt.Equal(created) || b.Slot.Start != 540 || b.Slot.Date.String() != "2026-11-02" {
		t.Errorf("unexpected stored booking %+v", b)
	}
}

func TestBookingRepo_InsertOverlapRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	b := newBooking(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(q("SELECT id FROM bookings")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectRollback()

	if err := repo.Insert(context.Background(), b); !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	if b.ID != 0 {
		t.Error("failed insert must not assign an id")
	}
}

func TestBookingRepo_InsertUnknownRoom(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if err := repo.Insert(context.Background(), newBooking(t)); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestBookingRepo_FindByRoomAndDate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(q("WHERE b.room_id = ? AND b.date_of_booking = ?")).
		WithArgs(11, "2026-11-02").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(1, 11, 7, day, 540, 600, "a", "CONFIRMED", created, created).
			AddRow(2, 11, 8, day, 600, 660, "b", "REJECTED", created, created))

	got, err := repo.FindByRoomAndDate(context.Background(), 11, model.NewDate(day))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].Status != model.StatusConfirmed || got[1].Slot.End != 660 {
		t.Errorf("unexpected bookings %+v", got)
	}
}

func TestBookingRepo_FindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(q("FROM bookings b WHERE b.id = ?")).WithArgs(9).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	if _, err := repo.FindByID(context.Background(), 9); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestBookingRepo_UpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "applied",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(q("UPDATE bookings SET status = ? WHERE id = ? AND status = ?")).
					WithArgs("CONFIRMED", 5, "PENDING").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "lost race",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(q("UPDATE bookings")).WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectQuery(q("SELECT status FROM bookings WHERE id = ?")).WithArgs(5).
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("REJECTED"))
			},
			wantErr: ErrStatusChanged,
		},
		{
			name: "missing",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(q("UPDATE bookings")).WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectQuery(q("SELECT status FROM bookings WHERE id = ?")).WithArgs(5).
					WillReturnRows(sqlmock.NewRows([]string{"status"}))
			},
			wantErr: ErrBookingNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.setup(mock)
			err := NewBookingRepo(db).UpdateStatus(context.Background(), 5, model.StatusPending, model.StatusConfirmed)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBookingRepo_ListDetailedForIncharge(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	cols := append(append([]string{}, bookingCols...), "room_name", "building_id", "building_name")
	mock.ExpectQuery(q("JOIN building_incharges bi ON bi.building_id = bl.id AND bi.user_id = ?")).
		WithArgs(100, "PENDING").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(8, 11, 7, day, 540, 600, "a", "PENDING", created, created, "MTC-11", 1, "Tabba"))

	id := uint64(100)
	got, err := repo.ListDetailed(context.Background(), model.BookingFilter{InchargeID: &id, Status: model.StatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != 8 || got[0].RoomName != "MTC-11" || got[0].BuildingName != "Tabba" {
		t.Errorf("unexpected details %+v", got)
	}
}

func TestBookingRepo_ListDetailedForRequester(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	cols := append(append([]string{}, bookingCols...), "room_name", "building_id", "building_name")
	mock.ExpectQuery(q("WHERE b.requester_id = ? AND b.status = ?")).
		WithArgs(7, "CONFIRMED").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, 12, 7, day, 600, 660, "b", "CONFIRMED", created, created, "MTC-12", 1, "Tabba"))

	id := uint64(7)
	got, err := repo.ListDetailed(context.Background(), model.BookingFilter{RequesterID: &id, Status: model.StatusConfirmed})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].RequesterID != 7 || got[0].RoomName != "MTC-12" {
		t.Errorf("unexpected details %+v", got)
	}
}

func TestBookingRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectExec(q("DELETE FROM bookings WHERE id = ?")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM bookings WHERE id = ?")).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(context.Background(), 3); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestRoomRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(q("FROM rooms r WHERE r.id = ?")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "building_id"}).AddRow(11, "MTC-11", "CLASSROOM", 1))
	mock.ExpectQuery(q("FROM rooms r WHERE r.id = ?")).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "building_id"}))
	mock.ExpectQuery(q("SELECT 1 FROM buildings WHERE id = ?")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery(q("SELECT 1 FROM buildings WHERE id = ?")).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q("WHERE r.building_id = ?")).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "building_id"}).
			AddRow(11, "MTC-11", "CLASSROOM", 1).
			AddRow(12, "MTC-12", "BREAKOUT", 1))

	room, err := repo.GetRoom(ctx, 11)
	if err != nil || room.Name != "MTC-11" {
		t.Fatalf("GetRoom: %+v, %v", room, err)
	}
	if _, err := repo.GetRoom(ctx, 99); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
	if _, err := repo.ListRoomsInBuilding(ctx, 5); !errors.Is(err, ErrBuildingNotFound) {
		t.Errorf("expected ErrBuildingNotFound, got %v", err)
	}
	rooms, err := repo.ListRoomsInBuilding(ctx, 1)
	if err != nil || len(rooms) != 2 {
		t.Errorf("expected 2 rooms, got %+v (%v)", rooms, err)
	}
}

func TestBuildingAuthorizer(t *testing.T) {
	db, mock := newMock(t)
	authz := NewBuildingAuthorizer(db)
	ctx := context.Background()
	b := model.Booking{ID: 1, RoomID: 11}

	ok, err := authz.CanManageBooking(ctx, model.Actor{ID: 1, Role: model.RoleAdmin}, b)
	if err != nil || !ok {
		t.Errorf("admin must manage every booking, got %v (%v)", ok, err)
	}
	ok, err = authz.CanManageBooking(ctx, model.Actor{ID: 7, Role: model.RoleStudent}, b)
	if err != nil || ok {
		t.Errorf("students manage nothing, got %v (%v)", ok, err)
	}

	mock.ExpectQuery(q("JOIN building_incharges bi")).WithArgs(11, 100).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q("JOIN building_incharges bi")).WithArgs(11, 101).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	if ok, err := authz.CanManageBooking(ctx, model.Actor{ID: 100, Role: model.RoleIncharge}, b); err != nil || !ok {
		t.Errorf("assigned incharge should manage the booking, got %v (%v)", ok, err)
	}
	if ok, err := authz.CanManageBooking(ctx, model.Actor{ID: 101, Role: model.RoleIncharge}, b); err != nil || ok {
		t.Errorf("unassigned incharge must not manage the booking, got %v (%v)", ok, err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in          error
		unavailable bool
	}{
		{driver.ErrBadConn, true},
		{mysql.ErrInvalidConn, true},
		{&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{&mysql.MySQLError{Number: 1064, Message: "syntax"}, false},
		{context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := errors.Is(classify(tt.in), ErrUnavailable); got != tt.unavailable {
			t.Errorf("classify(%v) unavailable = %v, want %v", tt.in, got, tt.unavailable)
		}
	}
	if !errors.Is(classify(context.DeadlineExceeded), context.DeadlineExceeded) {
		t.Error("context errors must pass through")
	}
}
