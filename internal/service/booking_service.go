// Package service holds the booking core: the availability decision, the
// status lifecycle and BookingService, the only write path for bookings.
// The service knows nothing about HTTP or SQL; it talks to its
// collaborators through the interfaces declared here and reports failures
// as *apperr.Error values.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
	"github.com/iliyamo/campus-room-booking/internal/lock"
	"github.com/iliyamo/campus-room-booking/internal/model"
	"github.com/iliyamo/campus-room-booking/internal/queue"
	"github.com/iliyamo/campus-room-booking/internal/repository"
)

// RoomDirectory resolves rooms.  GetRoom returns repository.ErrRoomNotFound
// for unknown ids; ListRoomsInBuilding returns
// repository.ErrBuildingNotFound for unknown buildings.
type RoomDirectory interface {
	GetRoom(ctx context.Context, roomID uint64) (*model.Room, error)
	ListRoomsInBuilding(ctx context.Context, buildingID uint64) ([]model.Room, error)
}

// BookingStore persists bookings.
//
// Insert assigns ID and timestamps and must re-check for overlapping
// active bookings atomically with the write, returning
// repository.ErrOverlap when one exists.  UpdateStatus only succeeds while
// the row is still in status from; otherwise it returns
// repository.ErrStatusChanged.
type BookingStore interface {
	Insert(ctx context.Context, b *model.Booking) error
	FindByRoomAndDate(ctx context.Context, roomID uint64, date model.Date) ([]model.Booking, error)
	FindByID(ctx context.Context, bookingID uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uint64, from, to model.Status) error
	FindByRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error)
	ListDetailed(ctx context.Context, filter model.BookingFilter) ([]model.BookingDetail, error)
	Delete(ctx context.Context, bookingID uint64) error
}

// Authorizer decides whether an actor may approve or reject a booking.
type Authorizer interface {
	CanManageBooking(ctx context.Context, actor model.Actor, b model.Booking) (bool, error)
}

// EventPublisher delivers booking domain events.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// Options tunes a BookingService.  Zero values select defaults.
type Options struct {
	StoreTimeout time.Duration    // bound on every store call, default 3s
	RetryBackoff time.Duration    // pause before the single read retry, default 100ms
	Locker       lock.Locker      // per-room lock, default in-process
	Events       EventPublisher   // optional
	Logger       *zap.Logger      // default no-op
	Clock        func() time.Time // default time.Now
}

// BookingService orchestrates availability checks, creation and status
// transitions.  It is safe for concurrent use.
type BookingService struct {
	rooms    RoomDirectory
	bookings BookingStore
	authz    Authorizer
	locker   lock.Locker
	events   EventPublisher
	log      *zap.Logger
	now      func() time.Time
	timeout  time.Duration
	backoff  time.Duration
}

// NewBookingService wires the service.  rooms, bookings and authz must be
// non-nil.
func NewBookingService(rooms RoomDirectory, bookings BookingStore, authz Authorizer, opts Options) *BookingService {
	if rooms == nil || bookings == nil || authz == nil {
		panic("nil dependency passed to NewBookingService")
	}
	s := &BookingService{
		rooms:    rooms,
		bookings: bookings,
		authz:    authz,
		locker:   opts.Locker,
		events:   opts.Events,
		log:      opts.Logger,
		now:      opts.Clock,
		timeout:  opts.StoreTimeout,
		backoff:  opts.RetryBackoff,
	}
	if s.locker == nil {
		s.locker = lock.NewMemory()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.timeout <= 0 {
		s.timeout = 3 * time.Second
	}
	if s.backoff <= 0 {
		s.backoff = 100 * time.Millisecond
	}
	return s
}

// ListAvailableRooms returns the rooms of buildingID that are free for
// slot.  Each room is checked against its freshly read bookings; nothing is
// cached between calls.
func (s *BookingService) ListAvailableRooms(ctx context.Context, actor model.Actor, buildingID uint64, slot model.Slot) ([]model.Room, error) {
	if err := s.validateSlot(slot); err != nil {
		return nil, err
	}
	var rooms []model.Room
	err := s.read(ctx, "list_rooms", func(ctx context.Context) (err error) {
		rooms, err = s.rooms.ListRoomsInBuilding(ctx, buildingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	free := make([]model.Room, 0, len(rooms))
	for _, room := range rooms {
		var existing []model.Booking
		err := s.read(ctx, "find_bookings", func(ctx context.Context) (err error) {
			existing, err = s.bookings.FindByRoomAndDate(ctx, room.ID, slot.Date)
			return err
		})
		if err != nil {
			return nil, err
		}
		if IsAvailable(room.ID, slot.Date, slot, existing) {
			free = append(free, room)
		}
	}
	s.log.Debug("availability search",
		zap.Uint64("actor_id", actor.ID),
		zap.Uint64("building_id", buildingID),
		zap.Stringer("slot", slot),
		zap.Int("rooms", len(rooms)),
		zap.Int("free", len(free)))
	return free, nil
}

// Create books roomID for slot on behalf of actor.  The check-then-insert
// sequence runs under the room's lock and the store re-checks overlap
// inside its write transaction, so concurrent overlapping requests yield
// exactly one booking.  The write is never retried.
func (s *BookingService) Create(ctx context.Context, actor model.Actor, roomID uint64, slot model.Slot, purpose string) (model.Booking, error) {
	if actor.ID == 0 {
		return model.Booking{}, apperr.Unauthorized("missing actor")
	}
	if err := s.validateSlot(slot); err != nil {
		return model.Booking{}, err
	}
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return model.Booking{}, apperr.New(apperr.KindInvalidInput, "purpose is required")
	}

	if err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.rooms.GetRoom(ctx, roomID)
		return err
	}); err != nil {
		return model.Booking{}, err
	}

	b := model.Booking{
		RoomID:      roomID,
		RequesterID: actor.ID,
		Slot:        slot,
		Purpose:     purpose,
		Status:      model.StatusPending,
	}
	if err := s.insertLocked(ctx, &b); err != nil {
		return model.Booking{}, err
	}

	s.log.Info("booking created",
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("room_id", roomID),
		zap.Uint64("actor_id", actor.ID),
		zap.Stringer("slot", slot))
	s.publish(ctx, queue.NewBookingEvent(queue.EventBookingCreated, b, actor.ID, s.now()))
	return b, nil
}

// insertLocked runs the read-decide-insert sequence for b under its room's
// lock.  The lock is released as soon as the insert returns so that event
// publishing never holds up other requests for the room.
func (s *BookingService) insertLocked(ctx context.Context, b *model.Booking) error {
	unlock, err := s.lockRoom(ctx, b.RoomID)
	if err != nil {
		return err
	}
	defer unlock()

	var existing []model.Booking
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		existing, err = s.bookings.FindByRoomAndDate(ctx, b.RoomID, b.Slot.Date)
		return err
	}); err != nil {
		return err
	}
	if blocking := Conflicts(b.RoomID, b.Slot.Date, b.Slot, existing); len(blocking) > 0 {
		c := blocking[0]
		return apperr.SlotConflict(fmt.Sprintf(
			"room %d is already booked from %s to %s on %s", b.RoomID, c.Slot.Start, c.Slot.End, c.Slot.Date))
	}
	return s.call(ctx, func(ctx context.Context) error {
		return s.bookings.Insert(ctx, b)
	})
}

// SetStatus moves a booking to newStatus on behalf of an approver.  The
// booking is loaded, the actor authorized, the transition validated and
// finally persisted with a conditional update so that two approvers racing
// on the same booking cannot both succeed.
func (s *BookingService) SetStatus(ctx context.Context, actor model.Actor, bookingID uint64, newStatus model.Status) (model.Booking, error) {
	var b *model.Booking
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		b, err = s.bookings.FindByID(ctx, bookingID)
		return err
	}); err != nil {
		return model.Booking{}, err
	}

	if err := s.authorize(ctx, actor, *b); err != nil {
		return model.Booking{}, err
	}
	if err := Transition(b.Status, newStatus); err != nil {
		return model.Booking{}, err
	}

	from := b.Status
	if err := s.call(ctx, func(ctx context.Context) error {
		return s.bookings.UpdateStatus(ctx, bookingID, from, newStatus)
	}); err != nil {
		return model.Booking{}, err
	}
	b.Status = newStatus
	b.UpdatedAt = s.now().UTC()

	s.log.Info("booking status changed",
		zap.Uint64("booking_id", bookingID),
		zap.Uint64("actor_id", actor.ID),
		zap.String("from", string(from)),
		zap.String("to", string(newStatus)))
	s.publish(ctx, queue.NewBookingEvent(queue.StatusEventType(newStatus), *b, actor.ID, s.now()))
	return *b, nil
}

// ListForRoom returns the bookings of roomID on date, in any status.
func (s *BookingService) ListForRoom(ctx context.Context, roomID uint64, date model.Date) ([]model.Booking, error) {
	if err := s.read(ctx, "get_room", func(ctx context.Context) error {
		_, err := s.rooms.GetRoom(ctx, roomID)
		return err
	}); err != nil {
		return nil, err
	}
	var out []model.Booking
	err := s.read(ctx, "find_bookings", func(ctx context.Context) (err error) {
		out, err = s.bookings.FindByRoomAndDate(ctx, roomID, date)
		return err
	})
	return out, err
}

// ListForRequester returns every booking requested by requesterID.
func (s *BookingService) ListForRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error) {
	var out []model.Booking
	err := s.read(ctx, "find_by_requester", func(ctx context.Context) (err error) {
		out, err = s.bookings.FindByRequester(ctx, requesterID)
		return err
	})
	return out, err
}

// ListForRequesterDetailed returns requesterID's bookings joined with room
// and building names, newest first.
func (s *BookingService) ListForRequesterDetailed(ctx context.Context, requesterID uint64) ([]model.BookingDetail, error) {
	filter := model.BookingFilter{RequesterID: &requesterID}
	var out []model.BookingDetail
	err := s.read(ctx, "list_requester_detailed", func(ctx context.Context) (err error) {
		out, err = s.bookings.ListDetailed(ctx, filter)
		return err
	})
	return out, err
}

// ListManaged returns the bookings an approver is responsible for, newest
// first.  Administrators see everything; incharges see the rooms of the
// buildings assigned to them.
func (s *BookingService) ListManaged(ctx context.Context, actor model.Actor, status model.Status) ([]model.BookingDetail, error) {
	if !actor.CanApprove() {
		return nil, apperr.Unauthorized("only incharges and administrators can list managed bookings")
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown status %q", status)
	}
	filter := model.BookingFilter{Status: status}
	if !actor.IsAdmin() {
		id := actor.ID
		filter.InchargeID = &id
	}
	var out []model.BookingDetail
	err := s.read(ctx, "list_managed", func(ctx context.Context) (err error) {
		out, err = s.bookings.ListDetailed(ctx, filter)
		return err
	})
	return out, err
}

// Delete removes a booking.  It is an administrative override outside the
// lifecycle and only administrators may use it.
func (s *BookingService) Delete(ctx context.Context, actor model.Actor, bookingID uint64) error {
	if !actor.IsAdmin() {
		return apperr.Unauthorized("only administrators can delete bookings")
	}
	var b *model.Booking
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		b, err = s.bookings.FindByID(ctx, bookingID)
		return err
	}); err != nil {
		return err
	}
	if err := s.call(ctx, func(ctx context.Context) error {
		return s.bookings.Delete(ctx, bookingID)
	}); err != nil {
		return err
	}
	s.log.Warn("booking deleted",
		zap.Uint64("booking_id", bookingID),
		zap.Uint64("actor_id", actor.ID))
	s.publish(ctx, queue.NewBookingEvent(queue.EventBookingDeleted, *b, actor.ID, s.now()))
	return nil
}

// validateSlot re-runs the slot invariants on values that did not come
// through NewSlot and rejects days before today.
func (s *BookingService) validateSlot(slot model.Slot) error {
	if _, err := model.NewSlot(slot.Date, slot.Start, slot.End); err != nil {
		return err
	}
	today := model.NewDate(s.now().UTC())
	if slot.Date.Before(today) {
		return apperr.InvalidSlot(fmt.Sprintf("date %s is in the past", slot.Date))
	}
	return nil
}

func (s *BookingService) authorize(ctx context.Context, actor model.Actor, b model.Booking) error {
	if !actor.CanApprove() {
		return apperr.Unauthorized("only incharges and administrators can change booking status")
	}
	var ok bool
	if err := s.call(ctx, func(ctx context.Context) (err error) {
		ok, err = s.authz.CanManageBooking(ctx, actor, b)
		return err
	}); err != nil {
		return err
	}
	if !ok {
		return apperr.Unauthorized("actor does not manage the building of this room")
	}
	return nil
}

func (s *BookingService) lockRoom(ctx context.Context, roomID uint64) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	unlock, err := s.locker.Lock(lctx, "room:"+strconv.FormatUint(roomID, 10))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apperr.Wrap(err, apperr.KindTimeout, "timed out waiting for the room")
		}
		return nil, apperr.Wrap(err, apperr.KindStoreUnavailable, "room lock unavailable")
	}
	return unlock, nil
}

// call runs fn once under the store timeout and maps its error into the
// taxonomy.
func (s *BookingService) call(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return mapStoreError(fn(cctx))
}

// read is call with a single retry after a backoff when the first attempt
// timed out or the store was unavailable.  Only read-only operations go
// through here.
func (s *BookingService) read(ctx context.Context, op string, fn func(context.Context) error) error {
	err := s.call(ctx, fn)
	if err == nil || !apperr.Retryable(err) || ctx.Err() != nil {
		return err
	}
	s.log.Warn("store read failed, retrying", zap.String("op", op), zap.Error(err))

	timer := time.NewTimer(s.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-timer.C:
	}
	return s.call(ctx, fn)
}

func (s *BookingService) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	// The event outlives a cancelled request; the booking is already stored.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.events.PublishBookingEvent(pctx, ev); err != nil {
		s.log.Warn("publish booking event failed",
			zap.String("type", ev.Type),
			zap.Uint64("booking_id", ev.BookingID),
			zap.Error(err))
	}
}

// mapStoreError translates repository and context errors into the
// taxonomy.  Errors already in the taxonomy pass through.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap(err, apperr.KindTimeout, "the booking store did not respond in time")
	case errors.Is(err, repository.ErrRoomNotFound):
		return apperr.NotFound("room")
	case errors.Is(err, repository.ErrBuildingNotFound):
		return apperr.NotFound("building")
	case errors.Is(err, repository.ErrBookingNotFound):
		return apperr.NotFound("booking")
	case errors.Is(err, repository.ErrOverlap):
		return apperr.SlotConflict("the room is already booked for an overlapping slot")
	case errors.Is(err, repository.ErrStatusChanged):
		return apperr.InvalidTransition("the booking status was changed by someone else")
	case errors.Is(err, repository.ErrUnavailable):
		return apperr.Wrap(err, apperr.KindStoreUnavailable, "the booking store is unavailable")
	}
	return apperr.Wrap(err, apperr.KindInternal, "unexpected store error")
}
