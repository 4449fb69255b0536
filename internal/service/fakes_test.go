package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/campus-room-booking/internal/model"
	"github.com/iliyamo/campus-room-booking/internal/queue"
	"github.com/iliyamo/campus-room-booking/internal/repository"
)

// fakeDirectory is an in-memory RoomDirectory.
type fakeDirectory struct {
	rooms     map[uint64]model.Room
	buildings map[uint64]bool
}

func newFakeDirectory(rooms ...model.Room) *fakeDirectory {
	d := &fakeDirectory{rooms: map[uint64]model.Room{}, buildings: map[uint64]bool{}}
	for _, r := range rooms {
		d.rooms[r.ID] = r
		d.buildings[r.BuildingID] = true
	}
	return d
}

func (d *fakeDirectory) GetRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
	r, ok := d.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return &r, nil
}

func (d *fakeDirectory) ListRoomsInBuilding(ctx context.Context, buildingID uint64) ([]model.Room, error) {
	if !d.buildings[buildingID] {
		return nil, repository.ErrBuildingNotFound
	}
	var out []model.Room
	for _, r := range d.rooms {
		if r.BuildingID == buildingID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeStore is an in-memory BookingStore.  Hook fields let tests inject
// failures or delays per method.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Booking

	// recheck mirrors the SQL store's write-time overlap check.
	recheck bool
	// findDelay widens the read-decide-insert window.
	findDelay time.Duration

	findErrs    []error // consumed one per FindByRoomAndDate call
	insertErr   error
	insertCalls int
	findCalls   int
	blockInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[uint64]model.Booking{}, recheck: true}
}

func (s *fakeStore) Insert(ctx context.Context, b *model.Booking) error {
	if s.blockInsert {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.recheck {
		for _, e := range s.rows {
			if e.RoomID == b.RoomID && e.Status.Active() && model.Overlaps(e.Slot, b.Slot) {
				return repository.ErrOverlap
			}
		}
	}
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	b.UpdatedAt = b.CreatedAt
	s.rows[b.ID] = *b
	return nil
}

func (s *fakeStore) FindByRoomAndDate(ctx context.Context, roomID uint64, date model.Date) ([]model.Booking, error) {
	s.mu.Lock()
	s.findCalls++
	if len(s.findErrs) > 0 {
		err := s.findErrs[0]
		s.findErrs = s.findErrs[1:]
		s.mu.Unlock()
		return nil, err
	}
	var out []model.Booking
	for _, b := range s.rows {
		if b.RoomID == roomID && b.Slot.Date.Equal(date) {
			out = append(out, b)
		}
	}
	s.mu.Unlock()
	if s.findDelay > 0 {
		time.Sleep(s.findDelay)
	}
	return out, nil
}

func (s *fakeStore) FindByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[bookingID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, bookingID uint64, from, to model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != from {
		return repository.ErrStatusChanged
	}
	b.Status = to
	s.rows[bookingID] = b
	return nil
}

func (s *fakeStore) FindByRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.rows {
		if b.RequesterID == requesterID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) ListDetailed(ctx context.Context, filter model.BookingFilter) ([]model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BookingDetail
	for _, b := range s.rows {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.RequesterID != nil && b.RequesterID != *filter.RequesterID {
			continue
		}
		// incharge 100 manages building 1 only
		if filter.InchargeID != nil && !(*filter.InchargeID == 100 && b.RoomID < 20) {
			continue
		}
		out = append(out, model.BookingDetail{Booking: b, RoomName: fmt.Sprintf("room-%d", b.RoomID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) Delete(ctx context.Context, bookingID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[bookingID]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(s.rows, bookingID)
	return nil
}

// fakeAuthorizer lets admins manage everything and maps incharges to
// buildings through roomBuilding.
type fakeAuthorizer struct {
	inchargeOf   map[uint64]uint64 // user id -> building id
	roomBuilding map[uint64]uint64
}

func (a *fakeAuthorizer) CanManageBooking(ctx context.Context, actor model.Actor, b model.Booking) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	bid, ok := a.inchargeOf[actor.ID]
	return ok && a.roomBuilding[b.RoomID] == bid, nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// stallingPublisher blocks its first publish until release is closed,
// ignoring the context like a broker dial does.  Later publishes return
// immediately.
type stallingPublisher struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newStallingPublisher() *stallingPublisher {
	return &stallingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *stallingPublisher) PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()
	if !first {
		return nil
	}
	close(p.entered)
	select {
	case <-p.release:
	case <-time.After(5 * time.Second):
	}
	return nil
}

// noLock disables the per-room lock so tests can exercise the store's own
// overlap check.
type noLock struct{}

func (noLock) Lock(ctx context.Context, key string) (func(), error) { return func() {}, nil }
