package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// RoomRepo reads the room directory: buildings and the rooms they contain.
// Rooms are reference data; this repository never writes them.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `r.id, r.name, r.type, r.building_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRoom is the single place a rooms row becomes a model.Room.
func scanRoom(s rowScanner) (model.Room, error) {
	var r model.Room
	err := s.Scan(&r.ID, &r.Name, &r.Type, &r.BuildingID)
	return r, err
}

// GetRoom returns the room with the given id or ErrRoomNotFound.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms r WHERE r.id = ?`
	room, err := scanRoom(r.db.QueryRowContext(ctx, q, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return &room, nil
}

// ListRoomsInBuilding returns the rooms of a building ordered by name.  It
// returns ErrBuildingNotFound when the building itself does not exist so
// callers can tell an unknown building from one without rooms.
func (r *RoomRepo) ListRoomsInBuilding(ctx context.Context, buildingID uint64) ([]model.Room, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM buildings WHERE id = ?`, buildingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBuildingNotFound
	}
	if err != nil {
		return nil, classify(err)
	}

	const q = `SELECT ` + roomColumns + ` FROM rooms r WHERE r.building_id = ? ORDER BY r.name, r.id`
	rows, err := r.db.QueryContext(ctx, q, buildingID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, classify(err)
		}
		rooms = append(rooms, room)
	}
	return rooms, classify(rows.Err())
}

// ListBuildings returns every building ordered by name.
func (r *RoomRepo) ListBuildings(ctx context.Context) ([]model.Building, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM buildings ORDER BY name, id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []model.Building{}
	for rows.Next() {
		var b model.Building
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, classify(err)
		}
		out = append(out, b)
	}
	return out, classify(rows.Err())
}
