package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/campus-room-booking/internal/model"
)

// BuildingAuthorizer answers whether an actor may approve or reject a
// booking.  Administrators manage every building; incharges manage the
// buildings they are assigned to in building_incharges; students manage
// nothing.
type BuildingAuthorizer struct {
	db *sql.DB
}

// NewBuildingAuthorizer returns an authorizer bound to the given database.
func NewBuildingAuthorizer(db *sql.DB) *BuildingAuthorizer { return &BuildingAuthorizer{db: db} }

// CanManageBooking reports whether actor may change the status of b.
func (a *BuildingAuthorizer) CanManageBooking(ctx context.Context, actor model.Actor, b model.Booking) (bool, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return true, nil
	case model.RoleIncharge:
	default:
		return false, nil
	}
	const q = `SELECT 1 FROM rooms r
		JOIN building_incharges bi ON bi.building_id = r.building_id
		WHERE r.id = ? AND bi.user_id = ?
		LIMIT 1`
	var one int
	err := a.db.QueryRowContext(ctx, q, b.RoomID, actor.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}
