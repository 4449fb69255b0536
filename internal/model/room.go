package model

// Building groups rooms and is managed by one or more incharges.  Rows
// live in the `buildings` table; incharge assignments in
// `building_incharges`.
type Building struct {
	ID   uint64 `json:"building_id"` // buildings.id
	Name string `json:"name"`        // buildings.name
}

// Room is immutable reference data owned by building management.
//
// Fields:
//  ID         – rooms.id.
//  Name       – human readable label such as "MTC-12".
//  Type       – CLASSROOM, BREAKOUT, LAB and so on.
//  BuildingID – building the room belongs to.
type Room struct {
	ID         uint64 `json:"room_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	BuildingID uint64 `json:"building_id"`
}
