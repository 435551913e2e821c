package model

// Role of the authenticated actor, supplied by the auth collaborator.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated identity attached to every request. It carries
// only what the reservation engine needs: identity, scope, and profile
// completeness (vehicle number on file).
type Actor struct {
	UserID        string `json:"user_id"`
	Role          Role   `json:"role"`
	ManagedAreaID string `json:"managed_area_id,omitempty"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
}

// Staff reports whether the actor holds an operational role, which the
// pricing policy may discount.
func (a Actor) Staff() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// ManagesArea reports whether the actor may operate the gate for the given
// area. Admins manage every area.
func (a Actor) ManagesArea(areaID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == RoleManager && a.ManagedAreaID == areaID
}

// HasVehicle reports profile completeness for booking creation.
func (a Actor) HasVehicle() bool {
	return a.VehicleNumber != "" && a.VehicleNumber != "Not Set"
}
