package lifecycle

import "time"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManageEvent reports whether a may close registration, mark or submit
// attendance for ev: its coordinator or any admin.
func CanManageEvent(a Actor, ev Event) bool {
	if a.IsAdmin() {
		return true
	}
	return a.ID != "" && a.ID == ev.CoordinatorID
}

// CanRegister is the authority for whether new registrations are accepted.
// An event whose date has passed is closed even when the flag is not set.
func CanRegister(ev Event, now time.Time) bool {
	return !ev.RegistrationClosed && !ev.AttendanceCompleted && !now.After(ev.Date)
}

func requireRole(a Actor, roles ...Role) error {
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
