package lifecycle

import (
	"context"
	"time"
)

// Repository is the record-level persistence contract. Lookups of a missing
// record return ErrNotFound.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// ListUsers returns the users with the given ids in the order of ids, skipping unknown ids.
	ListUsers(ctx context.Context, ids []string) ([]User, error)
	ListPendingCoordinators(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id string) error

	CreateClub(ctx context.Context, c *Club) error
	GetClub(ctx context.Context, id string) (Club, error)
	GetClubByName(ctx context.Context, name string) (Club, error)
	ListClubs(ctx context.Context) ([]Club, error)
	UpdateClub(ctx context.Context, c Club) error
	DeleteClub(ctx context.Context, id string) error

	CreateVenueRequest(ctx context.Context, vr *VenueRequest) error
	GetVenueRequest(ctx context.Context, id string) (VenueRequest, error)
	// ListVenueRequests lists requests newest first; an empty coordinatorID lists all.
	ListVenueRequests(ctx context.Context, coordinatorID string, pendingOnly bool) ([]VenueRequest, error)
	ApproveVenueRequest(ctx context.Context, id string, at time.Time) (VenueRequest, error)
	DeleteVenueRequest(ctx context.Context, id string) error
	// LockVenueRetention serialises retention runs for the rest of the transaction.
	LockVenueRetention(ctx context.Context) error
	ListApprovedVenueRequests(ctx context.Context) ([]VenueRequest, error)
	// DeleteApprovedVenueRequests deletes the listed ids that are still approved.
	DeleteApprovedVenueRequests(ctx context.Context, ids []string) (int, error)
	CountApprovedVenueRequests(ctx context.Context) (int, error)

	CreateEvent(ctx context.Context, ev *Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// GetEventForUpdate is GetEvent holding a row lock until the transaction ends.
	GetEventForUpdate(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]Event, error)
	// AddRegistration reports false when the student is already registered.
	AddRegistration(ctx context.Context, eventID, studentID string, at time.Time) (bool, error)
	// CloseRegistration reports false when registration was already closed.
	CloseRegistration(ctx context.Context, eventID, actorID string, at time.Time) (bool, error)
	// CompleteAttendance reports false when attendance was already completed.
	CompleteAttendance(ctx context.Context, eventID, actorID string, at time.Time) (bool, error)

	UpsertAttendance(ctx context.Context, a Attendance) error
	ListAttendance(ctx context.Context, eventID string) ([]Attendance, error)

	SaveProgress(ctx context.Context, p AttendanceProgress) error
	GetProgress(ctx context.Context, eventID, coordinatorID string) (AttendanceProgress, error)
	DeleteEventProgress(ctx context.Context, eventID string) error

	// CreateCertificate inserts c unless one exists for (event, student); it reports whether it inserted.
	CreateCertificate(ctx context.Context, c *Certificate) (bool, error)
	GetCertificate(ctx context.Context, id string) (CertificateView, error)
	ListCertificates(ctx context.Context, studentID string) ([]CertificateView, error)
}

// Store is a Repository that can run a unit of work atomically.
type Store interface {
	Repository
	// InTx runs fn against a transactional Repository, committing when fn returns nil.
	InTx(ctx context.Context, fn func(Repository) error) error
}
