package lifecycle

import "errors"

// Kind classifies an Error for transport mapping.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a business-rule failure with a client-facing message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalid(msg string) error { return &Error{Kind: KindInvalid, Msg: msg} }

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = &Error{Kind: KindNotFound, Msg: "record not found"}

// ErrDuplicate is returned by stores when a unique constraint rejects a write.
var ErrDuplicate = &Error{Kind: KindConflict, Msg: "record already exists"}

var (
	ErrEventNotFound        = &Error{Kind: KindNotFound, Msg: "Event not found"}
	ErrVenueRequestNotFound = &Error{Kind: KindNotFound, Msg: "Venue request not found"}
	ErrUserNotFound         = &Error{Kind: KindNotFound, Msg: "User not found"}
	ErrClubNotFound         = &Error{Kind: KindNotFound, Msg: "Club not found"}
	ErrCertificateNotFound  = &Error{Kind: KindNotFound, Msg: "Certificate not found"}

	ErrVenueRequestNotApproved   = &Error{Kind: KindConflict, Msg: "Venue request must be approved first"}
	ErrNoClub                    = &Error{Kind: KindConflict, Msg: "User must be associated with a club to create events"}
	ErrRegistrationClosed        = &Error{Kind: KindConflict, Msg: "Registration is closed for this event"}
	ErrAlreadyRegistered         = &Error{Kind: KindConflict, Msg: "Already registered for this event"}
	ErrRegistrationAlreadyClosed = &Error{Kind: KindConflict, Msg: "Registration is already closed for this event"}
	ErrAttendanceSubmitted       = &Error{Kind: KindConflict, Msg: "Attendance has already been submitted for this event"}
	ErrEmailTaken                = &Error{Kind: KindConflict, Msg: "Email is already registered"}
	ErrClubNameTaken             = &Error{Kind: KindConflict, Msg: "A club with this name already exists"}
	ErrAlreadyVerified           = &Error{Kind: KindConflict, Msg: "Coordinator is already verified"}
	ErrNotCoordinator            = &Error{Kind: KindConflict, Msg: "User is not a coordinator"}

	ErrInvalidAttendees = &Error{Kind: KindInvalid, Msg: "Invalid attendees data. Each attendee must have userId and present (boolean)."}

	ErrNoClubAssigned = &Error{Kind: KindNotFound, Msg: "No club associated with your account"}

	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Msg: "Invalid email or password"}

	ErrUploadsDisabled = &Error{Kind: KindInternal, Msg: "Image uploads are not configured"}

	ErrForbidden          = &Error{Kind: KindForbidden, Msg: "Access denied"}
	ErrNotEventManager    = &Error{Kind: KindForbidden, Msg: "Not authorized to manage this event"}
	ErrCoordinatorPending = &Error{Kind: KindForbidden, Msg: "Coordinator account is awaiting admin approval"}
)
