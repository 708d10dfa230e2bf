package lifecycle

import "time"

// Role is the account role carried in access tokens.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleStudent     Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleStudent:
		return true
	}
	return false
}

// User is a student, coordinator or admin account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	StudentID    string    `json:"studentId,omitempty"`
	ClubID       string    `json:"clubId,omitempty"`
	ClubName     string    `json:"clubName,omitempty"`
	ProfilePic   string    `json:"profilePic,omitempty"`
	Verified     bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Club groups coordinators and the events they run.
type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Department  string    `json:"department"`
	LogoURL     string    `json:"logo,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VenueRequest is a coordinator's proposal for a venue and time slot.
type VenueRequest struct {
	ID            string    `json:"id"`
	Venue         string    `json:"venue"`
	EventName     string    `json:"eventName"`
	EventDate     time.Time `json:"eventDate"`
	TimeFrom      string    `json:"timeFrom"`
	TimeTo        string    `json:"timeTo"`
	Description   string    `json:"description,omitempty"`
	CoordinatorID string    `json:"coordinatorId"`
	Approved      bool      `json:"approved"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LegacyRegistration is the registration entry shape used by older event records.
type LegacyRegistration struct {
	UserID       string    `json:"userId"`
	RegisteredAt time.Time `json:"registeredAt,omitempty"`
}

// Event is a scheduled activity created from one approved venue request.
type Event struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	Description           string               `json:"description"`
	Date                  time.Time            `json:"date"`
	Venue                 string               `json:"venue"`
	ClubID                string               `json:"clubId"`
	ClubName              string               `json:"clubName,omitempty"`
	CoordinatorID         string               `json:"coordinatorId"`
	VenueRequestID        string               `json:"venueRequestId"`
	RegisteredStudents    []string             `json:"registeredStudents"`
	RegisteredCount       int                  `json:"registeredCount"`
	Participants          []string             `json:"participants,omitempty"`
	Registrations         []LegacyRegistration `json:"registrations,omitempty"`
	RegistrationClosed    bool                 `json:"registrationClosed"`
	RegistrationClosedAt  *time.Time           `json:"registrationClosedAt,omitempty"`
	RegistrationClosedBy  string               `json:"registrationClosedBy,omitempty"`
	AttendanceCompleted   bool                 `json:"attendanceCompleted"`
	AttendanceSubmittedAt *time.Time           `json:"attendanceSubmittedAt,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

// Attendance is the final present/absent record of one student at one event.
type Attendance struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	StudentID   string    `json:"studentId"`
	Present     bool      `json:"present"`
	MarkedBy    string    `json:"markedBy"`
	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DraftMark is one entry of an attendance draft.
type DraftMark struct {
	UserID  string `json:"userId"`
	Present bool   `json:"present"`
}

// AttendanceProgress is a coordinator's unfinished attendance session for an event.
type AttendanceProgress struct {
	EventID       string      `json:"eventId"`
	CoordinatorID string      `json:"coordinatorId"`
	Attendees     []DraftMark `json:"attendees"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Certificate proves a student was marked present at an event.
type Certificate struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	StudentID   string    `json:"studentId"`
	GeneratedBy string    `json:"generatedBy"`
	FileURL     string    `json:"fileUrl"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// CertificateView is the student-facing projection of a certificate.
type CertificateView struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	Date       time.Time `json:"date"`
	Venue      string    `json:"venue"`
	ClubName   string    `json:"clubName"`
	StudentID  string    `json:"studentId"`
	IssueDate  time.Time `json:"issueDate"`
	FileURL    string    `json:"fileUrl"`
}

// Attendee is a roster entry with the current present flag.
type Attendee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	StudentID  string `json:"studentId,omitempty"`
	Present    bool   `json:"present"`
}

// EventFilter narrows ListEvents. Zero values mean no filter.
type EventFilter struct {
	CoordinatorID string
	ClubID        string
	StudentID     string
	// OrderBy is "date" (default) or "created"; both newest first.
	OrderBy string
	Limit   int
}
