package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"clubhub/internal/logger"
	"clubhub/internal/metrics"
	"clubhub/internal/notify"
)

// Mark is one attendee entry of a draft or submission. Present is a pointer so
// a missing flag can be told apart from false.
type Mark struct {
	UserID  string `json:"userId"`
	Present *bool  `json:"present"`
}

// EventSummary identifies the event an attendee list belongs to.
type EventSummary struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	RegistrationClosed  bool   `json:"registrationClosed"`
	AttendanceCompleted bool   `json:"attendanceCompleted"`
}

// AttendeeList is the roster of an event with present flags applied.
type AttendeeList struct {
	Event     EventSummary `json:"event"`
	Source    string       `json:"source,omitempty"`
	Attendees []Attendee   `json:"attendees"`
}

// SubmitResult summarises a finalized attendance submission.
type SubmitResult struct {
	EventID            string `json:"event"`
	Recorded           int    `json:"recorded"`
	CertificatesIssued int    `json:"certificatesIssued"`
}

func summarize(ev Event) EventSummary {
	return EventSummary{
		ID:                  ev.ID,
		Title:               ev.Title,
		RegistrationClosed:  ev.RegistrationClosed,
		AttendanceCompleted: ev.AttendanceCompleted,
	}
}

// manageableEvent loads an event the actor may manage.
func (s *Service) manageableEvent(ctx context.Context, r Repository, actor Actor, eventID string, forUpdate bool) (Event, error) {
	get := r.GetEvent
	if forUpdate {
		get = r.GetEventForUpdate
	}
	ev, err := get(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		return Event{}, ErrEventNotFound
	}
	if err != nil {
		return Event{}, err
	}
	if !CanManageEvent(actor, ev) {
		return Event{}, ErrNotEventManager
	}
	return ev, nil
}

// Attendees resolves the event roster and overlays the actor's saved draft,
// or the stored attendance once the event is submitted.
func (s *Service) Attendees(ctx context.Context, actor Actor, eventID string) (AttendeeList, error) {
	ev, err := s.manageableEvent(ctx, s.store, actor, eventID, false)
	if err != nil {
		return AttendeeList{}, err
	}

	source, ids := resolveRoster(ev)
	users, err := s.store.ListUsers(ctx, ids)
	if err != nil {
		return AttendeeList{}, err
	}

	present := make(map[string]bool)
	if ev.AttendanceCompleted {
		records, err := s.store.ListAttendance(ctx, ev.ID)
		if err != nil {
			return AttendeeList{}, err
		}
		for _, rec := range records {
			present[rec.StudentID] = rec.Present
		}
	} else {
		draft, err := s.store.GetProgress(ctx, ev.ID, actor.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return AttendeeList{}, err
		}
		for _, m := range draft.Attendees {
			present[m.UserID] = m.Present
		}
	}

	attendees := make([]Attendee, 0, len(users))
	for _, u := range users {
		attendees = append(attendees, Attendee{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Department: u.Department,
			StudentID:  u.StudentID,
			Present:    present[u.ID],
		})
	}
	return AttendeeList{Event: summarize(ev), Source: source, Attendees: attendees}, nil
}

// SaveProgress stores the actor's attendance draft for the event. It never
// touches attendance records or certificates.
func (s *Service) SaveProgress(ctx context.Context, actor Actor, eventID string, marks []Mark) error {
	ev, err := s.manageableEvent(ctx, s.store, actor, eventID, false)
	if err != nil {
		return err
	}
	if ev.AttendanceCompleted {
		return ErrAttendanceSubmitted
	}
	draft := AttendanceProgress{
		EventID:       ev.ID,
		CoordinatorID: actor.ID,
		Attendees:     make([]DraftMark, 0, len(marks)),
		UpdatedAt:     s.clock(),
	}
	for _, m := range marks {
		if m.UserID == "" {
			return invalid("Each attendee must have a userId")
		}
		draft.Attendees = append(draft.Attendees, DraftMark{UserID: m.UserID, Present: m.Present != nil && *m.Present})
	}
	return s.store.SaveProgress(ctx, draft)
}

// SavedProgress returns the actor's draft marks for the event, empty when none exist.
func (s *Service) SavedProgress(ctx context.Context, actor Actor, eventID string) ([]DraftMark, error) {
	if _, err := s.manageableEvent(ctx, s.store, actor, eventID, false); err != nil {
		return nil, err
	}
	draft, err := s.store.GetProgress(ctx, eventID, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return []DraftMark{}, nil
	}
	if err != nil {
		return nil, err
	}
	return draft.Attendees, nil
}

// MarkAttendance records one student's attendance before the event is finalized.
func (s *Service) MarkAttendance(ctx context.Context, actor Actor, eventID, studentID string, present bool) (Attendance, error) {
	if studentID == "" {
		return Attendance{}, invalid("Student ID is required")
	}
	now := s.clock()
	rec := Attendance{
		ID:          s.newID(),
		EventID:     eventID,
		StudentID:   studentID,
		Present:     present,
		MarkedBy:    actor.ID,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	err := s.store.InTx(ctx, func(r Repository) error {
		ev, err := s.manageableEvent(ctx, r, actor, eventID, true)
		if err != nil {
			return err
		}
		if ev.AttendanceCompleted {
			return ErrAttendanceSubmitted
		}
		if _, err := r.GetUser(ctx, studentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return r.UpsertAttendance(ctx, rec)
	})
	if err != nil {
		return Attendance{}, err
	}
	return rec, nil
}

// MarkAttendanceBatch upserts one record per mark in a single transaction
// without completing the event. Later marks for the same student win.
func (s *Service) MarkAttendanceBatch(ctx context.Context, actor Actor, eventID string, marks []Mark) ([]Attendance, error) {
	if _, err := validateMarks(marks); err != nil {
		return nil, err
	}
	now := s.clock()
	recs := make([]Attendance, 0, len(marks))
	err := s.store.InTx(ctx, func(r Repository) error {
		ev, err := s.manageableEvent(ctx, r, actor, eventID, true)
		if err != nil {
			return err
		}
		if ev.AttendanceCompleted {
			return ErrAttendanceSubmitted
		}
		for _, m := range marks {
			if _, err := r.GetUser(ctx, m.UserID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			rec := Attendance{
				ID:          s.newID(),
				EventID:     eventID,
				StudentID:   m.UserID,
				Present:     *m.Present,
				MarkedBy:    actor.ID,
				SubmittedAt: now,
				UpdatedAt:   now,
			}
			if err := r.UpsertAttendance(ctx, rec); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func validateMarks(marks []Mark) ([]string, error) {
	seen := make(map[string]struct{}, len(marks))
	ids := make([]string, 0, len(marks))
	for _, m := range marks {
		if m.UserID == "" || m.Present == nil {
			return nil, ErrInvalidAttendees
		}
		if _, ok := seen[m.UserID]; !ok {
			seen[m.UserID] = struct{}{}
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

// Submit finalizes attendance for the event. In one transaction it upserts an
// attendance record per mark, issues a certificate to every present student
// without one, marks the event completed with registration closed and drops
// the drafts. Newly certified students are notified after commit.
func (s *Service) Submit(ctx context.Context, actor Actor, eventID string, marks []Mark) (SubmitResult, error) {
	ids, err := validateMarks(marks)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.clock()
	var (
		ev       Event
		students map[string]User
		issued   []Certificate
	)
	err = s.store.InTx(ctx, func(r Repository) error {
		issued = nil
		ev, err = r.GetEventForUpdate(ctx, eventID)
		if errors.Is(err, ErrNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if ev.AttendanceCompleted {
			return ErrAttendanceSubmitted
		}
		if !CanManageEvent(actor, ev) {
			return ErrNotEventManager
		}

		users, err := r.ListUsers(ctx, ids)
		if err != nil {
			return err
		}
		if len(users) != len(ids) {
			return ErrInvalidAttendees
		}
		students = make(map[string]User, len(users))
		for _, u := range users {
			students[u.ID] = u
		}

		for _, m := range marks {
			rec := Attendance{
				ID:          s.newID(),
				EventID:     ev.ID,
				StudentID:   m.UserID,
				Present:     *m.Present,
				MarkedBy:    actor.ID,
				SubmittedAt: now,
				UpdatedAt:   now,
			}
			if err := r.UpsertAttendance(ctx, rec); err != nil {
				return fmt.Errorf("upsert attendance %s: %w", m.UserID, err)
			}
			if !*m.Present {
				continue
			}
			cert := Certificate{
				ID:          s.newID(),
				EventID:     ev.ID,
				StudentID:   m.UserID,
				GeneratedBy: actor.ID,
				GeneratedAt: now,
			}
			created, err := r.CreateCertificate(ctx, &cert)
			if err != nil {
				return fmt.Errorf("create certificate %s: %w", m.UserID, err)
			}
			if created {
				issued = append(issued, cert)
			}
		}

		completed, err := r.CompleteAttendance(ctx, ev.ID, actor.ID, now)
		if err != nil {
			return err
		}
		if !completed {
			return ErrAttendanceSubmitted
		}
		return r.DeleteEventProgress(ctx, ev.ID)
	})
	if err != nil {
		return SubmitResult{}, err
	}

	metrics.AttendanceSubmissions.Inc()
	metrics.CertificatesIssued.Add(float64(len(issued)))
	logger.Info.Printf("attendance for event %s submitted by %s: %d records, %d certificates", ev.ID, actor.ID, len(marks), len(issued))

	s.notifyCertified(ctx, ev, issued, students)
	return SubmitResult{EventID: ev.ID, Recorded: len(marks), CertificatesIssued: len(issued)}, nil
}

// notifyCertified mails every newly certified student within one shared
// deadline, detached from the request's cancellation.
func (s *Service) notifyCertified(ctx context.Context, ev Event, issued []Certificate, students map[string]User) {
	if len(issued) == 0 {
		return
	}
	ctx, cancel := s.detached(ctx)
	defer cancel()

	club := ev.ClubName
	if club == "" {
		club = "the club"
	}
	for i, cert := range issued {
		if ctx.Err() != nil {
			logger.Warn.Printf("notify: budget spent, %d certificate mails for event %s not queued", len(issued)-i, ev.ID)
			return
		}
		student, ok := students[cert.StudentID]
		if !ok || student.Email == "" {
			continue
		}
		s.notify(ctx, notify.Notification{
			To:      student.Email,
			Subject: fmt.Sprintf("Certificate for %s", ev.Title),
			Body: fmt.Sprintf("Congratulations! Your certificate for participating in %q organized by %s is now available in your dashboard.",
				ev.Title, club),
		})
	}
}
