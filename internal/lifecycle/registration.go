package lifecycle

import (
	"context"
	"errors"
	"slices"
	"time"

	"clubhub/internal/logger"
	"clubhub/internal/metrics"
)

// RegistrationStatus is a student's view of an event's registration state.
type RegistrationStatus struct {
	IsRegistered       bool      `json:"isRegistered"`
	RegistrationClosed bool      `json:"registrationClosed"`
	CanRegister        bool      `json:"canRegister"`
	EventDate          time.Time `json:"eventDate"`
}

// Register adds the student to the event's roster.
func (s *Service) Register(ctx context.Context, actor Actor, eventID string) error {
	if err := requireRole(actor, RoleStudent); err != nil {
		return err
	}
	now := s.clock()
	err := s.store.InTx(ctx, func(r Repository) error {
		ev, err := r.GetEventForUpdate(ctx, eventID)
		if errors.Is(err, ErrNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if !CanRegister(ev, now) {
			return ErrRegistrationClosed
		}
		added, err := r.AddRegistration(ctx, eventID, actor.ID, now)
		if err != nil {
			return err
		}
		if !added {
			return ErrAlreadyRegistered
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.Registrations.Inc()
	logger.Debug.Printf("student %s registered for event %s", actor.ID, eventID)
	return nil
}

// RegistrationStatus reports whether the actor is registered and whether registration is open.
func (s *Service) RegistrationStatus(ctx context.Context, actor Actor, eventID string) (RegistrationStatus, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return RegistrationStatus{}, err
	}
	open := CanRegister(ev, s.clock())
	return RegistrationStatus{
		IsRegistered:       slices.Contains(ev.RegisteredStudents, actor.ID),
		RegistrationClosed: !open,
		CanRegister:        open,
		EventDate:          ev.Date,
	}, nil
}

// Registrations returns the registered students with their details.
func (s *Service) Registrations(ctx context.Context, actor Actor, eventID string) ([]User, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !CanManageEvent(actor, ev) {
		return nil, ErrNotEventManager
	}
	return s.store.ListUsers(ctx, ev.RegisteredStudents)
}

// CloseRegistration permanently stops new registrations for the event.
func (s *Service) CloseRegistration(ctx context.Context, actor Actor, eventID string) (Event, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if !CanManageEvent(actor, ev) {
		return Event{}, ErrNotEventManager
	}
	if ev.RegistrationClosed {
		return Event{}, ErrRegistrationAlreadyClosed
	}
	now := s.clock()
	closed, err := s.store.CloseRegistration(ctx, eventID, actor.ID, now)
	if err != nil {
		return Event{}, err
	}
	if !closed {
		return Event{}, ErrRegistrationAlreadyClosed
	}
	ev.RegistrationClosed = true
	ev.RegistrationClosedAt = &now
	ev.RegistrationClosedBy = actor.ID
	logger.Info.Printf("registration for event %s closed by %s", eventID, actor.ID)
	return ev, nil
}
