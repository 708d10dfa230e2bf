package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"clubhub/internal/logger"
)

// CreateEventInput is the payload for posting an event from a venue request.
type CreateEventInput struct {
	Title          string
	Description    string
	Date           *time.Time
	VenueRequestID string
}

const (
	recentEventsLimit  = 10
	notificationsLimit = 5
)

// CreateEvent creates an event from an approved venue request. The venue and
// date are copied from the request; Date overrides the latter.
func (s *Service) CreateEvent(ctx context.Context, actor Actor, in CreateEventInput) (Event, error) {
	if err := requireRole(actor, RoleCoordinator, RoleAdmin); err != nil {
		return Event{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.VenueRequestID == "" {
		return Event{}, invalid("Venue request ID is required")
	}
	if in.Title == "" {
		return Event{}, invalid("Title is required")
	}

	vr, err := s.store.GetVenueRequest(ctx, in.VenueRequestID)
	if errors.Is(err, ErrNotFound) {
		return Event{}, ErrVenueRequestNotFound
	}
	if err != nil {
		return Event{}, err
	}
	if !vr.Approved {
		return Event{}, ErrVenueRequestNotApproved
	}

	user, err := s.store.GetUser(ctx, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return Event{}, ErrNoClub
	}
	if err != nil {
		return Event{}, err
	}
	if user.ClubID == "" {
		return Event{}, ErrNoClub
	}

	date := vr.EventDate
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}
	now := s.clock()
	ev := Event{
		ID:                 s.newID(),
		Title:              in.Title,
		Description:        strings.TrimSpace(in.Description),
		Date:               date,
		Venue:              vr.Venue,
		ClubID:             user.ClubID,
		CoordinatorID:      actor.ID,
		VenueRequestID:     vr.ID,
		RegisteredStudents: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateEvent(ctx, &ev); err != nil {
		return Event{}, err
	}
	logger.Info.Printf("event %s %q created by %s from venue request %s", ev.ID, ev.Title, actor.ID, vr.ID)
	return ev, nil
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Event{}, ErrEventNotFound
	}
	return ev, err
}

// MyEvents lists the coordinator's events by date, newest first.
func (s *Service) MyEvents(ctx context.Context, actor Actor) ([]Event, error) {
	if err := requireRole(actor, RoleCoordinator, RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, EventFilter{CoordinatorID: actor.ID})
}

// EventsByClub lists a club's events by date, newest first.
func (s *Service) EventsByClub(ctx context.Context, clubID string) ([]Event, error) {
	return s.store.ListEvents(ctx, EventFilter{ClubID: clubID})
}

// RecentEvents lists the most recently created events.
func (s *Service) RecentEvents(ctx context.Context) ([]Event, error) {
	return s.store.ListEvents(ctx, EventFilter{OrderBy: "created", Limit: recentEventsLimit})
}

// Notifications lists the latest events by date for the public feed.
func (s *Service) Notifications(ctx context.Context) ([]Event, error) {
	return s.store.ListEvents(ctx, EventFilter{Limit: notificationsLimit})
}

// StudentEvents lists events the actor is registered for under any roster source.
func (s *Service) StudentEvents(ctx context.Context, actor Actor) ([]Event, error) {
	return s.store.ListEvents(ctx, EventFilter{StudentID: actor.ID})
}
