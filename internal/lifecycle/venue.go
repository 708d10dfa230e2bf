package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"clubhub/internal/logger"
)

// VenueRequestInput is the payload of a new venue request.
type VenueRequestInput struct {
	Venue       string
	EventName   string
	EventDate   time.Time
	TimeFrom    string
	TimeTo      string
	Description string
}

const (
	defaultTimeFrom = "09:00"
	defaultTimeTo   = "17:00"
)

// RequestVenue records a coordinator's venue proposal, pending admin approval.
func (s *Service) RequestVenue(ctx context.Context, actor Actor, in VenueRequestInput) (VenueRequest, error) {
	if err := requireRole(actor, RoleCoordinator, RoleAdmin); err != nil {
		return VenueRequest{}, err
	}
	vr := VenueRequest{
		Venue:         strings.TrimSpace(in.Venue),
		EventName:     strings.TrimSpace(in.EventName),
		EventDate:     in.EventDate.UTC(),
		TimeFrom:      strings.TrimSpace(in.TimeFrom),
		TimeTo:        strings.TrimSpace(in.TimeTo),
		Description:   strings.TrimSpace(in.Description),
		CoordinatorID: actor.ID,
	}
	if vr.Venue == "" || vr.EventName == "" || vr.EventDate.IsZero() {
		return VenueRequest{}, invalid("Venue, event name and event date are required")
	}
	if vr.TimeFrom == "" {
		vr.TimeFrom = defaultTimeFrom
	}
	if vr.TimeTo == "" {
		vr.TimeTo = defaultTimeTo
	}
	from, errFrom := time.Parse("15:04", vr.TimeFrom)
	to, errTo := time.Parse("15:04", vr.TimeTo)
	if errFrom != nil || errTo != nil {
		return VenueRequest{}, invalid("Times must use the HH:MM format")
	}
	if !from.Before(to) {
		return VenueRequest{}, invalid("Start time must be before end time")
	}

	now := s.clock()
	vr.ID = s.newID()
	vr.CreatedAt, vr.UpdatedAt = now, now
	if err := s.store.CreateVenueRequest(ctx, &vr); err != nil {
		return VenueRequest{}, err
	}
	logger.Info.Printf("venue request %s for %q at %s submitted by %s", vr.ID, vr.EventName, vr.Venue, actor.ID)
	return vr, nil
}

// MyVenueRequests lists the coordinator's own requests, newest first.
func (s *Service) MyVenueRequests(ctx context.Context, actor Actor) ([]VenueRequest, error) {
	if err := requireRole(actor, RoleCoordinator, RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListVenueRequests(ctx, actor.ID, false)
}

// ListVenueRequests lists every request for the admin queue.
func (s *Service) ListVenueRequests(ctx context.Context, actor Actor, pendingOnly bool) ([]VenueRequest, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListVenueRequests(ctx, "", pendingOnly)
}

// ApproveVenueRequest marks a request approved and then applies the retention
// policy. A retention failure is logged; the approval stands.
func (s *Service) ApproveVenueRequest(ctx context.Context, actor Actor, id string) (VenueRequest, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return VenueRequest{}, err
	}
	vr, err := s.store.ApproveVenueRequest(ctx, id, s.clock())
	if errors.Is(err, ErrNotFound) {
		return VenueRequest{}, ErrVenueRequestNotFound
	}
	if err != nil {
		return VenueRequest{}, err
	}
	logger.Info.Printf("venue request %s approved by %s", vr.ID, actor.ID)

	if _, err := s.EnforceVenueRetention(ctx); err != nil {
		logger.Error.Printf("approve venue %s: retention cleanup failed: %v", vr.ID, err)
	}
	return vr, nil
}

// RejectVenueRequest deletes a request.
func (s *Service) RejectVenueRequest(ctx context.Context, actor Actor, id string) error {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return err
	}
	err := s.store.DeleteVenueRequest(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrVenueRequestNotFound
	}
	if err == nil {
		logger.Info.Printf("venue request %s rejected by %s", id, actor.ID)
	}
	return err
}
