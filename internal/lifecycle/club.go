package lifecycle

import (
	"context"
	"errors"
	"io"
	"strings"

	"clubhub/internal/logger"
)

// ClubInput carries club fields; empty fields are left unchanged on update.
type ClubInput struct {
	Name        string
	Description string
	Department  string
}

// ListClubs returns every club ordered by name.
func (s *Service) ListClubs(ctx context.Context) ([]Club, error) {
	return s.store.ListClubs(ctx)
}

// GetClub returns one club.
func (s *Service) GetClub(ctx context.Context, id string) (Club, error) {
	c, err := s.store.GetClub(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Club{}, ErrClubNotFound
	}
	return c, err
}

// CreateClub adds a club. Name and department are required and names are unique.
func (s *Service) CreateClub(ctx context.Context, actor Actor, in ClubInput) (Club, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return Club{}, err
	}
	c := Club{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Department:  strings.TrimSpace(in.Department),
	}
	if c.Name == "" || c.Department == "" {
		return Club{}, invalid("Name and department are required")
	}
	now := s.clock()
	c.ID = s.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.store.CreateClub(ctx, &c); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Club{}, ErrClubNameTaken
		}
		return Club{}, err
	}
	logger.Info.Printf("club %s %q created by %s", c.ID, c.Name, actor.ID)
	return c, nil
}

// UpdateClub changes the non-empty fields of in.
func (s *Service) UpdateClub(ctx context.Context, actor Actor, id string, in ClubInput) (Club, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return Club{}, err
	}
	c, err := s.GetClub(ctx, id)
	if err != nil {
		return Club{}, err
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		c.Name = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		c.Description = v
	}
	if v := strings.TrimSpace(in.Department); v != "" {
		c.Department = v
	}
	return s.saveClub(ctx, c)
}

// DeleteClub removes a club. Members keep their accounts without a club.
func (s *Service) DeleteClub(ctx context.Context, actor Actor, id string) error {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return err
	}
	err := s.store.DeleteClub(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrClubNotFound
	}
	if err == nil {
		logger.Info.Printf("club %s deleted by %s", id, actor.ID)
	}
	return err
}

// UpdateMyClubDescription lets a coordinator edit the description of their own club.
func (s *Service) UpdateMyClubDescription(ctx context.Context, actor Actor, description string) (Club, error) {
	if err := requireRole(actor, RoleCoordinator); err != nil {
		return Club{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Club{}, invalid("Description is required")
	}
	u, err := s.store.GetUser(ctx, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return Club{}, ErrUserNotFound
	}
	if err != nil {
		return Club{}, err
	}
	if u.ClubID == "" {
		return Club{}, ErrNoClubAssigned
	}
	c, err := s.GetClub(ctx, u.ClubID)
	if err != nil {
		return Club{}, err
	}
	c.Description = description
	return s.saveClub(ctx, c)
}

// SetClubLogo uploads an image and stores its URL as the club logo.
func (s *Service) SetClubLogo(ctx context.Context, actor Actor, id string, img io.Reader, filename string) (Club, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return Club{}, err
	}
	if s.uploader == nil {
		return Club{}, ErrUploadsDisabled
	}
	c, err := s.GetClub(ctx, id)
	if err != nil {
		return Club{}, err
	}
	url, err := s.uploader.UploadImage(ctx, img, filename)
	if err != nil {
		return Club{}, err
	}
	c.LogoURL = url
	return s.saveClub(ctx, c)
}

func (s *Service) saveClub(ctx context.Context, c Club) (Club, error) {
	c.UpdatedAt = s.clock()
	err := s.store.UpdateClub(ctx, c)
	switch {
	case errors.Is(err, ErrDuplicate):
		return Club{}, ErrClubNameTaken
	case errors.Is(err, ErrNotFound):
		return Club{}, ErrClubNotFound
	case err != nil:
		return Club{}, err
	}
	return c, nil
}
