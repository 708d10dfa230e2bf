package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"clubhub/internal/logger"
	"clubhub/internal/notify"
)

const minPasswordLen = 6

// SignupInput is a new account request.
type SignupInput struct {
	Name       string
	Email      string
	Password   string
	Role       Role
	Department string
	StudentID  string
	ClubName   string
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Signup creates a student or coordinator account. Coordinators stay
// unverified until an admin approves them.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	u := User{
		Name:       strings.TrimSpace(in.Name),
		Email:      normalizeEmail(in.Email),
		Role:       in.Role,
		Department: strings.TrimSpace(in.Department),
		StudentID:  strings.TrimSpace(in.StudentID),
		ClubName:   strings.TrimSpace(in.ClubName),
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.Role != RoleStudent && u.Role != RoleCoordinator {
		return User{}, invalid("Role must be student or coordinator")
	}
	if u.Name == "" || u.Email == "" {
		return User{}, invalid("Name and email are required")
	}
	if len(in.Password) < minPasswordLen {
		return User{}, invalid(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}
	if u.Role == RoleCoordinator && u.ClubName == "" {
		return User{}, invalid("Club name is required for coordinators")
	}
	u.Verified = u.Role != RoleCoordinator

	if err := s.createAccount(ctx, &u, in.Password); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) createAccount(ctx context.Context, u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.clock()
	u.ID = s.newID()
	u.PasswordHash = string(hash)
	u.CreatedAt, u.UpdatedAt = now, now
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}
	logger.Info.Printf("account %s created for %s as %s", u.ID, u.Email, u.Role)
	return nil
}

// Authenticate checks credentials. Coordinators awaiting approval are refused.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	if u.Role == RoleCoordinator && !u.Verified {
		return User{}, ErrCoordinatorPending
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	u := User{Name: "Administrator", Email: email, Role: RoleAdmin, Verified: true}
	err = s.createAccount(ctx, &u, password)
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}

// Me returns the actor's account with the club name resolved.
func (s *Service) Me(ctx context.Context, actor Actor) (User, error) {
	u, err := s.store.GetUser(ctx, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	if u.ClubID != "" {
		if c, err := s.store.GetClub(ctx, u.ClubID); err == nil {
			u.ClubName = c.Name
		}
	}
	return u, nil
}

// SetProfilePicture uploads an image and stores its URL on the actor's account.
func (s *Service) SetProfilePicture(ctx context.Context, actor Actor, img io.Reader, filename string) (User, error) {
	if s.uploader == nil {
		return User{}, ErrUploadsDisabled
	}
	u, err := s.store.GetUser(ctx, actor.ID)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	url, err := s.uploader.UploadImage(ctx, img, filename)
	if err != nil {
		return User{}, err
	}
	u.ProfilePic = url
	u.UpdatedAt = s.clock()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

// PendingCoordinators lists coordinator accounts awaiting approval.
func (s *Service) PendingCoordinators(ctx context.Context, actor Actor) ([]User, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListPendingCoordinators(ctx)
}

// ApproveCoordinator verifies a coordinator and links them to the club they
// asked for, creating it when missing.
func (s *Service) ApproveCoordinator(ctx context.Context, actor Actor, userID string) (User, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return User{}, err
	}
	var u User
	err := s.store.InTx(ctx, func(r Repository) error {
		var err error
		u, err = r.GetUser(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if u.Role != RoleCoordinator {
			return ErrNotCoordinator
		}
		if u.Verified {
			return ErrAlreadyVerified
		}
		now := s.clock()
		if u.ClubName != "" {
			club, err := r.GetClubByName(ctx, u.ClubName)
			if errors.Is(err, ErrNotFound) {
				club = Club{
					ID:          s.newID(),
					Name:        u.ClubName,
					Description: "Club for " + u.ClubName,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				err = r.CreateClub(ctx, &club)
				if err == nil {
					logger.Info.Printf("created club %s %q for coordinator %s", club.ID, club.Name, u.ID)
				}
			}
			if err != nil {
				return err
			}
			u.ClubID = club.ID
		}
		u.Verified = true
		u.UpdatedAt = now
		return r.UpdateUser(ctx, u)
	})
	if err != nil {
		return User{}, err
	}
	logger.Info.Printf("coordinator %s approved by %s", u.ID, actor.ID)

	ctx, cancel := s.detached(ctx)
	defer cancel()
	s.notify(ctx, notify.Notification{
		To:      u.Email,
		Subject: "Coordinator Approved",
		Body:    "Your coordinator profile is verified. You can now login.",
	})
	return u, nil
}

// RejectCoordinator deletes a pending coordinator account.
func (s *Service) RejectCoordinator(ctx context.Context, actor Actor, userID string) error {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return err
	}
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if u.Role != RoleCoordinator {
		return ErrNotCoordinator
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	logger.Info.Printf("coordinator %s rejected by %s", u.ID, actor.ID)

	ctx, cancel := s.detached(ctx)
	defer cancel()
	s.notify(ctx, notify.Notification{
		To:      u.Email,
		Subject: "Coordinator Request Rejected",
		Body: fmt.Sprintf("Dear %s,\n\nWe regret to inform you that your request to be a coordinator has been rejected.\n\nBest regards,\nAdmin Team",
			u.Name),
	})
	return nil
}
