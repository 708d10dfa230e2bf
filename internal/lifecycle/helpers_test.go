package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clubhub/internal/notify"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// fixture is a service over a memory store with an admin, a coordinator
// belonging to a club, and a controllable clock.
type fixture struct {
	t     *testing.T
	store Store
	svc   *Service
	clock *fakeClock

	admin Actor
	coord Actor
	club  Club
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	return newFixtureWithStore(t, NewMemoryStore(), opts...)
}

func newFixtureWithStore(t *testing.T, store Store, opts ...Option) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	f := &fixture{t: t, store: store, svc: NewService(store, opts...), clock: clock}

	ctx := context.Background()
	f.club = Club{ID: uuid.NewString(), Name: "Robotics " + uuid.NewString()[:8], Department: "ECE", CreatedAt: clock.Now(), UpdatedAt: clock.Now()}
	require.NoError(t, store.CreateClub(ctx, &f.club))
	f.admin = f.user(RoleAdmin, "Admin", "")
	f.coord = f.user(RoleCoordinator, "Coordinator", f.club.ID)
	return f
}

// user stores an account directly, skipping password hashing.
func (f *fixture) user(role Role, name, clubID string) Actor {
	f.t.Helper()
	id := uuid.NewString()
	u := User{
		ID:        id,
		Name:      name,
		Email:     fmt.Sprintf("%s-%s@college.test", role, id[:8]),
		Role:      role,
		ClubID:    clubID,
		Verified:  true,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(f.t, f.store.CreateUser(context.Background(), &u))
	return Actor{ID: id, Role: role}
}

func (f *fixture) student(name string) Actor { return f.user(RoleStudent, name, "") }

func (f *fixture) approvedVenue(name string, date time.Time) VenueRequest {
	f.t.Helper()
	ctx := context.Background()
	vr, err := f.svc.RequestVenue(ctx, f.coord, VenueRequestInput{Venue: "Hall A", EventName: name, EventDate: date})
	require.NoError(f.t, err)
	vr, err = f.svc.ApproveVenueRequest(ctx, f.admin, vr.ID)
	require.NoError(f.t, err)
	return vr
}

// event creates an event a week from the fixture's current time.
func (f *fixture) event(title string) Event {
	f.t.Helper()
	vr := f.approvedVenue(title, f.clock.Now().Add(7*24*time.Hour))
	ev, err := f.svc.CreateEvent(context.Background(), f.coord, CreateEventInput{Title: title, VenueRequestID: vr.ID})
	require.NoError(f.t, err)
	return ev
}

func (f *fixture) register(ev Event, students ...Actor) {
	f.t.Helper()
	for _, s := range students {
		require.NoError(f.t, f.svc.Register(context.Background(), s, ev.ID))
	}
}

func mark(a Actor, present bool) Mark {
	return Mark{UserID: a.ID, Present: &present}
}
