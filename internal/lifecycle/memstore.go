package lifecycle

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"
)

// memData holds every table of the in-memory store.
type memData struct {
	users         map[string]User
	clubs         map[string]Club
	venueRequests map[string]VenueRequest
	events        map[string]Event
	attendance    map[string]Attendance // by eventID/studentID
	progress      map[string]AttendanceProgress
	certificates  map[string]Certificate
}

func newMemData() *memData {
	return &memData{
		users:         make(map[string]User),
		clubs:         make(map[string]Club),
		venueRequests: make(map[string]VenueRequest),
		events:        make(map[string]Event),
		attendance:    make(map[string]Attendance),
		progress:      make(map[string]AttendanceProgress),
		certificates:  make(map[string]Certificate),
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:         maps.Clone(d.users),
		clubs:         maps.Clone(d.clubs),
		venueRequests: maps.Clone(d.venueRequests),
		events:        make(map[string]Event, len(d.events)),
		attendance:    maps.Clone(d.attendance),
		progress:      make(map[string]AttendanceProgress, len(d.progress)),
		certificates:  maps.Clone(d.certificates),
	}
	for id, ev := range d.events {
		c.events[id] = cloneEvent(ev)
	}
	for k, p := range d.progress {
		p.Attendees = slices.Clone(p.Attendees)
		c.progress[k] = p
	}
	return c
}

func cloneEvent(ev Event) Event {
	ev.RegisteredStudents = slices.Clone(ev.RegisteredStudents)
	ev.Participants = slices.Clone(ev.Participants)
	ev.Registrations = slices.Clone(ev.Registrations)
	if ev.RegistrationClosedAt != nil {
		t := *ev.RegistrationClosedAt
		ev.RegistrationClosedAt = &t
	}
	if ev.AttendanceSubmittedAt != nil {
		t := *ev.AttendanceSubmittedAt
		ev.AttendanceSubmittedAt = &t
	}
	return ev
}

func pairKey(a, b string) string { return a + "/" + b }

// MemoryStore is a Store kept in process memory. Transactions hold the store
// lock and apply to a copy that replaces the live data on success.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

// InTx implements Store. It runs fn against a full copy of the dataset and
// swaps the copy in on success, so every transaction costs O(data) and
// transactions are serialized. Fine for tests and small dev runs only.
func (m *MemoryStore) InTx(ctx context.Context, fn func(Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.data.clone()
	if err := fn(memRepo{work}); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (m *MemoryStore) repo() (memRepo, func()) {
	m.mu.Lock()
	return memRepo{m.data}, m.mu.Unlock
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *User) error {
	r, unlock := m.repo()
	defer unlock()
	return r.CreateUser(ctx, u)
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (User, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetUser(ctx, id)
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetUserByEmail(ctx, email)
}

func (m *MemoryStore) ListUsers(ctx context.Context, ids []string) ([]User, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListUsers(ctx, ids)
}

func (m *MemoryStore) ListPendingCoordinators(ctx context.Context) ([]User, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListPendingCoordinators(ctx)
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u User) error {
	r, unlock := m.repo()
	defer unlock()
	return r.UpdateUser(ctx, u)
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	r, unlock := m.repo()
	defer unlock()
	return r.DeleteUser(ctx, id)
}

func (m *MemoryStore) CreateClub(ctx context.Context, c *Club) error {
	r, unlock := m.repo()
	defer unlock()
	return r.CreateClub(ctx, c)
}

func (m *MemoryStore) GetClub(ctx context.Context, id string) (Club, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetClub(ctx, id)
}

func (m *MemoryStore) GetClubByName(ctx context.Context, name string) (Club, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetClubByName(ctx, name)
}

func (m *MemoryStore) ListClubs(ctx context.Context) ([]Club, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListClubs(ctx)
}

func (m *MemoryStore) UpdateClub(ctx context.Context, c Club) error {
	r, unlock := m.repo()
	defer unlock()
	return r.UpdateClub(ctx, c)
}

func (m *MemoryStore) DeleteClub(ctx context.Context, id string) error {
	r, unlock := m.repo()
	defer unlock()
	return r.DeleteClub(ctx, id)
}

func (m *MemoryStore) CreateVenueRequest(ctx context.Context, vr *VenueRequest) error {
	r, unlock := m.repo()
	defer unlock()
	return r.CreateVenueRequest(ctx, vr)
}

func (m *MemoryStore) GetVenueRequest(ctx context.Context, id string) (VenueRequest, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetVenueRequest(ctx, id)
}

func (m *MemoryStore) ListVenueRequests(ctx context.Context, coordinatorID string, pendingOnly bool) ([]VenueRequest, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListVenueRequests(ctx, coordinatorID, pendingOnly)
}

func (m *MemoryStore) ApproveVenueRequest(ctx context.Context, id string, at time.Time) (VenueRequest, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ApproveVenueRequest(ctx, id, at)
}

func (m *MemoryStore) DeleteVenueRequest(ctx context.Context, id string) error {
	r, unlock := m.repo()
	defer unlock()
	return r.DeleteVenueRequest(ctx, id)
}

func (m *MemoryStore) LockVenueRetention(ctx context.Context) error { return nil }

func (m *MemoryStore) ListApprovedVenueRequests(ctx context.Context) ([]VenueRequest, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListApprovedVenueRequests(ctx)
}

func (m *MemoryStore) DeleteApprovedVenueRequests(ctx context.Context, ids []string) (int, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.DeleteApprovedVenueRequests(ctx, ids)
}

func (m *MemoryStore) CountApprovedVenueRequests(ctx context.Context) (int, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.CountApprovedVenueRequests(ctx)
}

func (m *MemoryStore) CreateEvent(ctx context.Context, ev *Event) error {
	r, unlock := m.repo()
	defer unlock()
	return r.CreateEvent(ctx, ev)
}

func (m *MemoryStore) GetEvent(ctx context.Context, id string) (Event, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetEvent(ctx, id)
}

func (m *MemoryStore) GetEventForUpdate(ctx context.Context, id string) (Event, error) {
	return m.GetEvent(ctx, id)
}

func (m *MemoryStore) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListEvents(ctx, f)
}

func (m *MemoryStore) AddRegistration(ctx context.Context, eventID, studentID string, at time.Time) (bool, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.AddRegistration(ctx, eventID, studentID, at)
}

func (m *MemoryStore) CloseRegistration(ctx context.Context, eventID, actorID string, at time.Time) (bool, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.CloseRegistration(ctx, eventID, actorID, at)
}

func (m *MemoryStore) CompleteAttendance(ctx context.Context, eventID, actorID string, at time.Time) (bool, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.CompleteAttendance(ctx, eventID, actorID, at)
}

func (m *MemoryStore) UpsertAttendance(ctx context.Context, a Attendance) error {
	r, unlock := m.repo()
	defer unlock()
	return r.UpsertAttendance(ctx, a)
}

func (m *MemoryStore) ListAttendance(ctx context.Context, eventID string) ([]Attendance, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListAttendance(ctx, eventID)
}

func (m *MemoryStore) SaveProgress(ctx context.Context, p AttendanceProgress) error {
	r, unlock := m.repo()
	defer unlock()
	return r.SaveProgress(ctx, p)
}

func (m *MemoryStore) GetProgress(ctx context.Context, eventID, coordinatorID string) (AttendanceProgress, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetProgress(ctx, eventID, coordinatorID)
}

func (m *MemoryStore) DeleteEventProgress(ctx context.Context, eventID string) error {
	r, unlock := m.repo()
	defer unlock()
	return r.DeleteEventProgress(ctx, eventID)
}

func (m *MemoryStore) CreateCertificate(ctx context.Context, c *Certificate) (bool, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.CreateCertificate(ctx, c)
}

func (m *MemoryStore) GetCertificate(ctx context.Context, id string) (CertificateView, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.GetCertificate(ctx, id)
}

func (m *MemoryStore) ListCertificates(ctx context.Context, studentID string) ([]CertificateView, error) {
	r, unlock := m.repo()
	defer unlock()
	return r.ListCertificates(ctx, studentID)
}

// memRepo implements Repository over memData. Callers hold the store lock.
type memRepo struct {
	d *memData
}

func (r memRepo) CreateUser(_ context.Context, u *User) error {
	for _, other := range r.d.users {
		if other.Email == u.Email {
			return ErrDuplicate
		}
	}
	r.d.users[u.ID] = *u
	return nil
}

func (r memRepo) GetUser(_ context.Context, id string) (User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r memRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, u := range r.d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r memRepo) ListUsers(_ context.Context, ids []string) ([]User, error) {
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.d.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r memRepo) ListPendingCoordinators(_ context.Context) ([]User, error) {
	var users []User
	for _, u := range r.d.users {
		if u.Role == RoleCoordinator && !u.Verified {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r memRepo) UpdateUser(_ context.Context, u User) error {
	if _, ok := r.d.users[u.ID]; !ok {
		return ErrNotFound
	}
	r.d.users[u.ID] = u
	return nil
}

func (r memRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := r.d.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.d.users, id)
	return nil
}

func (r memRepo) clubNameTaken(name, exceptID string) bool {
	for _, c := range r.d.clubs {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (r memRepo) CreateClub(_ context.Context, c *Club) error {
	if r.clubNameTaken(c.Name, "") {
		return ErrDuplicate
	}
	r.d.clubs[c.ID] = *c
	return nil
}

func (r memRepo) GetClub(_ context.Context, id string) (Club, error) {
	c, ok := r.d.clubs[id]
	if !ok {
		return Club{}, ErrNotFound
	}
	return c, nil
}

func (r memRepo) GetClubByName(_ context.Context, name string) (Club, error) {
	for _, c := range r.d.clubs {
		if c.Name == name {
			return c, nil
		}
	}
	return Club{}, ErrNotFound
}

func (r memRepo) ListClubs(_ context.Context) ([]Club, error) {
	clubs := make([]Club, 0, len(r.d.clubs))
	for _, c := range r.d.clubs {
		clubs = append(clubs, c)
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].Name < clubs[j].Name })
	return clubs, nil
}

func (r memRepo) UpdateClub(_ context.Context, c Club) error {
	if _, ok := r.d.clubs[c.ID]; !ok {
		return ErrNotFound
	}
	if r.clubNameTaken(c.Name, c.ID) {
		return ErrDuplicate
	}
	r.d.clubs[c.ID] = c
	return nil
}

func (r memRepo) DeleteClub(_ context.Context, id string) error {
	if _, ok := r.d.clubs[id]; !ok {
		return ErrNotFound
	}
	delete(r.d.clubs, id)
	for uid, u := range r.d.users {
		if u.ClubID == id {
			u.ClubID = ""
			r.d.users[uid] = u
		}
	}
	return nil
}

func (r memRepo) CreateVenueRequest(_ context.Context, vr *VenueRequest) error {
	r.d.venueRequests[vr.ID] = *vr
	return nil
}

func (r memRepo) GetVenueRequest(_ context.Context, id string) (VenueRequest, error) {
	vr, ok := r.d.venueRequests[id]
	if !ok {
		return VenueRequest{}, ErrNotFound
	}
	return vr, nil
}

func (r memRepo) ListVenueRequests(_ context.Context, coordinatorID string, pendingOnly bool) ([]VenueRequest, error) {
	var out []VenueRequest
	for _, vr := range r.d.venueRequests {
		if coordinatorID != "" && vr.CoordinatorID != coordinatorID {
			continue
		}
		if pendingOnly && vr.Approved {
			continue
		}
		out = append(out, vr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memRepo) ApproveVenueRequest(_ context.Context, id string, at time.Time) (VenueRequest, error) {
	vr, ok := r.d.venueRequests[id]
	if !ok {
		return VenueRequest{}, ErrNotFound
	}
	vr.Approved = true
	vr.UpdatedAt = at
	r.d.venueRequests[id] = vr
	return vr, nil
}

func (r memRepo) DeleteVenueRequest(_ context.Context, id string) error {
	if _, ok := r.d.venueRequests[id]; !ok {
		return ErrNotFound
	}
	delete(r.d.venueRequests, id)
	return nil
}

// LockVenueRetention is a no-op: a memRepo only exists under the store lock.
func (r memRepo) LockVenueRetention(context.Context) error { return nil }

func (r memRepo) ListApprovedVenueRequests(_ context.Context) ([]VenueRequest, error) {
	var out []VenueRequest
	for _, vr := range r.d.venueRequests {
		if vr.Approved {
			out = append(out, vr)
		}
	}
	return out, nil
}

func (r memRepo) DeleteApprovedVenueRequests(_ context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if vr, ok := r.d.venueRequests[id]; ok && vr.Approved {
			delete(r.d.venueRequests, id)
			n++
		}
	}
	return n, nil
}

func (r memRepo) CountApprovedVenueRequests(_ context.Context) (int, error) {
	n := 0
	for _, vr := range r.d.venueRequests {
		if vr.Approved {
			n++
		}
	}
	return n, nil
}

func (r memRepo) CreateEvent(_ context.Context, ev *Event) error {
	r.d.events[ev.ID] = cloneEvent(*ev)
	return nil
}

// view returns a detached copy of a stored event with derived fields filled in.
func (r memRepo) view(ev Event) Event {
	ev = cloneEvent(ev)
	if ev.RegisteredStudents == nil {
		ev.RegisteredStudents = []string{}
	}
	ev.RegisteredCount = len(ev.RegisteredStudents)
	if c, ok := r.d.clubs[ev.ClubID]; ok {
		ev.ClubName = c.Name
	}
	return ev
}

func (r memRepo) GetEvent(_ context.Context, id string) (Event, error) {
	ev, ok := r.d.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return r.view(ev), nil
}

func (r memRepo) GetEventForUpdate(ctx context.Context, id string) (Event, error) {
	return r.GetEvent(ctx, id)
}

func hasStudent(ev Event, studentID string) bool {
	if slices.Contains(ev.RegisteredStudents, studentID) || slices.Contains(ev.Participants, studentID) {
		return true
	}
	return slices.ContainsFunc(ev.Registrations, func(reg LegacyRegistration) bool { return reg.UserID == studentID })
}

func (r memRepo) ListEvents(_ context.Context, f EventFilter) ([]Event, error) {
	var out []Event
	for _, ev := range r.d.events {
		if f.CoordinatorID != "" && ev.CoordinatorID != f.CoordinatorID {
			continue
		}
		if f.ClubID != "" && ev.ClubID != f.ClubID {
			continue
		}
		if f.StudentID != "" && !hasStudent(ev, f.StudentID) {
			continue
		}
		out = append(out, r.view(ev))
	}
	sort.Slice(out, func(i, j int) bool {
		if f.OrderBy == "created" {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memRepo) AddRegistration(_ context.Context, eventID, studentID string, at time.Time) (bool, error) {
	ev, ok := r.d.events[eventID]
	if !ok {
		return false, ErrNotFound
	}
	if slices.Contains(ev.RegisteredStudents, studentID) {
		return false, nil
	}
	ev.RegisteredStudents = append(slices.Clone(ev.RegisteredStudents), studentID)
	ev.UpdatedAt = at
	r.d.events[eventID] = ev
	return true, nil
}

func (r memRepo) CloseRegistration(_ context.Context, eventID, actorID string, at time.Time) (bool, error) {
	ev, ok := r.d.events[eventID]
	if !ok {
		return false, ErrNotFound
	}
	if ev.RegistrationClosed {
		return false, nil
	}
	ev.RegistrationClosed = true
	ev.RegistrationClosedAt = &at
	ev.RegistrationClosedBy = actorID
	ev.UpdatedAt = at
	r.d.events[eventID] = ev
	return true, nil
}

func (r memRepo) CompleteAttendance(_ context.Context, eventID, actorID string, at time.Time) (bool, error) {
	ev, ok := r.d.events[eventID]
	if !ok {
		return false, ErrNotFound
	}
	if ev.AttendanceCompleted {
		return false, nil
	}
	ev.AttendanceCompleted = true
	ev.AttendanceSubmittedAt = &at
	if !ev.RegistrationClosed {
		ev.RegistrationClosed = true
		ev.RegistrationClosedAt = &at
		ev.RegistrationClosedBy = actorID
	}
	ev.UpdatedAt = at
	r.d.events[eventID] = ev
	return true, nil
}

func (r memRepo) UpsertAttendance(_ context.Context, a Attendance) error {
	key := pairKey(a.EventID, a.StudentID)
	if prev, ok := r.d.attendance[key]; ok {
		a.ID = prev.ID
	}
	r.d.attendance[key] = a
	return nil
}

func (r memRepo) ListAttendance(_ context.Context, eventID string) ([]Attendance, error) {
	var out []Attendance
	for _, a := range r.d.attendance {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (r memRepo) SaveProgress(_ context.Context, p AttendanceProgress) error {
	p.Attendees = slices.Clone(p.Attendees)
	r.d.progress[pairKey(p.EventID, p.CoordinatorID)] = p
	return nil
}

func (r memRepo) GetProgress(_ context.Context, eventID, coordinatorID string) (AttendanceProgress, error) {
	p, ok := r.d.progress[pairKey(eventID, coordinatorID)]
	if !ok {
		return AttendanceProgress{}, ErrNotFound
	}
	p.Attendees = slices.Clone(p.Attendees)
	return p, nil
}

func (r memRepo) DeleteEventProgress(_ context.Context, eventID string) error {
	for k, p := range r.d.progress {
		if p.EventID == eventID {
			delete(r.d.progress, k)
		}
	}
	return nil
}

func (r memRepo) CreateCertificate(_ context.Context, c *Certificate) (bool, error) {
	for _, existing := range r.d.certificates {
		if existing.EventID == c.EventID && existing.StudentID == c.StudentID {
			return false, nil
		}
	}
	r.d.certificates[c.ID] = *c
	return true, nil
}

func (r memRepo) certificateView(c Certificate) CertificateView {
	v := CertificateView{
		ID:        c.ID,
		EventID:   c.EventID,
		StudentID: c.StudentID,
		IssueDate: c.GeneratedAt,
		FileURL:   c.FileURL,
	}
	if ev, ok := r.d.events[c.EventID]; ok {
		v.EventTitle = ev.Title
		v.Date = ev.Date
		v.Venue = ev.Venue
		if club, ok := r.d.clubs[ev.ClubID]; ok {
			v.ClubName = club.Name
		}
	}
	return v
}

func (r memRepo) GetCertificate(_ context.Context, id string) (CertificateView, error) {
	c, ok := r.d.certificates[id]
	if !ok {
		return CertificateView{}, ErrNotFound
	}
	return r.certificateView(c), nil
}

func (r memRepo) ListCertificates(_ context.Context, studentID string) ([]CertificateView, error) {
	var certs []Certificate
	for _, c := range r.d.certificates {
		if c.StudentID == studentID {
			certs = append(certs, c)
		}
	}
	sort.Slice(certs, func(i, j int) bool { return certs[i].GeneratedAt.After(certs[j].GeneratedAt) })
	out := make([]CertificateView, 0, len(certs))
	for _, c := range certs {
		out = append(out, r.certificateView(c))
	}
	return out, nil
}
