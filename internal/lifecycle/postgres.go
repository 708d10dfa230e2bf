package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the lifecycle in Postgres through database/sql and pgx.
type PostgresStore struct {
	pgRepo
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open database whose schema is already migrated.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{pgRepo: pgRepo{q: db}, db: db}
}

// InTx implements Store.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(pgRepo{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgRepo struct {
	q querier
}

const uniqueViolation = "23505"

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

type scanner interface {
	Scan(dest ...any) error
}

// affected reports whether an exec changed at least one row.
func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// users

const userCols = `id, name, email, password_hash, role, department, student_id, club_id, club_name, profile_pic, verified, created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var (
		u      User
		clubID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Department, &u.StudentID,
		&clubID, &u.ClubName, &u.ProfilePic, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	u.ClubID = clubID.String
	return u, mapErr(err)
}

func (r pgRepo) CreateUser(ctx context.Context, u *User) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO users (`+userCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Department, u.StudentID,
		nullString(u.ClubID), u.ClubName, u.ProfilePic, u.Verified, u.CreatedAt, u.UpdatedAt)
	return mapErr(err)
}

func (r pgRepo) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(r.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r pgRepo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r pgRepo) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r pgRepo) ListUsers(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	found, err := r.queryUsers(ctx, `SELECT `+userCols+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r pgRepo) ListPendingCoordinators(ctx context.Context) ([]User, error) {
	return r.queryUsers(ctx, `SELECT `+userCols+` FROM users
		WHERE role = 'coordinator' AND NOT verified ORDER BY created_at`)
}

func (r pgRepo) UpdateUser(ctx context.Context, u User) error {
	ok, err := affected(r.q.ExecContext(ctx, `UPDATE users SET name = $2, email = $3, password_hash = $4,
		role = $5, department = $6, student_id = $7, club_id = $8, club_name = $9, profile_pic = $10,
		verified = $11, updated_at = $12
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Department, u.StudentID,
		nullString(u.ClubID), u.ClubName, u.ProfilePic, u.Verified, u.UpdatedAt))
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r pgRepo) DeleteUser(ctx context.Context, id string) error {
	ok, err := affected(r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// clubs

const clubCols = `id, name, description, department, logo_url, created_at, updated_at`

func scanClub(row scanner) (Club, error) {
	var c Club
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Department, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	return c, mapErr(err)
}

func (r pgRepo) CreateClub(ctx context.Context, c *Club) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO clubs (`+clubCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Description, c.Department, c.LogoURL, c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

func (r pgRepo) GetClub(ctx context.Context, id string) (Club, error) {
	return scanClub(r.q.QueryRowContext(ctx, `SELECT `+clubCols+` FROM clubs WHERE id = $1`, id))
}

func (r pgRepo) GetClubByName(ctx context.Context, name string) (Club, error) {
	return scanClub(r.q.QueryRowContext(ctx, `SELECT `+clubCols+` FROM clubs WHERE name = $1`, name))
}

func (r pgRepo) ListClubs(ctx context.Context) ([]Club, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+clubCols+` FROM clubs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query clubs: %w", err)
	}
	defer rows.Close()
	clubs := []Club{}
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

func (r pgRepo) UpdateClub(ctx context.Context, c Club) error {
	ok, err := affected(r.q.ExecContext(ctx, `UPDATE clubs SET name = $2, description = $3, department = $4,
		logo_url = $5, updated_at = $6 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Department, c.LogoURL, c.UpdatedAt))
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r pgRepo) DeleteClub(ctx context.Context, id string) error {
	ok, err := affected(r.q.ExecContext(ctx, `DELETE FROM clubs WHERE id = $1`, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// venue requests

const venueCols = `id, venue, event_name, event_date, time_from, time_to, description, coordinator_id, approved, created_at, updated_at`

func scanVenueRequest(row scanner) (VenueRequest, error) {
	var vr VenueRequest
	err := row.Scan(&vr.ID, &vr.Venue, &vr.EventName, &vr.EventDate, &vr.TimeFrom, &vr.TimeTo,
		&vr.Description, &vr.CoordinatorID, &vr.Approved, &vr.CreatedAt, &vr.UpdatedAt)
	return vr, mapErr(err)
}

func (r pgRepo) queryVenueRequests(ctx context.Context, query string, args ...any) ([]VenueRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query venue requests: %w", err)
	}
	defer rows.Close()
	var out []VenueRequest
	for rows.Next() {
		vr, err := scanVenueRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vr)
	}
	return out, rows.Err()
}

func (r pgRepo) CreateVenueRequest(ctx context.Context, vr *VenueRequest) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO venue_requests (`+venueCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		vr.ID, vr.Venue, vr.EventName, vr.EventDate, vr.TimeFrom, vr.TimeTo, vr.Description,
		vr.CoordinatorID, vr.Approved, vr.CreatedAt, vr.UpdatedAt)
	return mapErr(err)
}

func (r pgRepo) GetVenueRequest(ctx context.Context, id string) (VenueRequest, error) {
	return scanVenueRequest(r.q.QueryRowContext(ctx, `SELECT `+venueCols+` FROM venue_requests WHERE id = $1`, id))
}

func (r pgRepo) ListVenueRequests(ctx context.Context, coordinatorID string, pendingOnly bool) ([]VenueRequest, error) {
	query := `SELECT ` + venueCols + ` FROM venue_requests WHERE ($1 = '' OR coordinator_id = $1)`
	if pendingOnly {
		query += ` AND NOT approved`
	}
	return r.queryVenueRequests(ctx, query+` ORDER BY created_at DESC`, coordinatorID)
}

func (r pgRepo) ApproveVenueRequest(ctx context.Context, id string, at time.Time) (VenueRequest, error) {
	return scanVenueRequest(r.q.QueryRowContext(ctx, `UPDATE venue_requests SET approved = TRUE, updated_at = $2
		WHERE id = $1 RETURNING `+venueCols, id, at))
}

func (r pgRepo) DeleteVenueRequest(ctx context.Context, id string) error {
	ok, err := affected(r.q.ExecContext(ctx, `DELETE FROM venue_requests WHERE id = $1`, id))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r pgRepo) LockVenueRetention(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('venue_requests_retention'))`)
	return err
}

func (r pgRepo) ListApprovedVenueRequests(ctx context.Context) ([]VenueRequest, error) {
	return r.queryVenueRequests(ctx, `SELECT `+venueCols+` FROM venue_requests WHERE approved
		ORDER BY updated_at DESC, created_at DESC, id DESC`)
}

func (r pgRepo) DeleteApprovedVenueRequests(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM venue_requests WHERE approved AND id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r pgRepo) CountApprovedVenueRequests(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM venue_requests WHERE approved`).Scan(&n)
	return n, err
}

// events

const eventSelect = `SELECT e.id, e.title, e.description, e.date, e.venue, e.club_id, COALESCE(c.name, ''),
	e.coordinator_id, e.venue_request_id, e.registrations, e.registration_closed, e.registration_closed_at,
	e.registration_closed_by, e.attendance_completed, e.attendance_submitted_at, e.created_at, e.updated_at
	FROM events e LEFT JOIN clubs c ON c.id = e.club_id`

func scanEvent(row scanner) (Event, error) {
	var (
		ev                  Event
		legacy              []byte
		closedAt, submitted sql.NullTime
	)
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Date, &ev.Venue, &ev.ClubID, &ev.ClubName,
		&ev.CoordinatorID, &ev.VenueRequestID, &legacy, &ev.RegistrationClosed, &closedAt,
		&ev.RegistrationClosedBy, &ev.AttendanceCompleted, &submitted, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return Event{}, mapErr(err)
	}
	if len(legacy) > 0 {
		if err := json.Unmarshal(legacy, &ev.Registrations); err != nil {
			return Event{}, fmt.Errorf("decode registrations of event %s: %w", ev.ID, err)
		}
	}
	ev.RegistrationClosedAt = nullTime(closedAt)
	ev.AttendanceSubmittedAt = nullTime(submitted)
	ev.RegisteredStudents = []string{}
	return ev, nil
}

func (r pgRepo) CreateEvent(ctx context.Context, ev *Event) error {
	legacy, err := json.Marshal(ev.Registrations)
	if err != nil {
		return err
	}
	if ev.Registrations == nil {
		legacy = []byte("[]")
	}
	_, err = r.q.ExecContext(ctx, `INSERT INTO events (id, title, description, date, venue, club_id,
		coordinator_id, venue_request_id, registrations, registration_closed, registration_closed_at,
		registration_closed_by, attendance_completed, attendance_submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11, $12, $13, $14, $15, $16)`,
		ev.ID, ev.Title, ev.Description, ev.Date, ev.Venue, ev.ClubID, ev.CoordinatorID, ev.VenueRequestID,
		string(legacy), ev.RegistrationClosed, ev.RegistrationClosedAt, ev.RegistrationClosedBy,
		ev.AttendanceCompleted, ev.AttendanceSubmittedAt, ev.CreatedAt, ev.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	for _, id := range ev.RegisteredStudents {
		if _, err := r.AddRegistration(ctx, ev.ID, id, ev.CreatedAt); err != nil {
			return err
		}
	}
	for _, id := range ev.Participants {
		if _, err := r.q.ExecContext(ctx, `INSERT INTO event_participants (event_id, student_id, added_at)
			VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, ev.ID, id, ev.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r pgRepo) getEvent(ctx context.Context, query string, id string) (Event, error) {
	ev, err := scanEvent(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return Event{}, err
	}
	events := []Event{ev}
	if err := r.loadRosters(ctx, events); err != nil {
		return Event{}, err
	}
	return events[0], nil
}

func (r pgRepo) GetEvent(ctx context.Context, id string) (Event, error) {
	return r.getEvent(ctx, eventSelect+` WHERE e.id = $1`, id)
}

func (r pgRepo) GetEventForUpdate(ctx context.Context, id string) (Event, error) {
	return r.getEvent(ctx, eventSelect+` WHERE e.id = $1 FOR UPDATE OF e`, id)
}

// loadRosters fills RegisteredStudents and Participants of events in place.
func (r pgRepo) loadRosters(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	index := make(map[string]int, len(events))
	ids := make([]string, len(events))
	for i, ev := range events {
		index[ev.ID] = i
		ids[i] = ev.ID
	}
	load := func(query string, assign func(i int, studentID string)) error {
		rows, err := r.q.QueryContext(ctx, query, ids)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var eventID, studentID string
			if err := rows.Scan(&eventID, &studentID); err != nil {
				return err
			}
			assign(index[eventID], studentID)
		}
		return rows.Err()
	}
	err := load(`SELECT event_id, student_id FROM event_registrations WHERE event_id = ANY($1)
		ORDER BY registered_at, student_id`, func(i int, sid string) {
		events[i].RegisteredStudents = append(events[i].RegisteredStudents, sid)
	})
	if err != nil {
		return fmt.Errorf("load registrations: %w", err)
	}
	err = load(`SELECT event_id, student_id FROM event_participants WHERE event_id = ANY($1)
		ORDER BY added_at, student_id`, func(i int, sid string) {
		events[i].Participants = append(events[i].Participants, sid)
	})
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	for i := range events {
		events[i].RegisteredCount = len(events[i].RegisteredStudents)
	}
	return nil
}

func (r pgRepo) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	var (
		conds []string
		args  []any
	)
	where := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.CoordinatorID != "" {
		where(`e.coordinator_id = ?`, f.CoordinatorID)
	}
	if f.ClubID != "" {
		where(`e.club_id = ?`, f.ClubID)
	}
	if f.StudentID != "" {
		where(`(EXISTS (SELECT 1 FROM event_registrations r WHERE r.event_id = e.id AND r.student_id = ?)
			OR EXISTS (SELECT 1 FROM event_participants p WHERE p.event_id = e.id AND p.student_id = ?)
			OR e.registrations @> jsonb_build_array(jsonb_build_object('userId', ?::text)))`, f.StudentID)
	}

	query := eventSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	if f.OrderBy == "created" {
		query += ` ORDER BY e.created_at DESC`
	} else {
		query += ` ORDER BY e.date DESC`
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRosters(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r pgRepo) AddRegistration(ctx context.Context, eventID, studentID string, at time.Time) (bool, error) {
	added, err := affected(r.q.ExecContext(ctx, `INSERT INTO event_registrations (event_id, student_id, registered_at)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, eventID, studentID, at))
	if err != nil || !added {
		return false, err
	}
	_, err = r.q.ExecContext(ctx, `UPDATE events SET updated_at = $2 WHERE id = $1`, eventID, at)
	return true, err
}

func (r pgRepo) CloseRegistration(ctx context.Context, eventID, actorID string, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx, `UPDATE events SET registration_closed = TRUE,
		registration_closed_at = $3, registration_closed_by = $2, updated_at = $3
		WHERE id = $1 AND NOT registration_closed`, eventID, actorID, at))
}

func (r pgRepo) CompleteAttendance(ctx context.Context, eventID, actorID string, at time.Time) (bool, error) {
	return affected(r.q.ExecContext(ctx, `UPDATE events SET attendance_completed = TRUE,
		attendance_submitted_at = $3,
		registration_closed_at = CASE WHEN registration_closed THEN registration_closed_at ELSE $3 END,
		registration_closed_by = CASE WHEN registration_closed THEN registration_closed_by ELSE $2 END,
		registration_closed = TRUE, updated_at = $3
		WHERE id = $1 AND NOT attendance_completed`, eventID, actorID, at))
}

// attendance

func (r pgRepo) UpsertAttendance(ctx context.Context, a Attendance) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO attendance (id, event_id, student_id, present, marked_by, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, student_id) DO UPDATE SET present = EXCLUDED.present,
			marked_by = EXCLUDED.marked_by, submitted_at = EXCLUDED.submitted_at, updated_at = EXCLUDED.updated_at`,
		a.ID, a.EventID, a.StudentID, a.Present, a.MarkedBy, a.SubmittedAt, a.UpdatedAt)
	return mapErr(err)
}

func (r pgRepo) ListAttendance(ctx context.Context, eventID string) ([]Attendance, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, event_id, student_id, present, marked_by, submitted_at, updated_at
		FROM attendance WHERE event_id = $1 ORDER BY student_id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()
	var out []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.EventID, &a.StudentID, &a.Present, &a.MarkedBy, &a.SubmittedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r pgRepo) SaveProgress(ctx context.Context, p AttendanceProgress) error {
	marks := p.Attendees
	if marks == nil {
		marks = []DraftMark{}
	}
	raw, err := json.Marshal(marks)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `INSERT INTO attendance_progress (event_id, coordinator_id, attendees, updated_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (event_id, coordinator_id) DO UPDATE SET attendees = EXCLUDED.attendees, updated_at = EXCLUDED.updated_at`,
		p.EventID, p.CoordinatorID, string(raw), p.UpdatedAt)
	return mapErr(err)
}

func (r pgRepo) GetProgress(ctx context.Context, eventID, coordinatorID string) (AttendanceProgress, error) {
	var (
		p   AttendanceProgress
		raw []byte
	)
	err := r.q.QueryRowContext(ctx, `SELECT event_id, coordinator_id, attendees, updated_at
		FROM attendance_progress WHERE event_id = $1 AND coordinator_id = $2`, eventID, coordinatorID).
		Scan(&p.EventID, &p.CoordinatorID, &raw, &p.UpdatedAt)
	if err != nil {
		return AttendanceProgress{}, mapErr(err)
	}
	if err := json.Unmarshal(raw, &p.Attendees); err != nil {
		return AttendanceProgress{}, fmt.Errorf("decode attendance progress: %w", err)
	}
	return p, nil
}

func (r pgRepo) DeleteEventProgress(ctx context.Context, eventID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM attendance_progress WHERE event_id = $1`, eventID)
	return err
}

// certificates

func (r pgRepo) CreateCertificate(ctx context.Context, c *Certificate) (bool, error) {
	return affected(r.q.ExecContext(ctx, `INSERT INTO certificates (id, event_id, student_id, generated_by, file_url, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (event_id, student_id) DO NOTHING`,
		c.ID, c.EventID, c.StudentID, c.GeneratedBy, c.FileURL, c.GeneratedAt))
}

const certificateSelect = `SELECT ce.id, ce.event_id, e.title, e.date, e.venue, COALESCE(cl.name, ''),
	ce.student_id, ce.generated_at, ce.file_url
	FROM certificates ce JOIN events e ON e.id = ce.event_id LEFT JOIN clubs cl ON cl.id = e.club_id`

func scanCertificateView(row scanner) (CertificateView, error) {
	var v CertificateView
	err := row.Scan(&v.ID, &v.EventID, &v.EventTitle, &v.Date, &v.Venue, &v.ClubName,
		&v.StudentID, &v.IssueDate, &v.FileURL)
	return v, mapErr(err)
}

func (r pgRepo) GetCertificate(ctx context.Context, id string) (CertificateView, error) {
	return scanCertificateView(r.q.QueryRowContext(ctx, certificateSelect+` WHERE ce.id = $1`, id))
}

func (r pgRepo) ListCertificates(ctx context.Context, studentID string) ([]CertificateView, error) {
	rows, err := r.q.QueryContext(ctx, certificateSelect+` WHERE ce.student_id = $1 ORDER BY ce.generated_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}
	defer rows.Close()
	out := []CertificateView{}
	for rows.Next() {
		v, err := scanCertificateView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
