package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhub/internal/auth"
	"clubhub/internal/httpmiddleware"
	"clubhub/internal/lifecycle"
	"clubhub/internal/notify"
	"clubhub/internal/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	adminEmail    = "admin@clubhub.test"
	adminPassword = "admin-secret"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	queue  *queue.InMemory
}

func newTestServer(t *testing.T, opts ...func(*Config)) *testServer {
	t.Helper()
	q := queue.NewInMemory(64)
	svc := lifecycle.NewService(lifecycle.NewMemoryStore(),
		lifecycle.WithNotifier(notify.NewPublisher(q, time.Second)))
	require.NoError(t, svc.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	cfg := Config{
		Service:     svc,
		Signer:      auth.NewSigner("test-signing-key", "clubhub", time.Hour, 24*time.Hour),
		CORSOrigins: []string{"http://localhost:3000"},
		PublicURL:   "https://clubs.example.edu/",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testServer{t: t, router: NewRouter(cfg), queue: q}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type authBody struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
	Message      string         `json:"message"`
	User         lifecycle.User `json:"user"`
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[authBody](s.t, w).Token
}

func (s *testServer) signupStudent(name, email string) (string, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": "student-pass", "department": "CSE",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[authBody](s.t, w)
	require.NotEmpty(s.t, body.Token)
	return body.User.ID, body.Token
}

// coordinator signs up a coordinator for clubName and has the admin approve them.
func (s *testServer) coordinator(adminToken, clubName string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Coord", "email": "coord@clubhub.test", "password": "coord-pass",
		"role": "coordinator", "clubName": clubName,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	pending := decode[authBody](s.t, w)
	assert.Empty(s.t, pending.Token)
	assert.NotEmpty(s.t, pending.Message)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "coord@clubhub.test", "password": "coord-pass"})
	require.Equal(s.t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/users/approve-coordinator/"+pending.User.ID, adminToken, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return s.login("coord@clubhub.test", "coord-pass")
}

func drain(t *testing.T, q queue.Queue, n int) []notify.Notification {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	var out []notify.Notification
	for len(out) < n {
		select {
		case msg := <-ch:
			var note notify.Notification
			require.NoError(t, json.Unmarshal(msg.Body, &note))
			out = append(out, note)
		case <-ctx.Done():
			t.Fatalf("got %d of %d notifications", len(out), n)
		}
	}
	return out
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)
	coord := s.coordinator(admin, "Robotics")

	eventDate := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
	w := s.do(http.MethodPost, "/api/events/request-venue", coord, gin.H{
		"venue": "Hall A", "eventName": "Tech Talk", "eventDate": eventDate,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	vr := decode[lifecycle.VenueRequest](t, w)
	assert.False(t, vr.Approved)

	w = s.do(http.MethodPost, "/api/admin/approve-venue/"+vr.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/events", coord, gin.H{"title": "Tech Talk", "venueRequestId": vr.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ev := decode[lifecycle.Event](t, w)
	assert.Equal(t, "Hall A", ev.Venue)

	var ids, tokens []string
	for _, name := range []string{"s1", "s2", "s3", "s4"} {
		id, tok := s.signupStudent(name, name+"@clubhub.test")
		ids = append(ids, id)
		tokens = append(tokens, tok)
	}
	for i := 0; i < 3; i++ {
		w = s.do(http.MethodPost, "/api/events/"+ev.ID+"/register", tokens[i], nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, "/api/events/"+ev.ID+"/register", tokens[0], nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/attendance/event/"+ev.ID+"/close-registration", coord, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/events/"+ev.ID+"/register", tokens[3], nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Registration is closed for this event", decode[gin.H](t, w)["message"])

	w = s.do(http.MethodPost, "/api/attendance/event/"+ev.ID+"/save", coord, gin.H{
		"attendees": []gin.H{{"userId": ids[0], "present": true}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/events/"+ev.ID+"/attendance", coord, gin.H{
		"attendees": []gin.H{{"userId": ids[1], "present": false}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/attendance/event/"+ev.ID+"/attendees", coord, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[lifecycle.AttendeeList](t, w)
	require.Len(t, list.Attendees, 3)
	for _, a := range list.Attendees {
		assert.Equal(t, a.ID == ids[0], a.Present, a.Name)
	}

	submit := gin.H{"attendees": []gin.H{
		{"userId": ids[0], "present": true},
		{"userId": ids[1], "present": true},
		{"userId": ids[2], "present": false},
	}}
	w = s.do(http.MethodPost, "/api/attendance/event/"+ev.ID+"/submit", coord, submit)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode[gin.H](t, w)["certificatesIssued"])

	w = s.do(http.MethodPost, "/api/events/"+ev.ID+"/submit-attendance", coord, submit)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/events/"+ev.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	final := decode[lifecycle.Event](t, w)
	assert.True(t, final.AttendanceCompleted)
	assert.True(t, final.RegistrationClosed)

	w = s.do(http.MethodGet, "/api/users/certificates", tokens[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	certs := decode[[]lifecycle.CertificateView](t, w)
	require.Len(t, certs, 1)
	assert.Equal(t, "Tech Talk", certs[0].EventTitle)
	assert.Equal(t, "Robotics", certs[0].ClubName)

	w = s.do(http.MethodGet, "/api/users/certificates", tokens[2], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]lifecycle.CertificateView](t, w))

	w = s.do(http.MethodGet, "/certificates/"+certs[0].ID+"/verify", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[gin.H](t, w)["valid"])

	w = s.do(http.MethodGet, "/api/certificates/"+certs[0].ID+"/qrcode", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	notes := drain(t, s.queue, 3)
	assert.Equal(t, "Coordinator Approved", notes[0].Subject)
	assert.ElementsMatch(t,
		[]string{"s1@clubhub.test", "s2@clubhub.test"},
		[]string{notes[1].To, notes[2].To})
	assert.Equal(t, "Certificate for Tech Talk", notes[1].Subject)
}

func TestRoutesServedWithAndWithoutPrefix(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/clubs", "/api/clubs", "/events/recent", "/api/events/notifications"} {
		w := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t)
	_, student := s.signupStudent("s1", "s1@clubhub.test")

	w := s.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token, authorization denied", decode[gin.H](t, w)["message"])

	w = s.do(http.MethodGet, "/api/admin/venue-requests", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/events", student, gin.H{"title": "x", "venueRequestId": "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "s1@clubhub.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decode[gin.H](t, w)["message"])

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Dup", "email": "S1@clubhub.test", "password": "student-pass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "s1", "email": "s1@clubhub.test", "password": "student-pass"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode[authBody](t, w)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": body.Token})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access tokens cannot refresh")

	w = s.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": body.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[authBody](t, w)
	assert.Equal(t, body.User.ID, refreshed.User.ID)

	w = s.do(http.MethodGet, "/api/users/me", refreshed.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidationErrorsNameJSONFields(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "x", "email": "not-an-email", "password": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, map[string]string{"email": "email", "password": "min"}, body.Errors)
}

func TestSubmitRejectsMalformedBatch(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)
	coord := s.coordinator(admin, "Chess")

	w := s.do(http.MethodPost, "/api/attendance/event/missing/submit", coord, gin.H{
		"attendees": []gin.H{{"userId": "a", "present": true}, {"userId": "b"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/attendance/event/missing/submit", coord, gin.H{
		"attendees": []gin.H{{"userId": "a", "present": true}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAttendanceBatchRejectsMalformedBatch(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)
	coord := s.coordinator(admin, "Chess")

	w := s.do(http.MethodPost, "/api/events/missing/attendance", coord, gin.H{
		"attendees": []gin.H{{"present": true}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/events/missing/attendance", coord, gin.H{
		"attendees": []gin.H{{"userId": "a", "present": true}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, student := s.signupStudent("s1", "s1@clubhub.test")
	w = s.do(http.MethodPost, "/api/events/missing/attendance", student, gin.H{
		"attendees": []gin.H{{"userId": "a", "present": true}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type stubUploader struct{}

func (stubUploader) UploadImage(_ context.Context, r io.Reader, filename string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://img.test/" + filename, nil
}

func (s *testServer) upload(path, token, field, filename string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(s.t, err)
	_, err = part.Write([]byte("\x89PNG"))
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestUploadProfilePic(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signupStudent("s1", "s1@clubhub.test")

	w := s.do(http.MethodPost, "/api/users/upload-profile-pic", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decode[gin.H](t, w)["message"])

	w = s.upload("/api/users/upload-profile-pic", token, "profilePic", "me.png")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Image uploads are not configured", decode[gin.H](t, w)["message"])

	s = newTestServer(t, func(c *Config) {
		c.Service = lifecycle.NewService(lifecycle.NewMemoryStore(), lifecycle.WithUploader(stubUploader{}))
	})
	_, token = s.signupStudent("s1", "s1@clubhub.test")

	w = s.upload("/api/users/upload-profile-pic", token, "profilePic", "me.png")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://img.test/me.png", decode[gin.H](t, w)["profilePicUrl"])

	w = s.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://img.test/me.png", decode[lifecycle.User](t, w).ProfilePic)
}

func TestCertificateQRCode(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/certificates/unknown/qrcode", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClubAdministration(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodPost, "/api/clubs", admin, gin.H{"name": "Drama", "department": "Arts"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	club := decode[lifecycle.Club](t, w)

	w = s.do(http.MethodPost, "/api/clubs", admin, gin.H{"name": "Drama", "department": "Arts"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/clubs/"+club.ID, admin, gin.H{"description": "Stage and screen"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Stage and screen", decode[lifecycle.Club](t, w).Description)

	req := httptest.NewRequest(http.MethodPost, "/api/clubs/"+club.ID+"/logo", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/clubs/"+club.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/clubs/"+club.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitAppliesPerCaller(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.Limiter = httpmiddleware.NewSimpleTokenBucket(2, 1) })
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/clubs", "", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/clubs", "", nil).Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.Health = map[string]HealthCheck{
			"db":    func(context.Context) bool { return true },
			"redis": func(context.Context) bool { return false },
		}
	})
	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[gin.H](t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, true, body["db"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestStatusForKinds(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(lifecycle.KindConflict))
	assert.Equal(t, http.StatusNotFound, statusFor(lifecycle.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(lifecycle.KindInternal))
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate("2025-09-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), d)

	_, ok = parseDate("2025-09-01T10:30:00+02:00")
	assert.True(t, ok)
	_, ok = parseDate("next tuesday")
	assert.False(t, ok)
}
