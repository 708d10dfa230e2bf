package lifecycle

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"clubhub/internal/logger"
	"clubhub/internal/notify"
)

// Notifier sends best-effort notifications.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Service coordinates the event lifecycle: venue approval, events,
// registration, attendance and certificates.
type Service struct {
	store     Store
	notifier  Notifier
	uploader  ImageUploader
	retention RetentionPolicy
	now       func() time.Time
	newID     func() string

	notifyBudget time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the notification sender. Without one, notifications are logged and dropped.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithUploader sets the image uploader used for club logos.
func WithUploader(u ImageUploader) Option { return func(s *Service) { s.uploader = u } }

// WithRetention sets how many approved venue requests are kept.
func WithRetention(keep int) Option {
	return func(s *Service) { s.retention = RetentionPolicy{Keep: keep} }
}

// WithNotifyBudget bounds the total time spent handing notifications to the
// notifier after a request has done its work.
func WithNotifyBudget(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyBudget = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a service backed by a store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		retention: RetentionPolicy{Keep: DefaultRetainedVenueRequests},
		now:       time.Now,
		newID:     uuid.NewString,

		notifyBudget: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// notify never fails the caller; delivery problems are only logged.
func (s *Service) notify(ctx context.Context, n notify.Notification) {
	if err := ctx.Err(); err != nil {
		logger.Warn.Printf("notify: %q to %s skipped: %v", n.Subject, n.To, err)
		return
	}
	if s.notifier == nil {
		logger.Debug.Printf("notify: no notifier configured, dropping %q to %s", n.Subject, n.To)
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn.Printf("notify: %q to %s failed: %v", n.Subject, n.To, err)
	}
}

// detached derives a context for post-commit side effects: it survives the
// request's cancellation but is bounded by the notify budget.
func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.notifyBudget)
}
