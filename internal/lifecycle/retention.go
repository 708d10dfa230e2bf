package lifecycle

import (
	"context"
	"fmt"
	"sort"

	"clubhub/internal/logger"
	"clubhub/internal/metrics"
)

// DefaultRetainedVenueRequests is how many approved venue requests are kept.
const DefaultRetainedVenueRequests = 5

// RetentionPolicy keeps the Keep most recently updated approved venue requests.
type RetentionPolicy struct {
	Keep int
}

// Expired returns the ids of approved requests that fall outside the policy.
func (p RetentionPolicy) Expired(approved []VenueRequest) []string {
	keep := p.Keep
	if keep < 0 {
		keep = 0
	}
	if len(approved) <= keep {
		return nil
	}
	sorted := make([]VenueRequest, len(approved))
	copy(sorted, approved)
	sort.SliceStable(sorted, func(i, j int) bool { return newerVenueRequest(sorted[i], sorted[j]) })

	ids := make([]string, 0, len(sorted)-keep)
	for _, vr := range sorted[keep:] {
		ids = append(ids, vr.ID)
	}
	return ids
}

// newerVenueRequest orders by updatedAt, then createdAt, then id, all descending.
func newerVenueRequest(a, b VenueRequest) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// EnforceVenueRetention deletes approved venue requests beyond the retention
// policy. It is idempotent and serialised against concurrent runs.
func (s *Service) EnforceVenueRetention(ctx context.Context) (int, error) {
	var deleted int
	err := s.store.InTx(ctx, func(r Repository) error {
		if err := r.LockVenueRetention(ctx); err != nil {
			return err
		}
		approved, err := r.ListApprovedVenueRequests(ctx)
		if err != nil {
			return err
		}
		expired := s.retention.Expired(approved)
		if len(expired) == 0 {
			return nil
		}
		deleted, err = r.DeleteApprovedVenueRequests(ctx, expired)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("venue retention: %w", err)
	}
	if deleted > 0 {
		metrics.VenueRequestsPurged.Add(float64(deleted))
		logger.Info.Printf("venue retention: deleted %d old approved venue requests, keeping %d", deleted, s.retention.Keep)
	}
	return deleted, nil
}

// ApprovedVenueCount returns the number of approved venue requests.
func (s *Service) ApprovedVenueCount(ctx context.Context, actor Actor) (int, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return 0, err
	}
	return s.store.CountApprovedVenueRequests(ctx)
}

// CleanupResult reports a manual retention run.
type CleanupResult struct {
	Deleted   int `json:"deletedCount"`
	Remaining int `json:"remainingCount"`
}

// CleanupVenueRequests runs the retention policy on demand.
func (s *Service) CleanupVenueRequests(ctx context.Context, actor Actor) (CleanupResult, error) {
	if err := requireRole(actor, RoleAdmin); err != nil {
		return CleanupResult{}, err
	}
	deleted, err := s.EnforceVenueRetention(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	remaining, err := s.store.CountApprovedVenueRequests(ctx)
	if err != nil {
		return CleanupResult{}, err
	}
	return CleanupResult{Deleted: deleted, Remaining: remaining}, nil
}
