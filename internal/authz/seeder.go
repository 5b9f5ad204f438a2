package authz

import (
	"context"
	"fmt"
	"sync"

	"log/slog"
)

// Seeder populates the permission catalog and system roles on first
// administrative access. AutoSeed is cheap to call on every request:
// after one successful pass it is a mutex check and nothing else.
//
// The done flag is read and released before any I/O, so two concurrent
// first requests may both attempt seeding. That is fine because every
// insert tolerates duplicate keys, making the whole pass idempotent.
type Seeder struct {
	store   Repository
	logger  *slog.Logger
	metrics DecisionMetrics

	mu   sync.Mutex
	done bool
}

// NewSeeder constructs a Seeder.
func NewSeeder(store Repository, logger *slog.Logger, metrics DecisionMetrics) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, logger: logger, metrics: metrics}
}

// AutoSeed seeds the catalog if this process has not done so yet.
// Failures are logged and retried on the next call; they never fail
// the request that happened to trigger seeding.
func (s *Seeder) AutoSeed(ctx context.Context) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	seeded, err := s.seed(ctx)
	if err != nil {
		s.logger.Error("authz seed", slog.Any("error", err))
		s.recordRun("error")
		return
	}
	if seeded {
		s.recordRun("seeded")
	} else {
		s.recordRun("skipped")
	}

	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
}

func (s *Seeder) seed(ctx context.Context) (bool, error) {
	count, err := s.store.CountPermissions(ctx)
	if err != nil {
		return false, fmt.Errorf("count permissions: %w", err)
	}
	if count > 0 {
		// A deployment seeded before the super-admin flag existed
		// still needs the promotion step.
		return false, s.promoteLegacyAdmin(ctx)
	}

	for _, p := range Catalog() {
		if err := s.store.InsertPermission(ctx, p); err != nil {
			return false, fmt.Errorf("insert permission %s: %w", p.Name, err)
		}
	}

	// Permissions must land before links: LinkRolePermission resolves
	// both sides by name and skips pairs it cannot find.
	links := 0
	for _, role := range SystemRoles() {
		if err := s.store.InsertRole(ctx, role); err != nil {
			return false, fmt.Errorf("insert role %s: %w", role.Name, err)
		}
		for _, perm := range role.Permissions {
			if err := s.store.LinkRolePermission(ctx, role.Name, perm); err != nil {
				return false, fmt.Errorf("link %s to %s: %w", perm, role.Name, err)
			}
			links++
		}
	}

	if err := s.promoteLegacyAdmin(ctx); err != nil {
		return false, err
	}

	s.logger.Info("authz seeded",
		slog.Int("permissions", len(Catalog())),
		slog.Int("roles", len(SystemRoles())),
		slog.Int("links", links),
	)
	return true, nil
}

func (s *Seeder) promoteLegacyAdmin(ctx context.Context) error {
	id, err := s.store.PromoteLegacyAdmin(ctx)
	if err != nil {
		return fmt.Errorf("promote legacy admin: %w", err)
	}
	if id != 0 {
		s.logger.Info("authz promoted legacy admin", slog.Int64("user_id", id))
	}
	return nil
}

func (s *Seeder) recordRun(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSeederRun(outcome)
}
