package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/reconcile"
	"github.com/pp9653/warera-ranking-sys/core/warera"
	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"go.uber.org/zap"
)

// Reconciler produces roster snapshots.
type Reconciler interface {
	Reconcile(ctx context.Context, countryName string) (*reconcile.Snapshot, error)
	Countries(ctx context.Context) ([]reconcile.CountryInfo, error)
}

// Credentials holds the API token used by the remote client.
type Credentials interface {
	SetToken(token string)
	HasToken() bool
}

// RunStatus describes the last refresh of a country.
type RunStatus struct {
	Country    string           `json:"country"`
	Running    bool             `json:"running"`
	RunID      string           `json:"run_id,omitempty"`
	Players    int              `json:"players"`
	Stats      *reconcile.Stats `json:"stats,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// Service ties reconciliation to the cache and the annotation operations.
type Service struct {
	engine Reconciler
	guard  *reconcile.Guard
	store  *Store
	creds  Credentials
	logger *zap.Logger

	mu   sync.RWMutex
	runs map[string]*RunStatus
}

// NewService creates a roster service.
func NewService(engine Reconciler, store *Store, creds Credentials, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine: engine,
		guard:  reconcile.NewGuard(),
		store:  store,
		creds:  creds,
		logger: logger,
		runs:   make(map[string]*RunStatus),
	}
}

// Store exposes the underlying cache.
func (s *Service) Store() *Store {
	return s.store
}

// Refresh reconciles countryName against the API, merges the result into the
// cache and returns the merged view. Only one refresh per country runs at a time.
func (s *Service) Refresh(ctx context.Context, countryName string) (*models.MergedView, error) {
	release, err := s.begin(countryName)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.refresh(ctx, countryName)
}

// RefreshAsync starts a refresh in the background and returns immediately.
// ErrInProgress is returned synchronously when one is already running.
func (s *Service) RefreshAsync(ctx context.Context, countryName string) error {
	release, err := s.begin(countryName)
	if err != nil {
		return err
	}
	go func() {
		defer release()
		_, _ = s.refresh(ctx, countryName)
	}()
	return nil
}

func (s *Service) begin(countryName string) (func(), error) {
	if s.creds != nil && !s.creds.HasToken() {
		return nil, warera.ErrMissingCredential
	}
	release, err := s.guard.Acquire(countryName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.runs[models.CountryKey(countryName)] = &RunStatus{
		Country:   countryName,
		Running:   true,
		StartedAt: time.Now(),
	}
	s.mu.Unlock()
	return release, nil
}

func (s *Service) refresh(ctx context.Context, countryName string) (*models.MergedView, error) {
	log := s.logger.With(zap.String("country", countryName))
	log.Info("Refreshing roster")

	snap, err := s.engine.Reconcile(ctx, countryName)
	if err != nil {
		log.Error("Reconciliation failed", zap.Error(err))
		s.finish(countryName, nil, err)
		return nil, err
	}

	if err := s.store.UpsertRoster(ctx, countryName, snap); err != nil {
		log.Error("Saving roster failed, previous cache kept", zap.String("run_id", snap.RunID), zap.Error(err))
		s.finish(countryName, snap, err)
		return nil, err
	}

	view, err := s.store.LoadRoster(ctx, countryName)
	if err != nil {
		s.finish(countryName, snap, err)
		return nil, err
	}

	log.Info("Roster refreshed",
		zap.String("run_id", snap.RunID),
		zap.Int("players", len(snap.Players)),
		zap.Int("unresolved", snap.Stats.Unresolved),
		zap.Int("truncated", snap.Stats.Truncated),
	)
	s.finish(countryName, snap, nil)
	return view, nil
}

func (s *Service) finish(countryName string, snap *reconcile.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.runs[models.CountryKey(countryName)]
	if !ok {
		return
	}
	now := time.Now()
	status.Running = false
	status.FinishedAt = &now
	if snap != nil {
		stats := snap.Stats
		status.RunID = snap.RunID
		status.Players = len(snap.Players)
		status.Stats = &stats
	}
	if err != nil {
		status.Error = err.Error()
	}
}

// Status returns the last refresh of countryName, or nil if none ran.
func (s *Service) Status(countryName string) *RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.runs[models.CountryKey(countryName)]
	if !ok {
		return nil
	}
	copied := *status
	return &copied
}

// Roster returns the cached roster of countryName.
func (s *Service) Roster(ctx context.Context, countryName string) (*models.MergedView, error) {
	return s.store.LoadRoster(ctx, countryName)
}

// Assign puts the named players in battalion and returns how many matched.
func (s *Service) Assign(ctx context.Context, countryName, battalion string, usernames []string) (int, error) {
	n, err := s.store.AssignBattalion(ctx, countryName, usernames, battalion)
	if err != nil {
		return n, err
	}
	s.logger.Info("Battalion assigned",
		zap.String("country", countryName),
		zap.String("battalion", strings.ToUpper(battalion)),
		zap.Int("requested", len(usernames)),
		zap.Int("assigned", n),
	)
	return n, nil
}

// Award gives username a medal for weekID, the current week when empty.
func (s *Service) Award(ctx context.Context, countryName, username, medalType, weekID string) (string, error) {
	if weekID == "" {
		weekID = reconcile.CurrentWeekID(time.Now())
	}
	ok, err := s.store.AwardMedal(ctx, countryName, username, medalType, weekID)
	if err != nil {
		return weekID, err
	}
	if !ok {
		return weekID, fmt.Errorf("%w: %s", ErrPlayerNotFound, username)
	}
	s.logger.Info("Medal awarded",
		zap.String("country", countryName),
		zap.String("player", username),
		zap.String("medal", medalType),
		zap.String("week", weekID),
	)
	return weekID, nil
}

// Medals returns the medal history of one player.
func (s *Service) Medals(ctx context.Context, countryName, username string) (map[string]string, error) {
	return s.store.PlayerMedals(ctx, countryName, username)
}

// Stats returns per-battalion aggregates of the cached roster.
func (s *Service) Stats(ctx context.Context, countryName string) ([]models.BattalionStat, error) {
	return s.store.BattalionStats(ctx, countryName)
}

// Countries lists the country catalogue from the API and stores a copy. When
// the API is unreachable (or no token is set) the stored copy is returned.
func (s *Service) Countries(ctx context.Context) ([]reconcile.CountryInfo, error) {
	countries, err := s.engine.Countries(ctx)
	if err == nil {
		if saveErr := s.store.SaveCountries(ctx, countries); saveErr != nil {
			s.logger.Warn("Saving country catalogue failed", zap.Error(saveErr))
		}
		return countries, nil
	}

	cached, cacheErr := s.store.Countries(ctx)
	if cacheErr != nil || len(cached) == 0 {
		return nil, err
	}
	s.logger.Warn("Country catalogue unavailable, serving stored copy", zap.Error(err), zap.Int("countries", len(cached)))
	return cached, nil
}

// Clear deletes the cached roster of countryName. It refuses unless confirmed,
// and holds the country guard so no refresh starts while rows are deleted.
func (s *Service) Clear(ctx context.Context, countryName string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	err := s.guard.Do(countryName, func() error {
		return s.store.ClearCountry(ctx, countryName)
	})
	if err != nil {
		return err
	}
	s.logger.Warn("Cache cleared", zap.String("country", countryName))
	return nil
}

// SetToken stores token and hands it to the API client.
func (s *Service) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return warera.ErrMissingCredential
	}
	if err := s.store.SetToken(ctx, token); err != nil {
		return err
	}
	if s.creds != nil {
		s.creds.SetToken(token)
	}
	return nil
}

// Token returns the stored token.
func (s *Service) Token(ctx context.Context) (string, error) {
	return s.store.Token(ctx)
}

// RestoreToken loads the stored token into the client when it has none.
func (s *Service) RestoreToken(ctx context.Context) error {
	if s.creds == nil || s.creds.HasToken() {
		return nil
	}
	token, err := s.store.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		s.creds.SetToken(token)
	}
	return nil
}

// Import writes an exported roster into the cache under the country guard.
func (s *Service) Import(ctx context.Context, countryName string, view *models.MergedView) error {
	if countryName == "" {
		return errors.New("import: missing country")
	}
	err := s.guard.Do(countryName, func() error {
		return s.store.ImportView(ctx, countryName, view)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Roster imported", zap.String("country", countryName), zap.Int("players", len(view.Players)))
	return nil
}
