package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"battle-tracker/internal/catalog"
	"battle-tracker/internal/config"
	"battle-tracker/internal/constants"
	"battle-tracker/internal/domain"
	"battle-tracker/internal/metrics"
	"battle-tracker/internal/rows"
	"battle-tracker/internal/snapshot"
	"battle-tracker/internal/watcher"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrStopped         = errors.New("overlay service is not running")
	ErrUnknownScope    = errors.New("unknown scope")
	ErrUnknownMetric   = errors.New("unknown metric")
	ErrJournalDisabled = errors.New("ingest journal is disabled")
)

type SnapshotReader interface {
	Read(ctx context.Context, path string) (*snapshot.Result, error)
}

type SettingsStore interface {
	Load() (*domain.PersistedSettings, bool)
	Save(p *domain.PersistedSettings)
}

type Journal interface {
	Record(ctx context.Context, rec domain.IngestRecord) (domain.IngestRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.IngestRecord, error)
	Prune(ctx context.Context, retain int) (int64, error)
}

type ScopeInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Status struct {
	ErrorBanner   string                `json:"errorBanner"`
	UpdatedAgo    string                `json:"updatedAgo"`
	LastWrite     *time.Time            `json:"lastWrite,omitempty"`
	LastRead      *time.Time            `json:"lastRead,omitempty"`
	LastOutcome   string                `json:"lastOutcome,omitempty"`
	Attempts      int                   `json:"attempts,omitempty"`
	HasData       bool                  `json:"hasData"`
	Members       int                   `json:"members"`
	SnapshotSize  string                `json:"snapshotSize,omitempty"`
	SchemaVersion string                `json:"schemaVersion,omitempty"`
	GeneratedAt   string                `json:"generatedAt,omitempty"`
	SaveID        string                `json:"saveId,omitempty"`
	CurrentBattle *domain.CurrentBattle `json:"currentBattle,omitempty"`
	StatsPath     string                `json:"statsPath"`
}

// OverlayService owns the live snapshot, the metric catalog and the preferences. All of
// that state is touched only by the apply loop; everything else posts closures to it.
type OverlayService struct {
	statsPath string
	retention int

	reader  SnapshotReader
	store   SettingsStore
	journal Journal
	metrics *metrics.Metrics
	watcher *watcher.ChangeWatcher
	logger  zerolog.Logger
	now     func() time.Time
	tick    time.Duration

	ops        chan func()
	requests   chan string
	refreshing atomic.Bool
	stopped    chan struct{}
	cancel     context.CancelFunc
	group      *errgroup.Group

	// apply-loop state
	snap        *domain.Snapshot
	snapSize    int
	modTime     time.Time
	lastRead    time.Time
	lastOutcome string
	attempts    int
	banner      string
	updatedAgo  string
	catalog     *catalog.Catalog
	prefs       domain.Preferences
	columnOrder map[domain.Scope][]string
}

func NewOverlayService(cfg *config.Config, reader SnapshotReader, store SettingsStore, journal Journal, m *metrics.Metrics, logger zerolog.Logger) *OverlayService {
	s := &OverlayService{
		statsPath:  cfg.StatsPath,
		retention:  cfg.JournalRetention,
		reader:     reader,
		store:      store,
		journal:    journal,
		metrics:    m,
		logger:     logger.With().Str("component", "overlay").Logger(),
		now:        time.Now,
		tick:       constants.UpdatedAgoInterval,
		ops:        make(chan func()),
		requests:   make(chan string, 1),
		stopped:    make(chan struct{}),
		updatedAgo: constants.WaitingForData,
		catalog:    catalog.New(),
		prefs:      domain.DefaultPreferences(),
	}
	s.watcher = watcher.New(cfg.StatsPath, cfg.DebounceDelay, func() { s.requestRefresh("file change") }, logger)

	if persisted, ok := store.Load(); ok {
		s.catalog.Restore(persisted)
		s.prefs = persisted.Preferences
		s.columnOrder = persisted.ColumnOrder
	}
	s.recordCatalogSize()
	return s
}

// Start launches the apply loop and the reader, begins watching the stats file and
// schedules the first read.
func (s *OverlayService) Start(ctx context.Context) error {
	if s.group != nil {
		return fmt.Errorf("overlay service already started")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(runCtx)
	s.cancel = cancel
	s.group = g

	g.Go(func() error { return s.applyLoop(gctx) })
	g.Go(func() error { return s.readLoop(gctx) })

	if err := s.watcher.Start(gctx); err != nil {
		s.logger.Error().Err(err).Str("path", s.statsPath).Msg("failed to start file watcher, changes will not be picked up")
	}
	s.watcher.Touch("startup")

	s.logger.Info().Str("path", s.statsPath).Msg("overlay service started")
	return nil
}

func (s *OverlayService) Stop(ctx context.Context) error {
	if s.group == nil {
		return nil
	}
	if err := s.watcher.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close file watcher")
	}
	s.cancel()

	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()

	select {
	case err := <-done:
		s.logger.Info().Msg("overlay service stopped")
		return err
	case <-ctx.Done():
		return fmt.Errorf("failed to stop overlay service: %w", ctx.Err())
	}
}

// TriggerRefresh schedules a read through the same debounce as file events.
func (s *OverlayService) TriggerRefresh(reason string) {
	s.watcher.Touch(reason)
}

func (s *OverlayService) requestRefresh(reason string) {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.metrics.RefreshDropped()
		s.logger.Debug().Str("reason", reason).Msg("refresh already in flight, dropping trigger")
		return
	}
	select {
	case s.requests <- reason:
	default:
		s.refreshing.Store(false)
	}
}

func (s *OverlayService) applyLoop(ctx context.Context) error {
	defer close(s.stopped)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-s.ops:
			op()
		case <-ticker.C:
			s.refreshUpdatedAgo()
		}
	}
}

func (s *OverlayService) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-s.requests:
			s.readOnce(ctx, reason)
		}
	}
}

func (s *OverlayService) readOnce(ctx context.Context, reason string) {
	startedAt := s.now()
	s.logger.Debug().Str("reason", reason).Msg("refreshing from stats file")

	result, err := s.reader.Read(ctx, s.statsPath)
	if ctx.Err() != nil {
		s.refreshing.Store(false)
		return
	}
	s.journalRead(ctx, startedAt, result, err)

	postErr := s.post(ctx, func() {
		defer s.refreshing.Store(false)
		s.applyRead(startedAt, result, err)
	})
	if postErr != nil {
		s.refreshing.Store(false)
	}
}

// post queues fn on the apply loop without waiting for it to run.
func (s *OverlayService) post(ctx context.Context, fn func()) error {
	select {
	case s.ops <- fn:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do runs fn on the apply loop and waits for it to finish.
func (s *OverlayService) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := s.post(ctx, func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OverlayService) applyRead(at time.Time, result *snapshot.Result, err error) {
	s.lastRead = at

	if err != nil {
		s.lastOutcome = snapshot.KindOf(err).String()
		s.attempts = attemptsOf(err)
		s.banner = Banner(err)
		if snapshot.KindOf(err) == snapshot.KindUnexpected {
			s.logger.Error().Err(err).Msg("unexpected failure reading stats, keeping last good data")
		} else {
			s.logger.Warn().Str("kind", s.lastOutcome).Str("banner", s.banner).Msg("read failed, keeping last good data")
		}
		return
	}

	s.snap = result.Snapshot
	s.snapSize = len(result.Raw)
	s.modTime = result.ModTime
	s.lastOutcome = domain.OutcomeOK
	s.attempts = result.Attempts
	s.banner = ""
	s.refreshUpdatedAgo()
	s.metrics.ObserveSnapshot(at, len(result.Snapshot.Members))

	if s.catalog.Observe(result.Snapshot) {
		s.logger.Info().Msg("new metrics discovered, persisting catalog")
		s.recordCatalogSize()
		s.persist()
	}
}

func attemptsOf(err error) int {
	var readErr *snapshot.ReadError
	if errors.As(err, &readErr) {
		return readErr.Attempts
	}
	return 0
}

func (s *OverlayService) refreshUpdatedAgo() {
	if s.snap == nil {
		s.updatedAgo = constants.WaitingForData
		return
	}
	ref := s.modTime
	if ref.IsZero() {
		ref = s.lastRead
	}
	seconds := max(0, int(s.now().Sub(ref).Seconds()))
	s.updatedAgo = fmt.Sprintf("Updated %ds ago", seconds)
}

func (s *OverlayService) persist() {
	s.store.Save(&domain.PersistedSettings{
		Scopes:      s.catalog.Snapshot(),
		GlobalOrder: s.catalog.GlobalOrder(),
		Preferences: s.prefs,
		ColumnOrder: cloneColumnOrder(s.columnOrder),
	})
	s.metrics.SettingsSaved()
}

func (s *OverlayService) recordCatalogSize() {
	for _, scope := range domain.AllScopes {
		s.metrics.SetCatalogSize(scope.String(), s.catalog.Scope(scope).Len())
	}
}

func (s *OverlayService) journalRead(ctx context.Context, at time.Time, result *snapshot.Result, err error) {
	rec := domain.IngestRecord{ReadAt: at.UTC()}
	if err != nil {
		rec.Outcome = snapshot.KindOf(err).String()
		rec.Message = err.Error()
		rec.Attempts = attemptsOf(err)
	} else {
		rec.Outcome = domain.OutcomeOK
		rec.Attempts = result.Attempts
		rec.MemberCount = len(result.Snapshot.Members)
		rec.SchemaVersion = result.Snapshot.SchemaVersion()
		if md := result.Snapshot.Metadata; md != nil {
			rec.GeneratedAt = md.GeneratedAt
		}
	}
	s.metrics.ObserveRead(rec.Outcome, rec.Attempts)

	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.journal.Record(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record read in journal")
		return
	}
	if _, err := s.journal.Prune(ctx, s.retention); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune journal")
	}
}

func (s *OverlayService) Layout(ctx context.Context, scope domain.Scope) ([]domain.Field, error) {
	if !scope.Valid() {
		return nil, ErrUnknownScope
	}
	var fields []domain.Field
	err := s.do(ctx, func() {
		fields = s.catalog.ActiveFields(scope)
	})
	return fields, err
}

func (s *OverlayService) Rows(ctx context.Context, scope domain.Scope) ([]domain.DisplayRow, error) {
	if !scope.Valid() {
		return nil, ErrUnknownScope
	}
	result := []domain.DisplayRow{}
	err := s.do(ctx, func() {
		if s.snap == nil {
			return
		}
		result = rows.Build(s.snap, scope, s.catalog.ActiveFields(scope), s.prefs.NameOverrides)
	})
	return result, err
}

func (s *OverlayService) Status(ctx context.Context) (Status, error) {
	var status Status
	err := s.do(ctx, func() {
		status = Status{
			ErrorBanner: s.banner,
			UpdatedAgo:  s.updatedAgo,
			LastOutcome: s.lastOutcome,
			Attempts:    s.attempts,
			HasData:     s.snap != nil,
			StatsPath:   s.statsPath,
		}
		if !s.lastRead.IsZero() {
			lastRead := s.lastRead
			status.LastRead = &lastRead
		}
		if s.snap == nil {
			return
		}
		if !s.modTime.IsZero() {
			modTime := s.modTime
			status.LastWrite = &modTime
		}
		status.Members = len(s.snap.Members)
		status.SnapshotSize = humanize.Bytes(uint64(s.snapSize))
		status.SchemaVersion = s.snap.SchemaVersion()
		status.CurrentBattle = s.snap.CurrentBattle
		if md := s.snap.Metadata; md != nil {
			status.GeneratedAt = md.GeneratedAt
			status.SaveID = md.CurrentSaveSnapshotID
		}
	})
	return status, err
}

func (s *OverlayService) Scopes(ctx context.Context) ([]ScopeInfo, error) {
	var scopes []ScopeInfo
	err := s.do(ctx, func() {
		scopes = make([]ScopeInfo, 0, len(domain.AllScopes))
		for _, scope := range domain.AllScopes {
			scopes = append(scopes, ScopeInfo{ID: scope.String(), Label: scope.Label(s.prefs)})
		}
	})
	return scopes, err
}

// CreateSnapshot copies the editable settings for a settings editor.
func (s *OverlayService) CreateSnapshot(ctx context.Context) (domain.SettingsSnapshot, error) {
	var snap domain.SettingsSnapshot
	err := s.do(ctx, func() {
		snap = domain.SettingsSnapshot{
			Scopes:        s.catalog.Snapshot(),
			GlobalHeaders: s.catalog.GlobalHeaders(),
			Preferences:   s.prefs.Patch(),
			ColumnOrder:   cloneColumnOrder(s.columnOrder),
		}
	})
	return snap, err
}

// ApplySettings merges an edited snapshot. Nil sections are left as they are and
// preferences are patched field by field.
func (s *OverlayService) ApplySettings(ctx context.Context, edited domain.SettingsSnapshot, persist bool) error {
	return s.do(ctx, func() {
		s.catalog.ApplyEdits(edited.Scopes, edited.GlobalHeaders)
		if edited.Preferences != nil {
			s.prefs = edited.Preferences.ApplyTo(s.prefs)
		}
		if edited.ColumnOrder != nil {
			s.columnOrder = cloneColumnOrder(edited.ColumnOrder)
		}
		s.recordCatalogSize()

		s.logger.Info().
			Int("scopes", len(edited.Scopes)).
			Int("globalHeaders", len(edited.GlobalHeaders)).
			Bool("preferences", edited.Preferences != nil).
			Bool("persist", persist).
			Msg("settings applied")

		if persist {
			s.persist()
		}
	})
}

// SetAllEnabled switches every metric of scope on or off and persists the result.
func (s *OverlayService) SetAllEnabled(ctx context.Context, scope domain.Scope, enabled bool) error {
	if !scope.Valid() {
		return ErrUnknownScope
	}
	return s.do(ctx, func() {
		s.catalog.Scope(scope).SetAllEnabled(enabled)
		s.persist()
	})
}

// MoveHeader moves key to index in the global ordering and persists the result.
func (s *OverlayService) MoveHeader(ctx context.Context, key string, index int) error {
	var moved bool
	err := s.do(ctx, func() {
		if moved = s.catalog.MoveHeader(key, index); moved {
			s.persist()
		}
	})
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	return nil
}

// RenameHeader relabels key in every scope that contains it, even where the scope already
// carries the label the global list shows, and persists the result.
func (s *OverlayService) RenameHeader(ctx context.Context, key, header string) error {
	var renamed bool
	err := s.do(ctx, func() {
		if renamed = s.catalog.RenameHeader(key, header); renamed {
			s.persist()
		}
	})
	if err != nil {
		return err
	}
	if !renamed {
		return fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	return nil
}

func (s *OverlayService) Journal(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.journal.Recent(ctx, limit)
}

func cloneColumnOrder(in map[domain.Scope][]string) map[domain.Scope][]string {
	if in == nil {
		return nil
	}
	out := make(map[domain.Scope][]string, len(in))
	for scope, order := range in {
		if scope.Valid() {
			out[scope] = slices.Clone(order)
		}
	}
	return out
}
