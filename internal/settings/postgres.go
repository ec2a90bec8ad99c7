package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const defaultPollInterval = 5 * time.Second

// Setting is the persisted row: one JSON document per key.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Value     string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PostgresOptions configures a PostgresStore.
type PostgresOptions struct {
	DatabaseURL string
	// PollInterval bounds how stale a cross-process change notification can
	// be. Local Puts notify immediately.
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// PostgresStore persists settings in Postgres. Changes made by other
// processes surface to subscribers through polling; local writes notify
// synchronously.
type PostgresStore struct {
	logger zerolog.Logger
	db     *gorm.DB

	mu          sync.Mutex
	subscribers map[int]func(Change)
	nextSub     int
	seen        map[string]time.Time

	stop   context.CancelFunc
	closed chan struct{}
}

func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	gdb, err := gorm.Open(postgres.Open(opts.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open settings database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get settings sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping settings database: %w", err)
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&Setting{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate settings schema: %w", err)
	}

	pollCtx, stop := context.WithCancel(context.Background())
	store := &PostgresStore{
		logger:      opts.Logger.With().Str("component", "settings").Logger(),
		db:          gdb,
		subscribers: make(map[int]func(Change)),
		seen:        make(map[string]time.Time),
		stop:        stop,
		closed:      make(chan struct{}),
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go store.poll(pollCtx, interval)

	return store, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var row Setting
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return json.RawMessage(row.Value), nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value json.RawMessage) error {
	if err := validatePayload(key, value); err != nil {
		return err
	}

	row := Setting{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}

	// The watermark must hold the timestamp the database stored, not the
	// local clock, or the next sweep replays this write as a remote change.
	var stored Setting
	if err := s.db.WithContext(ctx).First(&stored, "key = ?", key).Error; err == nil {
		row.UpdatedAt = stored.UpdatedAt
	}

	s.mu.Lock()
	s.seen[key] = row.UpdatedAt
	subscribers := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(Change{Key: key, Value: value})
	}
	return nil
}

func (s *PostgresStore) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *PostgresStore) Close() error {
	s.stop()
	<-s.closed
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// poll surfaces writes made by other processes. The first sweep only records
// the current state so startup does not replay history.
func (s *PostgresStore) poll(ctx context.Context, interval time.Duration) {
	defer close(s.closed)

	if err := s.sweep(ctx, false); err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Msg("initial settings sweep failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx, true); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("settings sweep failed")
			}
		}
	}
}

func (s *PostgresStore) sweep(ctx context.Context, notify bool) error {
	var rows []Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return err
	}

	s.mu.Lock()
	changes := unseenChanges(s.seen, rows)
	if !notify {
		changes = nil
	}
	subscribers := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	for _, change := range changes {
		for _, fn := range subscribers {
			fn(change)
		}
	}
	return nil
}

// unseenChanges advances the seen watermarks and returns the rows whose
// stored timestamp moved past them. Rows already recorded at or before their
// watermark are skipped, so a local Put is not replayed by the next sweep.
func unseenChanges(seen map[string]time.Time, rows []Setting) []Change {
	var changes []Change
	for _, row := range rows {
		if last, ok := seen[row.Key]; ok && !row.UpdatedAt.After(last) {
			continue
		}
		seen[row.Key] = row.UpdatedAt
		changes = append(changes, Change{Key: row.Key, Value: json.RawMessage(row.Value)})
	}
	return changes
}

func (s *PostgresStore) snapshotSubscribersLocked() []func(Change) {
	subscribers := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	return subscribers
}
