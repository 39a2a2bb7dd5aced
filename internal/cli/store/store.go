package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"CardKeeper/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// MemoryDSN returns a DSN of a fresh private in-memory database.
func MemoryDSN() string {
	return "file:cardkeeper-" + uuid.NewString() + "?mode=memory&cache=shared"
}

// Handle — открытое встроенное хранилище. Даёт только транзакционные
// дескрипторы чтения/записи, бизнес-логики здесь нет.
type Handle struct {
	db       *gorm.DB
	dsn      string
	version  int
	degraded bool

	mu     sync.RWMutex
	closed bool
}

// Read runs fn against a read handle.
func (h *Handle) Read(ctx context.Context, fn func(tx *gorm.DB) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("%w: store is closed", common.ErrStorageUnavailable)
	}
	return fn(h.db.WithContext(ctx))
}

// Write runs fn inside a transaction: commit on nil, rollback otherwise.
func (h *Handle) Write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("%w: store is closed", common.ErrStorageUnavailable)
	}
	return h.db.WithContext(ctx).Transaction(fn)
}

// SchemaVersion returns the schema version after upgrade.
func (h *Handle) SchemaVersion() int { return h.version }

// Degraded reports whether the handle is the in-memory fallback.
func (h *Handle) Degraded() bool { return h.degraded }

// DSN returns the data source the handle was opened with.
func (h *Handle) DSN() string { return h.dsn }

// Close closes the underlying database. Repeated calls are no-ops.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Opener открывает хранилище один раз на процесс и раздаёт общий Handle.
type Opener struct {
	dsn      string
	fallback string
	log      *zap.SugaredLogger

	mu     sync.Mutex
	handle *Handle
}

// NewOpener creates an opener for dsn. If fallbackDSN is not empty it is
// used when dsn cannot be opened, and the handle is marked degraded.
func NewOpener(dsn, fallbackDSN string, log *zap.SugaredLogger) *Opener {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Opener{dsn: dsn, fallback: fallbackDSN, log: log}
}

// Open is idempotent: every caller gets the same handle. A failed open is
// reported as ErrStorageUnavailable and retried on the next call.
func (o *Opener) Open(ctx context.Context) (*Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle != nil {
		return o.handle, nil
	}
	h, err := open(ctx, o.dsn)
	if err != nil {
		if o.fallback == "" {
			o.log.Errorw("failed to open local store", "dsn", o.dsn, "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
		}
		o.log.Warnw("local store unavailable, using in-memory fallback", "dsn", o.dsn, "error", err)
		fh, ferr := open(ctx, o.fallback)
		if ferr != nil {
			o.log.Errorw("failed to open fallback store", "error", ferr)
			return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, errors.Join(err, ferr))
		}
		fh.degraded = true
		h = fh
	}
	o.log.Infow("local store opened", "dsn", h.dsn, "schema_version", h.version, "degraded", h.degraded)
	o.handle = h
	return h, nil
}

// Opened reports whether Open has already succeeded.
func (o *Opener) Opened() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handle != nil
}

// Close closes the shared handle, if any.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle == nil {
		return nil
	}
	err := o.handle.Close()
	o.handle = nil
	return err
}

func isFileDSN(dsn string) bool {
	return !strings.HasPrefix(dsn, "file:") && dsn != ":memory:"
}

func open(ctx context.Context, dsn string) (*Handle, error) {
	if dsn == "" {
		return nil, errors.New("empty dsn")
	}
	if isFileDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
			return nil, err
		}
	}
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite — один писатель; одно соединение исключает SQLITE_BUSY
	// и держит in-memory базу живой.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := applyPragmas(ctx, db, isFileDSN(dsn)); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	version, err := upgrade(ctx, db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("upgrade schema: %w", err)
	}
	return &Handle{db: db, dsn: dsn, version: version}, nil
}

func applyPragmas(ctx context.Context, db *gorm.DB, onDisk bool) error {
	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if onDisk {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if err := db.WithContext(ctx).Exec(p).Error; err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// upgrade brings the schema up to CurrentSchemaVersion and returns it.
func upgrade(ctx context.Context, db *gorm.DB) (int, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&SchemaMeta{}); err != nil {
		return 0, err
	}
	version, err := readVersion(db)
	if err != nil {
		return 0, err
	}
	for _, step := range schemaSteps {
		if step.Version <= version {
			continue
		}
		if err := db.AutoMigrate(step.Models...); err != nil {
			return version, fmt.Errorf("schema v%d: %w", step.Version, err)
		}
		version = step.Version
		meta := SchemaMeta{Key: schemaVersionKey, Value: strconv.Itoa(version)}
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&meta).Error; err != nil {
			return version, err
		}
	}
	return version, nil
}

func readVersion(db *gorm.DB) (int, error) {
	var metas []SchemaMeta
	if err := db.Where(&SchemaMeta{Key: schemaVersionKey}).Limit(1).Find(&metas).Error; err != nil {
		return 0, err
	}
	if len(metas) == 0 {
		return 0, nil
	}
	v, err := strconv.Atoi(metas[0].Value)
	if err != nil {
		return 0, fmt.Errorf("bad schema version %q: %w", metas[0].Value, err)
	}
	return v, nil
}
