package table

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/kapu/student-insights-go/internal/constants"
	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/pkg/errors"
	"go.uber.org/zap"
)

// SharedStore is the optional cross-process tier for raw rows of remote
// sources. cache.CacheService satisfies it.
type SharedStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type LoaderConfig struct {
	Source SourceConfig
	// Shared, when set, caches raw rows of remote sources for SharedTTL.
	Shared    SharedStore
	SharedTTL time.Duration
	// Postgres is required for the postgres source kind.
	Postgres RowQuerier
}

// Loader owns the session table. The first Load reads and parses the source;
// later calls return the same table until Invalidate.
type Loader struct {
	source    Source
	opts      ParseOptions
	shared    SharedStore
	sharedTTL time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	table *domain.Table
}

func NewLoader(ctx context.Context, cfg LoaderConfig, logger *zap.Logger) (*Loader, error) {
	if err := cfg.Source.Validate(); err != nil {
		return nil, err
	}

	source, err := newSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return NewLoaderWithSource(source, cfg.Source, cfg.Shared, cfg.SharedTTL, logger), nil
}

// NewLoaderWithSource builds a loader around an already constructed source.
func NewLoaderWithSource(source Source, sc SourceConfig, shared SharedStore, sharedTTL time.Duration, logger *zap.Logger) *Loader {
	if sharedTTL <= 0 {
		sharedTTL = constants.CacheTTL.SharedRows
	}
	return &Loader{
		source: source,
		opts: ParseOptions{
			Source:          source.Name(),
			Header:          sc.headerMode(),
			KeepHeaderNames: !sc.InferSchema,
		},
		shared:    shared,
		sharedTTL: sharedTTL,
		logger:    logger,
	}
}

func newSource(ctx context.Context, cfg LoaderConfig, logger *zap.Logger) (Source, error) {
	sc := cfg.Source
	switch sc.Kind {
	case SourceLiteral:
		return newLiteralSource(sc.Literal), nil
	case SourceURL:
		return newURLSource(sc.URL, sc.FetchTimeout, logger), nil
	case SourcePath:
		return newPathSource(sc.Path), nil
	case SourceSheet:
		return newSheetSource(ctx, sc, logger)
	case SourcePostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres source requires a database connection")
		}
		return newPostgresSource(cfg.Postgres, sc.PostgresQuery), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", sc.Kind)
	}
}

// Load returns the cached table, reading the source on first use.
func (l *Loader) Load(ctx context.Context) (*domain.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.table != nil {
		return l.table, nil
	}

	start := time.Now()
	rows, err := l.readRows(ctx)
	if err != nil {
		return nil, errors.NewSchemaError("source unreachable", l.source.Name(), 0, err)
	}

	table, err := Parse(rows, l.opts)
	if err != nil {
		l.logger.Error("Student table rejected",
			zap.String("source", l.source.Name()),
			zap.Error(err))
		return nil, err
	}

	l.reportIssues(table)
	l.table = table

	l.logger.Info("Student table loaded",
		zap.String("source", table.Source),
		zap.Int("records", len(table.Records)),
		zap.Int("pairs", table.Pairs),
		zap.Int("issues", len(table.Issues)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return table, nil
}

// Invalidate drops the cached table and the shared copy of the raw rows. The
// next Load reads the source again.
func (l *Loader) Invalidate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.table = nil

	if l.shared != nil && l.source.Remote() {
		if err := l.shared.Del(ctx, l.sharedKey()); err != nil {
			return fmt.Errorf("failed to invalidate shared table cache: %w", err)
		}
	}

	l.logger.Info("Student table cache invalidated", zap.String("source", l.source.Name()))
	return nil
}

func (l *Loader) readRows(ctx context.Context) ([]Row, error) {
	useShared := l.shared != nil && l.source.Remote()
	key := l.sharedKey()

	if useShared {
		var rows []Row
		found, err := l.shared.Get(ctx, key, &rows)
		if err != nil {
			l.logger.Warn("Shared table cache read failed, reading source", zap.Error(err))
		} else if found && len(rows) > 0 {
			l.logger.Debug("Shared table cache hit", zap.String("key", key))
			return rows, nil
		}
	}

	rows, err := l.source.Rows(ctx)
	if err != nil {
		return nil, err
	}

	if useShared {
		if err := l.shared.Set(ctx, key, rows, l.sharedTTL); err != nil {
			l.logger.Warn("Shared table cache write failed", zap.Error(err))
		}
	}

	return rows, nil
}

func (l *Loader) sharedKey() string {
	sum := sha1.Sum([]byte(l.source.Name()))
	return "student-insights:rows:" + hex.EncodeToString(sum[:8])
}

func (l *Loader) reportIssues(table *domain.Table) {
	for _, issue := range table.Issues {
		l.logger.Warn("Row excluded from student table",
			zap.Int("line", issue.Line),
			zap.String("user_id", issue.ID),
			zap.String("reason", issue.Reason))
	}

	seen := make(map[string]int, len(table.Records))
	for _, rec := range table.Records {
		if firstLine, ok := seen[rec.ID]; ok {
			l.logger.Warn("Duplicate student identifier",
				zap.String("user_id", rec.ID),
				zap.Int("first_line", firstLine),
				zap.Int("line", rec.Line))
			continue
		}
		seen[rec.ID] = rec.Line
	}
}
