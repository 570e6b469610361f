package providers

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodielens/dishbook/internal/config"
	"github.com/foodielens/dishbook/internal/infra/database"
	"github.com/foodielens/dishbook/internal/infra/gateway"
	"github.com/foodielens/dishbook/internal/infra/lock"
	"github.com/foodielens/dishbook/internal/infra/repository"
	"github.com/foodielens/dishbook/internal/infra/storage"
	"github.com/foodielens/dishbook/internal/service"
	"github.com/foodielens/dishbook/internal/usecase"
)

// NewDatabase opens the configured database driver.
func NewDatabase(conf config.Database) (*gorm.DB, error) {
	switch conf.Driver {
	case "postgres":
		return database.NewPostgres(conf.Dsn)
	case "sqlite":
		if dir := filepath.Dir(conf.Dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return database.NewSqlite(conf.Dsn)
	default:
		return nil, errors.Errorf("unknown database driver %q", conf.Driver)
	}
}

// MigrateDatabase applies migrations for the application models.
func MigrateDatabase(db *gorm.DB) error {
	return database.Migrate(db)
}

// NewRedis connects to redis, or returns nil when no address is configured.
func NewRedis(ctx context.Context, conf config.Server) (*redis.Client, error) {
	if conf.RedisAddr == "" {
		return nil, nil
	}
	return database.NewRedis(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
}

// NewMemcache returns a client for the comma separated server list, or nil.
func NewMemcache(conf config.Cache) *memcache.Client {
	if conf.MemcachedAddr == "" {
		return nil
	}
	return database.NewMemcached(strings.Split(conf.MemcachedAddr, ","), 0)
}

// NewTable picks the record table backend.
func NewTable(conf config.Table, db *gorm.DB, files *storage.Filesystem) (usecase.RecordTable, error) {
	switch conf.Backend {
	case "database":
		return repository.NewRecordRepository(db), nil
	case "csv":
		return repository.NewCSVTable(files, conf.Name), nil
	default:
		return nil, errors.Errorf("unknown table backend %q", conf.Backend)
	}
}

// NewLocker picks the table lock. Redis is needed when several processes
// share one file table.
func NewLocker(conf config.Lock, rdb *redis.Client) (usecase.Locker, error) {
	switch conf.Backend {
	case "local":
		return lock.NewLocal(), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis lock requires a redis connection")
		}
		return lock.NewRedis(rdb, conf.TTLDuration(), conf.RetryDuration()), nil
	default:
		return nil, errors.Errorf("unknown lock backend %q", conf.Backend)
	}
}

// App holds every long-lived component of a running process.
type App struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Signal      *service.SignalService
	Assets      *usecase.AssetUsecase
	Records     *usecase.RecordUsecase
	Submissions *usecase.SubmissionUsecase
}

// Close releases the connections App holds.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// NewApp wires the configured backends into the usecases.
func NewApp(ctx context.Context, conf config.Config) (*App, error) {
	app := &App{}

	db, err := NewDatabase(conf.Database)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	app.DB = db

	if err := MigrateDatabase(db); err != nil {
		app.Close()
		return nil, errors.Wrap(err, "migrate database")
	}

	rdb, err := NewRedis(ctx, conf.Server)
	if err != nil {
		app.Close()
		return nil, errors.Wrap(err, "connect redis")
	}
	app.Redis = rdb

	files, err := storage.NewFilesystem(conf.Assets.Root)
	if err != nil {
		app.Close()
		return nil, errors.Wrap(err, "open asset root")
	}

	table, err := NewTable(conf.Table, db, files)
	if err != nil {
		app.Close()
		return nil, err
	}

	locker, err := NewLocker(conf.Lock, rdb)
	if err != nil {
		app.Close()
		return nil, err
	}

	index := gateway.NewAssetCache(
		repository.NewAssetRepository(db),
		NewMemcache(conf.Cache),
		conf.Cache.TTLDuration(),
	)

	var publisher usecase.EventPublisher
	if rdb != nil {
		app.Signal = service.NewSignalService(rdb)
		publisher = app.Signal
	}

	app.Assets = usecase.NewAssetUsecase(files, index)
	app.Records = usecase.NewRecordUsecase(table, locker)
	app.Submissions = usecase.NewSubmissionUsecase(app.Assets, app.Records, publisher, conf.Submission)

	slog.InfoContext(ctx, "components ready",
		slog.String("database", conf.Database.Driver),
		slog.String("table", conf.Table.Backend),
		slog.String("lock", conf.Lock.Backend),
		slog.Bool("realtime", app.Signal != nil),
		slog.String("module", "providers"),
	)

	return app, nil
}
