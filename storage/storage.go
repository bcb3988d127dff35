package storage

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
	rediscache "github.com/nxtwiseedu/nxtwise-lms/storage/cache/redis"
	"github.com/nxtwiseedu/nxtwise-lms/storage/database"
	inmemdb "github.com/nxtwiseedu/nxtwise-lms/storage/database/inmem"
	mongorepos "github.com/nxtwiseedu/nxtwise-lms/storage/database/mongo"
	sqlxrepos "github.com/nxtwiseedu/nxtwise-lms/storage/database/sqlx"
)

// Backend bundles the repositories of the configured storage.
type Backend struct {
	Catalog  course.Catalog // cached when redis is configured
	Courses  course.Writer
	Progress progress.Store
	Enrolled course.ProgressReader // same repository as Progress

	// set for the postgres storage only
	SQL *sqlx.DB

	cache   *rediscache.Catalog
	closers []func(context.Context) error
}

// Open connects to the storage selected by conf.Storage.
// The postgres database is created and migrated if needed; the memory storage is seeded from conf.SeedCourses.
func Open(ctx context.Context, conf *core.Config, validate *validator.Validate, logger core.Logger) (*Backend, error) {
	b := new(Backend)

	switch conf.Storage {
	case core.StorageMemory, "":
		db := inmemdb.Open()
		b.Courses = inmemdb.NewCourseRepository(db)
		b.Catalog = inmemdb.NewCourseRepository(db)
		b.Progress = inmemdb.NewProgressRepository(db)
		b.Enrolled = inmemdb.NewProgressRepository(db)

	case core.StoragePostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return db.Close() })
		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
		b.SQL = db
		b.Courses = sqlxrepos.NewCourseRepository(db)
		b.Catalog = sqlxrepos.NewCourseRepository(db)
		b.Progress = sqlxrepos.NewProgressRepository(db)
		b.Enrolled = sqlxrepos.NewProgressRepository(db)

	case core.StorageMongo:
		db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(ctx context.Context) error { return mongorepos.Close(ctx, db) })
		b.Courses = mongorepos.NewCourseRepository(db)
		b.Catalog = mongorepos.NewCourseRepository(db)
		b.Progress = mongorepos.NewProgressRepository(db)
		b.Enrolled = mongorepos.NewProgressRepository(db)

	default:
		return nil, errors.Errorf("unknown storage %q", conf.Storage)
	}

	if client := rediscache.NewClient(conf); client != nil {
		b.cache = rediscache.NewCatalog(client, b.Catalog, conf.Redis.TTL, logger)
		b.Catalog = b.cache
		b.closers = append(b.closers, func(context.Context) error { return client.Close() })
	}

	if conf.Storage == core.StorageMemory || conf.Storage == "" {
		for _, path := range conf.SeedCourses {
			c, err := course.ReadYAMLFile(path)
			if err == nil {
				_, err = b.ImportCourse(ctx, c, validate)
			}
			if err != nil {
				_ = b.Close(ctx)
				return nil, errors.Wrapf(err, "seeding %s", path)
			}
			logger.Info(fmt.Sprintf("storage: seeded course %q from %s", c.ID, path))
		}
	}
	return b, nil
}

// NewMemory returns a Backend over a fresh in-memory database.
func NewMemory() *Backend {
	db := inmemdb.Open()
	return &Backend{
		Catalog:  inmemdb.NewCourseRepository(db),
		Courses:  inmemdb.NewCourseRepository(db),
		Progress: inmemdb.NewProgressRepository(db),
		Enrolled: inmemdb.NewProgressRepository(db),
	}
}

// ImportCourse validates c, rewrites its orders to 0..n-1 and stores it.
// The cached copy, if any, is dropped.
func (b *Backend) ImportCourse(ctx context.Context, c course.Course, validate *validator.Validate) (course.Course, error) {
	if err := c.Validate(validate); err != nil {
		return course.Course{}, err
	}
	c = course.Densify(c)
	if err := b.Courses.PutCourse(ctx, c); err != nil {
		return course.Course{}, errors.Wrap(err, "storing course")
	}
	if b.cache != nil {
		if err := b.cache.Invalidate(ctx, c.ID); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Close releases every connection, in reverse opening order.
func (b *Backend) Close(ctx context.Context) error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}
