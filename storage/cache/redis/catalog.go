// Package rediscache caches course structures in redis in front of any course catalog.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

const keyPrefix = "lms:course:"

// NewClient returns a client for conf, or nil when the cache is disabled.
func NewClient(conf *core.Config) *redis.Client {
	if conf.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// Catalog is a read-through cache. Cache failures are logged and served from the wrapped catalog;
// unknown courses are not cached.
type Catalog struct {
	client *redis.Client
	next   course.Catalog
	ttl    time.Duration
	logger core.Logger
}

var _ course.Catalog = (*Catalog)(nil)

func NewCatalog(client *redis.Client, next course.Catalog, ttl time.Duration, logger core.Logger) *Catalog {
	return &Catalog{client: client, next: next, ttl: ttl, logger: logger}
}

func key(courseID string) string {
	return keyPrefix + courseID
}

func (cat *Catalog) GetCourse(ctx context.Context, courseID string) (course.Course, error) {
	data, err := cat.client.Get(ctx, key(courseID)).Bytes()
	switch {
	case err == nil:
		var c course.Course
		if err = json.Unmarshal(data, &c); err == nil {
			return c, nil
		}
		cat.logger.Warn(fmt.Sprintf("course cache: decoding %q: %v", courseID, err), err)
	case err != redis.Nil:
		cat.logger.Warn(fmt.Sprintf("course cache: reading %q: %v", courseID, err), err)
	}

	c, err := cat.next.GetCourse(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}
	if data, err = json.Marshal(c); err == nil {
		err = cat.client.Set(ctx, key(courseID), data, cat.ttl).Err()
	}
	if err != nil {
		cat.logger.Warn(fmt.Sprintf("course cache: writing %q: %v", courseID, err), err)
	}
	return c, nil
}

// ListCourses is not cached: imports would have to invalidate it.
func (cat *Catalog) ListCourses(ctx context.Context) ([]course.Summary, error) {
	return cat.next.ListCourses(ctx)
}

// Invalidate drops the cached copy of a course.
func (cat *Catalog) Invalidate(ctx context.Context, courseID string) error {
	return errors.Wrap(cat.client.Del(ctx, key(courseID)).Err(), "invalidating course cache")
}
