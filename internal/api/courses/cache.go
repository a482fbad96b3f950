package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursehaven/internal/domain/catalog"

	"github.com/redis/go-redis/v9"
)

const courseTTL = 5 * time.Minute

// Cache is a read-through cache for course detail lookups. All methods are
// nil-receiver safe so handlers never have to branch on whether redis is
// configured.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb}
}

func courseKey(id uint) string {
	return fmt.Sprintf("course:%d", id)
}

func (c *Cache) Get(ctx context.Context, id uint) (*catalog.Course, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, courseKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var course catalog.Course
	if err := json.Unmarshal(data, &course); err != nil {
		return nil, false
	}
	return &course, true
}

func (c *Cache) Set(ctx context.Context, course *catalog.Course) {
	if c == nil {
		return
	}
	data, err := json.Marshal(course)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, courseKey(course.ID), data, courseTTL)
}

func (c *Cache) Invalidate(ctx context.Context, id uint) {
	if c == nil {
		return
	}
	c.rdb.Del(ctx, courseKey(id))
}
