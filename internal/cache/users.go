package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
)

const keyPrefix = "voicechat:user:"

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return c, nil
}

// UserCache is a read-through cache in front of a UserRepository. Redis
// failures degrade to direct repository reads.
type UserCache struct {
	next   repositories.UserRepository
	client *redis.Client
	ttl    time.Duration
}

var _ repositories.UserRepository = (*UserCache)(nil)

// NewUserCache wraps next. A nil client disables caching.
func NewUserCache(next repositories.UserRepository, client *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{next: next, client: client, ttl: ttl}
}

func idKey(userID int) string { return keyPrefix + "id:" + strconv.Itoa(userID) }

func nameKey(username string) string { return keyPrefix + "name:" + username }

func (c *UserCache) Get(ctx context.Context, userID int) (models.User, error) {
	if u, ok := c.load(ctx, idKey(userID)); ok {
		return u, nil
	}
	u, err := c.next.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	c.store(ctx, u)
	return u, nil
}

func (c *UserCache) GetByUsername(ctx context.Context, username string) (models.User, error) {
	if u, ok := c.load(ctx, nameKey(username)); ok {
		return u, nil
	}
	u, err := c.next.GetByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	c.store(ctx, u)
	return u, nil
}

// List always reads the repository.
func (c *UserCache) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	return c.next.List(ctx, skip, limit)
}

// Update writes through and drops the entries of both the old and the new username.
func (c *UserCache) Update(ctx context.Context, userID int, in models.UserUpdate) (models.User, error) {
	before, err := c.next.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	u, err := c.next.Update(ctx, userID, in)
	if err != nil {
		return models.User{}, err
	}
	c.invalidate(ctx, before)
	c.invalidate(ctx, u)
	return u, nil
}

// SetReferenceAudio writes through and drops the cached entries.
func (c *UserCache) SetReferenceAudio(ctx context.Context, userID int, url *string) (models.User, error) {
	u, err := c.next.SetReferenceAudio(ctx, userID, url)
	if err != nil {
		return models.User{}, err
	}
	c.invalidate(ctx, u)
	return u, nil
}

func (c *UserCache) load(ctx context.Context, key string) (models.User, bool) {
	if c.client == nil {
		return models.User{}, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.User{}, false
	}
	if err != nil {
		log.Printf("user cache get key=%s err=%v", key, err)
		return models.User{}, false
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		log.Printf("user cache decode key=%s err=%v", key, err)
		return models.User{}, false
	}
	return u, true
}

func (c *UserCache) store(ctx context.Context, u models.User) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, idKey(u.ID), raw, c.ttl)
	pipe.Set(ctx, nameKey(u.Username), raw, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("user cache set user_id=%d err=%v", u.ID, err)
	}
}

func (c *UserCache) invalidate(ctx context.Context, u models.User) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, idKey(u.ID), nameKey(u.Username)).Err(); err != nil {
		log.Printf("user cache del user_id=%d err=%v", u.ID, err)
	}
}
