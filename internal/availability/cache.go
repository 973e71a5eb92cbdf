package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slotify/slotify/internal/models"
)

// storeIfNewer writes the snapshot only when its slot version is at least the
// stored one, then fans it out. Out-of-order writers can't roll the cache back.
var storeIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ver')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'ver', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
redis.call('PUBLISH', ARGV[4], ARGV[2])
return 1
`)

// Cache keeps display copies of slot availability in Redis and announces every
// accepted update on a pub/sub channel.
type Cache struct {
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	channel string
}

type CacheOption func(*Cache)

func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = strings.Trim(prefix, ":") }
}

func WithTTL(d time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = d }
}

func WithChannel(channel string) CacheOption {
	return func(c *Cache) { c.channel = channel }
}

func NewCache(rdb *redis.Client, opts ...CacheOption) *Cache {
	c := &Cache{
		rdb:     rdb,
		prefix:  "slotify:availability",
		ttl:     10 * time.Minute,
		channel: "slotify:availability:updates",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(slotID uint) string {
	return fmt.Sprintf("%s:slot:%d", c.prefix, slotID)
}

func (c *Cache) Get(ctx context.Context, slotID uint) (models.Availability, bool, error) {
	data, err := c.rdb.HGet(ctx, c.key(slotID), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Availability{}, false, nil
	}
	if err != nil {
		return models.Availability{}, false, err
	}

	var a models.Availability
	if err := json.Unmarshal(data, &a); err != nil {
		return models.Availability{}, false, fmt.Errorf("decode availability: %w", err)
	}
	return a, true, nil
}

func (c *Cache) Publish(ctx context.Context, a models.Availability) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}

	return storeIfNewer.Run(ctx, c.rdb,
		[]string{c.key(a.SlotID)},
		a.Version,
		data,
		c.ttl.Milliseconds(),
		c.channel,
	).Err()
}

// Listen delivers every update published by any instance to fn until ctx is done.
func (c *Cache) Listen(ctx context.Context, fn func(models.Availability)) {
	sub := c.rdb.Subscribe(ctx, c.channel)
	go func() {
		defer sub.Close()
		log.Printf("[AvailabilityCache] listening on %s", c.channel)

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					log.Println("[AvailabilityCache] subscription closed")
					return
				}
				var a models.Availability
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					log.Printf("[AvailabilityCache] failed to parse update: %v", err)
					continue
				}
				fn(a)
			}
		}
	}()
}
