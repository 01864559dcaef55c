package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/chapterquiz/backend/internal/models"
)

const defaultTTL = 3600 * time.Second

// Cache stores generated quizzes in Redis keyed by generation parameters.
// When Redis is unreachable the cache degrades to a no-op: every Get misses
// and every Set is dropped, so quiz generation still works.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to REDIS_URL (default redis://localhost:6379/0). Connection
// failure disables caching rather than failing startup.
func New() *Cache {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	ttl := defaultTTL
	if raw := os.Getenv("QUIZ_CACHE_TTL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("WARN: [cache] invalid REDIS_URL: %v. Caching disabled.", err)
		return &Cache{ttl: ttl}
	}
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("WARN: [cache] redis connection failed: %v. Caching disabled.", err)
		return &Cache{ttl: ttl}
	}

	log.Println("Redis connection established")
	return &Cache{client: client, ttl: ttl}
}

// Key builds the deterministic cache key for one quiz variant.
func Key(chapterID uuid.UUID, difficulty models.Difficulty, numMCQ, numShort, numNumerical int) string {
	return fmt.Sprintf("quiz:%s:%s:%d:%d:%d", chapterID, difficulty, numMCQ, numShort, numNumerical)
}

// VariantHash is the stable identity of a quiz variant, stored alongside the
// quiz row so identical generation requests dedupe in the database too.
func VariantHash(chapterID uuid.UUID, difficulty models.Difficulty, numMCQ, numShort, numNumerical int) string {
	input := fmt.Sprintf("%s|%s|%d|%d|%d", chapterID, difficulty, numMCQ, numShort, numNumerical)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// GetQuiz returns the cached quiz for key, or nil on miss or cache failure.
func (c *Cache) GetQuiz(ctx context.Context, key string) *models.Quiz {
	if c.client == nil {
		return nil
	}

	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		log.Printf("[cache] miss: %s", key)
		return nil
	}
	if err != nil {
		log.Printf("WARN: [cache] get error: %v", err)
		return nil
	}

	var quiz models.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		log.Printf("WARN: [cache] corrupt entry for %s: %v", key, err)
		return nil
	}

	log.Printf("[cache] hit: %s", key)
	return &quiz
}

// SetQuiz stores a quiz under key with the configured TTL. Failures are
// logged and swallowed.
func (c *Cache) SetQuiz(ctx context.Context, key string, quiz *models.Quiz) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(quiz)
	if err != nil {
		log.Printf("WARN: [cache] marshal error: %v", err)
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("WARN: [cache] set error: %v", err)
		return
	}
	log.Printf("[cache] set: %s (TTL: %s)", key, c.ttl)
}

// ClearChapter removes every cached quiz for a chapter. Used when a chapter
// is re-uploaded or deleted.
func (c *Cache) ClearChapter(ctx context.Context, chapterID uuid.UUID) {
	if c.client == nil {
		return
	}

	pattern := fmt.Sprintf("quiz:%s:*", chapterID)
	var cursor uint64
	cleared := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Printf("WARN: [cache] scan error: %v", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Printf("WARN: [cache] delete error: %v", err)
				return
			}
			cleared += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if cleared > 0 {
		log.Printf("[cache] cleared %d entries for chapter %s", cleared, chapterID)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
