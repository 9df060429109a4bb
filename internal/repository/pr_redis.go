package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ottereview/ottereview-ai/internal/models"
)

// ErrPRNotFound is returned when no staged PR exists for the requested
// repo/branch pair. Handlers map it to 404.
var ErrPRNotFound = errors.New("pr data not found")

// PRRedis reads the PreparationResult the backend stages in Redis while a PR
// is being drafted. The service never writes these keys.
type PRRedis struct {
	client *redis.Client
}

// NewPRSource returns a PRRedis on top of the given client.
func NewPRSource(client *redis.Client) *PRRedis {
	return &PRRedis{client: client}
}

// Preparation fetches and decodes the staged PR payload for a repo/branch
// pair.
func (r *PRRedis) Preparation(ctx context.Context, repoID int64, source, target string) (*models.PreparationResult, error) {
	key := preparationKey(repoID, source, target)
	log.Printf("[PR Source] fetching %s", key)

	raw, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w (key: %s)", ErrPRNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var pr models.PreparationResult
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return nil, fmt.Errorf("decode pr data for %s: %w", key, err)
	}
	return &pr, nil
}

// preparationKey builds the staging key. Branch names are sanitized the same
// way the backend sanitizes them before writing, so both sides agree on the
// key even for branches like "feature/login".
func preparationKey(repoID int64, source, target string) string {
	return fmt.Sprintf("pr:prepare:%d:%s:%s", repoID, sanitizeBranch(source), sanitizeBranch(target))
}

func sanitizeBranch(name string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", " ", "_")
	return replacer.Replace(name)
}
