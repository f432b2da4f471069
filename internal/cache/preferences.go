package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rsilvagit/tutorfind/internal/model"
)

var ErrNoUser = errors.New("cache: user id is required")

// Preferences persists each user's favorites and search history as Redis
// sets of listing keys.
type Preferences struct {
	client *redis.Client
}

func NewPreferences(client *redis.Client) *Preferences {
	return &Preferences{client: client}
}

func favoritesKey(user string) string { return "tutorfind:user:" + user + ":favorites" }
func historyKey(user string) string   { return "tutorfind:user:" + user + ":history" }

func (p *Preferences) AddFavorite(ctx context.Context, user, listingKey string) error {
	if user == "" {
		return ErrNoUser
	}
	if err := p.client.SAdd(ctx, favoritesKey(user), listingKey).Err(); err != nil {
		return fmt.Errorf("cache: add favorite: %w", err)
	}
	return nil
}

func (p *Preferences) RemoveFavorite(ctx context.Context, user, listingKey string) error {
	if user == "" {
		return ErrNoUser
	}
	if err := p.client.SRem(ctx, favoritesKey(user), listingKey).Err(); err != nil {
		return fmt.Errorf("cache: remove favorite: %w", err)
	}
	return nil
}

func (p *Preferences) Favorites(ctx context.Context, user string) (map[string]bool, error) {
	return p.members(ctx, user, favoritesKey(user))
}

// RecordHits adds listing keys to the user's search history.
func (p *Preferences) RecordHits(ctx context.Context, user string, listingKeys []string) error {
	if user == "" {
		return ErrNoUser
	}
	if len(listingKeys) == 0 {
		return nil
	}
	members := make([]any, len(listingKeys))
	for i, k := range listingKeys {
		members[i] = k
	}
	if err := p.client.SAdd(ctx, historyKey(user), members...).Err(); err != nil {
		return fmt.Errorf("cache: record hits: %w", err)
	}
	return nil
}

func (p *Preferences) History(ctx context.Context, user string) (map[string]bool, error) {
	return p.members(ctx, user, historyKey(user))
}

func (p *Preferences) ClearHistory(ctx context.Context, user string) error {
	if user == "" {
		return ErrNoUser
	}
	if err := p.client.Del(ctx, historyKey(user)).Err(); err != nil {
		return fmt.Errorf("cache: clear history: %w", err)
	}
	return nil
}

// Apply overwrites Favorite and InSearchHistory on every listing with the
// user's stored flags.
func (p *Preferences) Apply(ctx context.Context, user string, listings []model.Listing) error {
	favorites, err := p.Favorites(ctx, user)
	if err != nil {
		return err
	}
	history, err := p.History(ctx, user)
	if err != nil {
		return err
	}
	for i := range listings {
		key := listings[i].Key()
		listings[i].Favorite = favorites[key]
		listings[i].InSearchHistory = history[key]
	}
	return nil
}

func (p *Preferences) members(ctx context.Context, user, key string) (map[string]bool, error) {
	if user == "" {
		return nil, ErrNoUser
	}
	keys, err := p.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", key, err)
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set, nil
}
