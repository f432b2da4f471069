package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilvagit/tutorfind/internal/model"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func listings() []model.Listing {
	return []model.Listing{
		{ID: "a", Name: "John Doe", Courses: []string{"Math"}, Price: 50},
		{ID: "b", Name: "Sarah Smith", Courses: []string{"English"}, Price: 40},
	}
}

func TestConnect(t *testing.T) {
	mr, _ := setupRedis(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = Connect(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestCache_SetGet(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	c := New(client, time.Minute)

	_, ok, err := c.Get(ctx, "rest", "New York")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "rest", "New York", listings()))

	got, ok, err := c.Get(ctx, "REST", "new york")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, listings(), got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "rest", "New York")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsAMiss(t *testing.T) {
	mr, client := setupRedis(t)
	c := New(client, time.Minute)

	require.NoError(t, mr.Set(buildKey("rest", ""), "{not json"))

	_, ok, err := c.Get(context.Background(), "rest", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferences_Favorites(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	p := NewPreferences(client)

	require.NoError(t, p.AddFavorite(ctx, "u1", "a"))
	require.NoError(t, p.AddFavorite(ctx, "u1", "b"))
	require.NoError(t, p.RemoveFavorite(ctx, "u1", "a"))

	favs, err := p.Favorites(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b": true}, favs)

	other, err := p.Favorites(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.ErrorIs(t, p.AddFavorite(ctx, "", "a"), ErrNoUser)
}

func TestPreferences_HistoryAndApply(t *testing.T) {
	_, client := setupRedis(t)
	ctx := context.Background()
	p := NewPreferences(client)

	require.NoError(t, p.RecordHits(ctx, "u1", []string{"a"}))
	require.NoError(t, p.RecordHits(ctx, "u1", nil))
	require.NoError(t, p.AddFavorite(ctx, "u1", "b"))

	ls := listings()
	ls[0].Favorite = true // stale flag from another user must be overwritten
	require.NoError(t, p.Apply(ctx, "u1", ls))

	assert.False(t, ls[0].Favorite)
	assert.True(t, ls[0].InSearchHistory)
	assert.True(t, ls[1].Favorite)
	assert.False(t, ls[1].InSearchHistory)

	require.NoError(t, p.ClearHistory(ctx, "u1"))
	history, err := p.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
