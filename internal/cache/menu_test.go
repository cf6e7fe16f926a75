package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/food-order-webhook/internal/config"
	"github.com/iliyamo/food-order-webhook/internal/model"
)

var errNotOnMenu = errors.New("not on menu")

type countingCatalog struct {
	lookups int
	menus   int
	items   map[string]int64
}

func (c *countingCatalog) LookupItemID(_ context.Context, name string) (int64, error) {
	c.lookups++
	if id, ok := c.items[name]; ok {
		return id, nil
	}
	return 0, errNotOnMenu
}

func (c *countingCatalog) Menu(context.Context) ([]model.FoodItem, error) {
	c.menus++
	return []model.FoodItem{
		{ID: 1, Name: "falafel", Price: decimal.RequireFromString("4.00")},
		{ID: 2, Name: "foul", Price: decimal.RequireFromString("6.50")},
	}, nil
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingCatalog, Catalog) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	src := &countingCatalog{items: map[string]int64{"falafel": 1}}
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "t"}
	return mr, src, NewMenuCache(src, rdb, cfg, zerolog.Nop())
}

func TestNewMenuCache_Disabled(t *testing.T) {
	src := &countingCatalog{}
	assert.Same(t, src, NewMenuCache(src, nil, config.CacheConfig{Enabled: true}, zerolog.Nop()))
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()
	assert.Same(t, src, NewMenuCache(src, rdb, config.CacheConfig{Enabled: false}, zerolog.Nop()))
}

func TestMenuCache_LookupHitAfterMiss(t *testing.T) {
	mr, src, c := setup(t)
	ctx := context.Background()

	id, err := c.LookupItemID(ctx, "falafel")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	id, err = c.LookupItemID(ctx, " Falafel ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	assert.Equal(t, 1, src.lookups)
	assert.True(t, mr.Exists("t:menu:item:falafel"))
}

func TestMenuCache_NotFoundNotCached(t *testing.T) {
	mr, src, c := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.LookupItemID(ctx, "pizza")
		assert.ErrorIs(t, err, errNotOnMenu)
	}
	assert.Equal(t, 2, src.lookups)
	assert.False(t, mr.Exists("t:menu:item:pizza"))
}

func TestMenuCache_Menu(t *testing.T) {
	mr, src, c := setup(t)
	ctx := context.Background()

	first, err := c.Menu(ctx)
	require.NoError(t, err)
	second, err := c.Menu(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, src.menus)
	require.Len(t, second, 2)
	assert.Equal(t, first[1].Name, second[1].Name)
	assert.True(t, first[1].Price.Equal(second[1].Price))

	mr.FastForward(2 * time.Minute)
	_, err = c.Menu(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.menus)
}

func TestMenuCache_RedisDownFallsThrough(t *testing.T) {
	mr, src, c := setup(t)
	mr.Close()

	id, err := c.LookupItemID(context.Background(), "falafel")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	items, err := c.Menu(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, src.lookups)
}

func TestMenuCache_Invalidate(t *testing.T) {
	mr, src, c := setup(t)
	ctx := context.Background()
	_, _ = c.Menu(ctx)
	_, _ = c.LookupItemID(ctx, "falafel")

	require.NoError(t, c.(*MenuCache).Invalidate(ctx))
	assert.False(t, mr.Exists("t:menu:all"))
	_, _ = c.Menu(ctx)
	assert.Equal(t, 2, src.menus)
}
