package data

import (
	"context"
	"testing"
	"time"

	"github.com/campus-tools/adeplanning/internal/core"
	"github.com/campus-tools/adeplanning/internal/domain/model"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRepo_Set_Get_Delete(t *testing.T) {
	client, mr := testutil.SetupMiniRedis(t)
	repo := NewRedisCacheRepo(client, "")
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		key := "test:key:1"
		value := []byte("test value")
		ttl := 5 * time.Minute

		require.NoError(t, repo.Set(ctx, key, value, ttl))

		result, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, result)

		assert.True(t, mr.Exists(DefaultKeyPrefix+key), "keys are namespaced")
		assert.Equal(t, ttl, mr.TTL(DefaultKeyPrefix+key))
	})

	t.Run("get non-existent key", func(t *testing.T) {
		result, err := repo.Get(ctx, "non:existent:key")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete existing key", func(t *testing.T) {
		key := "test:key:2"
		require.NoError(t, repo.Set(ctx, key, []byte("to be deleted"), time.Minute))

		deleted, err := repo.Delete(ctx, key)
		require.NoError(t, err)
		assert.True(t, deleted)

		exists, err := repo.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete non-existent key", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, "non:existent:key")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("expiry", func(t *testing.T) {
		key := "test:key:3"
		require.NoError(t, repo.Set(ctx, key, []byte("short lived"), time.Second))
		mr.FastForward(2 * time.Second)

		result, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.Health(ctx))
	})
}

func TestRedisCacheRepo_EmptyKey(t *testing.T) {
	client, _ := testutil.SetupMiniRedis(t)
	repo := NewRedisCacheRepo(client, "custom:")
	ctx := context.Background()

	err := repo.Set(ctx, "", []byte("x"), 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.Get(ctx, "")
	assert.True(t, apperrors.IsValidation(err))
	_, err = repo.Delete(ctx, "")
	assert.True(t, apperrors.IsValidation(err))
	_, err = repo.Exists(ctx, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestRedisCacheRepo_ServerDown(t *testing.T) {
	client, mr := testutil.SetupMiniRedis(t)
	repo := NewRedisCacheRepo(client, "")
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := repo.Health(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))

	_, err = repo.Get(ctx, "k")
	assert.Error(t, err)
}

func TestRedisCacheRepo_WithFeedCacheService(t *testing.T) {
	client, _ := testutil.SetupMiniRedis(t)
	svc := core.NewFeedCacheService(core.FeedCacheServiceOptions{
		Cache:  NewRedisCacheRepo(client, ""),
		Config: core.FeedCacheConfig{TTL: time.Minute},
	})
	ctx := context.Background()
	dates := model.DateRange{
		First: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Last:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}

	got, err := svc.Get(ctx, 42, dates)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, svc.Put(ctx, 42, dates, []byte("BEGIN:VCALENDAR")))
	got, err = svc.Get(ctx, 42, dates)
	require.NoError(t, err)
	assert.Equal(t, []byte("BEGIN:VCALENDAR"), got)

	require.NoError(t, svc.Invalidate(ctx, 42, dates))
	got, err = svc.Get(ctx, 42, dates)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisClient(t *testing.T) {
	client := NewRedisClient(DefaultRedisConfig())
	defer client.Close()
	assert.Equal(t, "localhost:6379", client.Options().Addr)
}
