package repository

import (
	"context"
	"testing"
	"time"

	"frontdesk/internal/config"
	"frontdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDraftRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisDraftRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetDraft", func(t *testing.T) {
		draft := &models.Draft{
			DeskID: "lobby",
			Fields: map[string]interface{}{"name": "Ravi", "room_number": 4},
		}
		require.NoError(t, repo.SaveDraft(ctx, draft))

		got, err := repo.GetDraft(ctx, "lobby")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "lobby", got.DeskID)
		assert.Equal(t, "Ravi", got.GetString("name"))
		assert.Equal(t, int64(4), got.GetInt64("room_number"))

		assert.True(t, s.Exists(draftKeyPrefix+"lobby"))
		assert.Equal(t, time.Hour, s.TTL(draftKeyPrefix+"lobby"))
	})

	t.Run("DraftExpires", func(t *testing.T) {
		s.FastForward(time.Hour + time.Second)
		got, err := repo.GetDraft(ctx, "lobby")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetMissingDraft", func(t *testing.T) {
		got, err := repo.GetDraft(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearDraft", func(t *testing.T) {
		require.NoError(t, repo.SaveDraft(ctx, &models.Draft{DeskID: "annex"}))
		require.NoError(t, repo.ClearDraft(ctx, "annex"))

		got, _ := repo.GetDraft(ctx, "annex")
		assert.Nil(t, got)
	})

	t.Run("CorruptDraft", func(t *testing.T) {
		require.NoError(t, s.Set(draftKeyPrefix+"broken", "{not json"))
		_, err := repo.GetDraft(ctx, "broken")
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, "desk-9", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "desk-9", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "desk-9", 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, "desk-9", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisDraftRepository(nil, time.Hour)
		_, err := repo.GetDraft(ctx, "x")
		assert.ErrorIs(t, err, errNilClient)
		assert.ErrorIs(t, repo.SaveDraft(ctx, &models.Draft{DeskID: "x"}), errNilClient)
		assert.ErrorIs(t, repo.ClearDraft(ctx, "x"), errNilClient)
		_, err = repo.CheckRateLimit(ctx, "x", 1, time.Second)
		assert.ErrorIs(t, err, errNilClient)
	})

	t.Run("ServerDown", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		c := NewRedisClient(config.RedisConfig{Address: down.Addr()})
		defer c.Close()
		down.Close()

		_, err = NewRedisDraftRepository(c, time.Hour).GetDraft(ctx, "x")
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(nil))
	})
}
