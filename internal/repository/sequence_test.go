package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/testing/suite"
)

func TestRoomSequence_Next(t *testing.T) {
	ctx, st := suite.New(t)

	t.Run("Processes sharing a key never reuse an id", func(t *testing.T) {
		// Given: two sequences sharing the default key, as two processes would
		first := NewRoomSequence(st.Storage, "")
		second := NewRoomSequence(st.Storage, DefaultSequenceKey)

		// When: both hand out ids
		ids := make(map[string]struct{})
		for range 5 {
			id, err := first.Next(ctx)
			require.NoError(t, err)
			ids[id] = struct{}{}

			id, err = second.Next(ctx)
			require.NoError(t, err)
			ids[id] = struct{}{}
		}

		// Then: no id is handed out twice and the counter moved by ten
		assert.Len(t, ids, 10)
		assert.Equal(t, int64(10), st.Issued(ctx, t, DefaultSequenceKey))
	})

	t.Run("Separate keys count separately", func(t *testing.T) {
		key := st.KeyFor(t)
		sequence := NewRoomSequence(st.Storage, key)

		id, err := sequence.Next(ctx)

		require.NoError(t, err)
		assert.Equal(t, "1", id)
		assert.Equal(t, int64(1), st.Issued(ctx, t, key))
	})
}

func TestRoomSequence_Current(t *testing.T) {
	ctx, st := suite.New(t)

	t.Run("Zero for a key nobody has used", func(t *testing.T) {
		sequence := NewRoomSequence(st.Storage, st.KeyFor(t))

		current, err := sequence.Current(ctx)

		require.NoError(t, err)
		assert.Zero(t, current)
	})

	t.Run("Last id handed out", func(t *testing.T) {
		// Given: a sequence that handed out three ids
		sequence := NewRoomSequence(st.Storage, st.KeyFor(t))
		for range 3 {
			_, err := sequence.Next(ctx)
			require.NoError(t, err)
		}

		// When: the current value is read
		current, err := sequence.Current(ctx)

		// Then: it matches the stored counter
		require.NoError(t, err)
		assert.Equal(t, int64(3), current)
		assert.Equal(t, current, st.Issued(ctx, t, st.KeyFor(t)))
	})
}

func TestRedisStorage(t *testing.T) {
	ctx, st := suite.New(t)

	t.Run("Connects to a live Redis", func(t *testing.T) {
		redisStorage, err := storage.NewRedisStorage(ctx, st.RedisAddr)
		require.NoError(t, err)

		sequence := NewRoomSequence(redisStorage.Connection, st.KeyFor(t))
		id, err := sequence.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1", id)

		require.NoError(t, redisStorage.Close())
	})

	t.Run("Fails when nothing listens", func(t *testing.T) {
		_, err := storage.NewRedisStorage(ctx, "127.0.0.1:1")

		require.Error(t, err)
	})
}
