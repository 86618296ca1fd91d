package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	payload := []byte("<html>pong</html>")
	ref, err := store.Put(ctx, gamevault.PutRequest{
		Data:        payload,
		ContentType: "text/html",
		Labels:      map[string]string{"title": "Pong", "owner": "0xabc"},
	})
	require.NoError(t, err)

	sum := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(sum[:]), ref.ID, "ID is the hex SHA-256 of the payload")
	assert.Equal(t, "memory://"+ref.ID, ref.URL)
	assert.Equal(t, int64(len(payload)), ref.SizeBytes)

	rc, err := store.Get(ctx, ref.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	assert.Equal(t, "Pong", store.Labels(ref.ID)["title"])
}

func TestPutIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	store := New()

	ref1, err := store.Put(ctx, gamevault.PutRequest{Data: []byte("same")})
	require.NoError(t, err)
	ref2, err := store.Put(ctx, gamevault.PutRequest{Data: []byte("same")})
	require.NoError(t, err)
	ref3, err := store.Put(ctx, gamevault.PutRequest{Data: []byte("different")})
	require.NoError(t, err)

	assert.Equal(t, ref1.ID, ref2.ID, "identical payloads share a handle")
	assert.NotEqual(t, ref1.ID, ref3.ID)
}

func TestPutValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("empty payload", func(t *testing.T) {
		store := New()
		_, err := store.Put(ctx, gamevault.PutRequest{})
		var validationErr *gamevault.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("oversized payload", func(t *testing.T) {
		store := New(WithMaxSize(4))
		_, err := store.Put(ctx, gamevault.PutRequest{Data: []byte("12345")})
		var validationErr *gamevault.ValidationError
		require.ErrorAs(t, err, &validationErr)

		_, err = store.Put(ctx, gamevault.PutRequest{Data: []byte("1234")})
		assert.NoError(t, err)
	})
}

func TestPutStoresACopy(t *testing.T) {
	ctx := context.Background()
	store := New()

	payload := []byte("original")
	ref, err := store.Put(ctx, gamevault.PutRequest{Data: payload})
	require.NoError(t, err)

	payload[0] = 'X'

	rc, err := store.Get(ctx, ref.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)
}

func TestGetAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, gamevault.ErrContentNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "missing"), gamevault.ErrContentNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := New()

	ref, err := store.Put(ctx, gamevault.PutRequest{Data: []byte("payload")})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref.ID))

	_, err = store.Get(ctx, ref.ID)
	assert.ErrorIs(t, err, gamevault.ErrContentNotFound)
	assert.Nil(t, store.Labels(ref.ID))
}
