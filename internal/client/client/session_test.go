package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SaveReopenClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	s, err := OpenSession(ctx, path)
	require.NoError(t, err)

	_, err = s.AccessToken(ctx, "http://a")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, s.Save(ctx, "http://a", "tok-a"))
	require.NoError(t, s.Close())

	s, err = OpenSession(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tok, err := s.AccessToken(ctx, "http://a")
	require.NoError(t, err)
	assert.Equal(t, "tok-a", tok)

	_, err = s.AccessToken(ctx, "http://b")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, s.Clear(ctx))
	_, err = s.AccessToken(ctx, "http://a")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
