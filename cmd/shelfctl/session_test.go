package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	sess, err := loadSession(path)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, saveSession(path, storedSession{Server: "http://shelf.test", AccessToken: "tok"}))

	sess, err = loadSession(path)
	require.NoError(t, err)
	assert.Equal(t, &storedSession{Server: "http://shelf.test", AccessToken: "tok"}, sess)
}
