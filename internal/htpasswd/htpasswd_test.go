package htpasswd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclib/distil/internal/htpasswd"
)

func TestAuthenticate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".htpasswd")
	content := "alice:" + htpasswd.HashPassword("wonderland") + "\n" +
		"bob:$apr1$notsupported\n" +
		"garbage line without colon\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	f, err := htpasswd.Load(path)
	require.NoError(t, err)

	assert.True(t, f.Authenticate("alice", "wonderland"))
	assert.False(t, f.Authenticate("alice", "Wonderland"))
	assert.False(t, f.Authenticate("bob", "anything"), "non-SHA entries fail closed")
	assert.False(t, f.Authenticate("carol", "whatever"), "unknown user")
}

func TestHashPassword(t *testing.T) {
	// a well-known vector: htpasswd -s for "password"
	assert.Equal(t, "{SHA}W6ph5Mm5Pz8GgiULbPgzG37mj9g=", htpasswd.HashPassword("password"))
}
