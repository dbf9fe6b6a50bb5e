package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStore_Upload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), []byte("fake image bytes"), "garden.jpg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))

	name := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, []byte("fake image bytes"), data)
}

func TestDiskStore_UniqueNames(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	a, err := s.Upload(context.Background(), []byte("a"), "same.png")
	require.NoError(t, err)
	b, err := s.Upload(context.Background(), []byte("b"), "same.png")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDiskStore_DropsSuspiciousExtension(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), []byte("x"), "../../etc/passwd")
	require.NoError(t, err)
	require.False(t, strings.Contains(url, ".."))
	require.False(t, strings.Contains(strings.TrimPrefix(url, "/uploads/"), "/"))
}
