package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRelative(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("src/main.go")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Root(), "src", "main.go"), got)
}

func TestResolveAbsoluteInside(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve(filepath.Join(root, "pkg", "util.go"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Root(), "pkg", "util.go"), got)
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	_, err = r.Resolve("../../etc/passwd")
	require.ErrorIs(t, err, ErrOutsideWorkspace)
}

func TestResolveRejectsAbsoluteOutside(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	_, err = r.Resolve("/etc/passwd")
	require.ErrorIs(t, err, ErrOutsideWorkspace)
}

func TestResolveRejectsEmpty(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	_, err = r.Resolve("")
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = r.Resolve("   ")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestResolveNormalizesDotSegments(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("a/./b/../c.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Root(), "a", "c.txt"), got)
}

func TestResolveSymlinkEscapes(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(root, "leak")
	require.NoError(t, os.Symlink(outside, link))

	r, err := NewResolver(root)
	require.NoError(t, err)

	_, err = r.Resolve("leak/secret.txt")
	require.ErrorIs(t, err, ErrOutsideWorkspace)
}

func TestResolveSymlinkInside(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "alias")))

	r, err := NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("alias/file.go")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Root(), "real", "file.go"), got)
}

func TestResolveSymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	real := filepath.Join(base, "real-root")
	require.NoError(t, os.MkdirAll(real, 0o755))
	link := filepath.Join(base, "root-link")
	require.NoError(t, os.Symlink(real, link))

	r, err := NewResolver(link)
	require.NoError(t, err)

	got, err := r.Resolve("file.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Root(), "file.txt"), got)
}

func TestResolveNonexistentLeaf(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve("does/not/exist/yet.go")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(r.Root(), "does", "not", "exist", "yet.go"), got)
}

func TestResolveRootItself(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	got, err := r.Resolve(".")
	require.NoError(t, err)
	require.Equal(t, r.Root(), got)
}

func TestResolveIdempotent(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	first, err := r.Resolve("nested/dir/file.txt")
	require.NoError(t, err)
	second, err := r.Resolve(first)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
