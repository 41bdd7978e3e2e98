// Package workspace confines all file access to a single root directory.
// Every path a model hands us goes through Resolve before it touches the
// filesystem; resolution follows symlinks on both sides so a link cannot
// smuggle access outside the root.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath marks paths that cannot be interpreted at all.
	ErrInvalidPath = errors.New("invalid path")
	// ErrOutsideWorkspace marks paths that resolve outside the root.
	ErrOutsideWorkspace = errors.New("path escapes workspace")
)

// Resolver validates and normalizes workspace paths.
type Resolver struct {
	root string
}

// NewResolver builds a resolver rooted at root. An empty root defaults to
// the current working directory. The root itself is resolved through
// symlinks once, at construction.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("workspace root: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}

	return &Resolver{root: resolved}, nil
}

// Root returns the resolved workspace root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve turns a model-supplied path into an absolute path guaranteed to
// sit inside the workspace. Relative paths are joined against the root.
// The target does not need to exist: for missing leaves the deepest
// existing ancestor is resolved and the remainder re-joined, so a write
// to a new file under a symlinked directory is still checked against the
// link's real target.
func (r *Resolver) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}

	candidate := filepath.Clean(path)
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(r.root, candidate)
	}

	resolved, err := r.resolveSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	if resolved != r.root && !strings.HasPrefix(resolved, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}

	return resolved, nil
}

// resolveSymlinks is EvalSymlinks extended to paths that do not exist
// yet: it walks up to the deepest existing ancestor, resolves that, and
// re-joins the non-existent tail.
func (r *Resolver) resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	var tail []string
	current := path
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return "", fs.ErrNotExist
		}
		tail = append(tail, filepath.Base(current))
		current = parent

		resolved, err = filepath.EvalSymlinks(current)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	for i := len(tail) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, tail[i])
	}
	return resolved, nil
}
