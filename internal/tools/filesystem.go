package tools

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeforge-ai/codeforge/internal/workspace"
)

// Filesystem provides file operations confined to the workspace.
type Filesystem struct {
	resolver   *workspace.Resolver
	allowWrite bool
}

// NewFilesystem builds a filesystem tool over an already-constructed resolver.
func NewFilesystem(resolver *workspace.Resolver, allowWrite bool) *Filesystem {
	return &Filesystem{resolver: resolver, allowWrite: allowWrite}
}

// Resolver exposes the underlying path resolver.
func (f *Filesystem) Resolver() *workspace.Resolver {
	return f.resolver
}

// ReadFile returns file contents as a string.
func (f *Filesystem) ReadFile(path string) (string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", WrapError("fs.read_file", err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", WrapError("fs.read_file", err)
	}
	return string(data), nil
}

// WriteFile writes content, creating parent directories as needed.
func (f *Filesystem) WriteFile(path, content string) error {
	if !f.allowWrite {
		return NewError(KindAccessDenied, "fs.write_file", "write is disabled by configuration")
	}
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return WrapError("fs.write_file", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return WrapError("fs.write_file", err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return WrapError("fs.write_file", err)
	}
	return nil
}

// ListDir returns a directory listing, directories suffixed with "/".
func (f *Filesystem) ListDir(path string) ([]string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return nil, WrapError("fs.list_dir", err)
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, WrapError("fs.list_dir", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SearchResult represents a single pattern match.
type SearchResult struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// Search scans files under root for literal pattern occurrences.
func (f *Filesystem) Search(root, pattern string, maxResults int) ([]SearchResult, error) {
	if pattern == "" {
		return nil, NewError(KindInvalidArguments, "fs.search", "pattern is required")
	}
	if root == "" {
		root = "."
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	resolved, err := f.resolver.Resolve(root)
	if err != nil {
		return nil, WrapError("fs.search", err)
	}

	results := make([]SearchResult, 0, maxResults)
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipSearchDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(results) >= maxResults {
			return filepath.SkipAll
		}

		rel, _ := filepath.Rel(f.resolver.Root(), path)

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		lineNum := 1
		for scanner.Scan() {
			if strings.Contains(scanner.Text(), pattern) {
				results = append(results, SearchResult{
					Path:    rel,
					Line:    lineNum,
					Snippet: scanner.Text(),
				})
				if len(results) >= maxResults {
					return filepath.SkipAll
				}
			}
			lineNum++
		}
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipAll) {
		return results, WrapError("fs.search", err)
	}
	return results, nil
}

// DescribeStructure returns a tree-like outline of a directory with depth
// and entry caps, useful for orienting the model in a fresh workspace.
func (f *Filesystem) DescribeStructure(root string, maxDepth, maxEntries int) (string, error) {
	if root == "" {
		root = "."
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxEntries <= 0 {
		maxEntries = 200
	}

	resolved, err := f.resolver.Resolve(root)
	if err != nil {
		return "", WrapError("fs.tree", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", WrapError("fs.tree", err)
	}
	if !info.IsDir() {
		return "", NewError(KindInvalidArguments, "fs.tree", fmt.Sprintf("%s is not a directory", root))
	}

	lines := []string{filepath.Clean(root) + "/"}
	added := 0

	var walk func(string, int) error
	walk = func(path string, depth int) error {
		if depth > maxDepth {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, e := range entries {
			name := e.Name()
			if skipSearchDir(name) {
				continue
			}

			prefix := strings.Repeat("  ", depth-1)
			line := fmt.Sprintf("%s- %s", prefix, name)
			if e.IsDir() {
				line += "/"
			}
			lines = append(lines, line)
			added++
			if added >= maxEntries {
				lines = append(lines, fmt.Sprintf("%s... truncated after %d entries", prefix, maxEntries))
				return filepath.SkipAll
			}

			if e.IsDir() {
				if err := walk(filepath.Join(path, name), depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(resolved, 1); err != nil && !errors.Is(err, filepath.SkipAll) {
		return "", WrapError("fs.tree", err)
	}

	return strings.Join(lines, "\n"), nil
}

func skipSearchDir(name string) bool {
	switch strings.ToLower(name) {
	case ".git", "node_modules", ".idea", ".vscode", "vendor", ".cache":
		return true
	default:
		return false
	}
}
