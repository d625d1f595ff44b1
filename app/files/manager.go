// Package files implements the sandboxed file manager. Every operation
// resolves its target against a base directory and refuses paths that
// escape it, including escapes through symlinks or `..` segments.
package files

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"filemind/app/utils"
)

var (
	ErrAccessDenied = errors.New("access denied: path escapes base directory")
	ErrNotExist     = errors.New("path does not exist")
	ErrNotDirectory = errors.New("not a directory")
	ErrNotFile      = errors.New("not a file")
	ErrBinaryFile   = errors.New("binary file - cannot display as text")
)

type Entry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension"`
}

type Listing struct {
	CurrentPath string  `json:"current_path"`
	ParentPath  string  `json:"parent_path,omitempty"`
	Items       []Entry `json:"items"`
}

type Manager struct {
	mu          sync.Mutex
	basePath    string
	currentPath string
}

// NewManager creates the base directory when missing and canonicalizes it so
// confinement checks compare resolved paths, never raw user input.
func NewManager(baseDir string) (*Manager, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("cannot get absolute path of base directory: %w", err)
	}
	if err = os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create base directory: %w", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot canonicalize base directory: %w", err)
	}
	return &Manager{
		basePath:    filepath.Clean(canon),
		currentPath: filepath.Clean(canon),
	}, nil
}

func (m *Manager) BasePath() string {
	return m.basePath
}

func (m *Manager) CurrentDirectory() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPath
}

// Resolve canonicalizes a requested path (absolute, or relative to the
// session directory) and verifies it stays inside the base directory.
// Any canonicalization failure is treated as a denial.
func (m *Manager) Resolve(path string) (string, error) {
	m.mu.Lock()
	current := m.currentPath
	m.mu.Unlock()

	var candidate string
	switch {
	case path == "" || path == ".":
		candidate = current
	case filepath.IsAbs(path):
		candidate = filepath.Clean(path)
	default:
		candidate = filepath.Join(current, path)
	}

	canon, err := canonicalize(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, path)
	}
	if !within(m.basePath, canon) {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, path)
	}
	return canon, nil
}

// canonicalize resolves symlinks for the deepest existing ancestor of p and
// re-appends the missing remainder, so targets that do not exist yet are
// still judged by where they would land.
func canonicalize(p string) (string, error) {
	p = filepath.Clean(p)
	var missing []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if len(missing) == 0 {
				return resolved, nil
			}
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return filepath.Clean(resolved), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}

func within(root, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}

// ListDirectory lists the target directory, sorted by name, and makes it the
// session directory. Unreadable entries are skipped, not fatal.
func (m *Manager) ListDirectory(path string) (*Listing, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, target)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	items := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		e := Entry{
			Name:     entry.Name(),
			Path:     filepath.Join(target, entry.Name()),
			Type:     "file",
			Modified: stat.ModTime(),
		}
		if entry.IsDir() {
			e.Type = "directory"
		} else {
			e.Size = stat.Size()
			e.Extension = strings.ToLower(filepath.Ext(entry.Name()))
		}
		items = append(items, e)
	}

	m.mu.Lock()
	m.currentPath = target
	m.mu.Unlock()

	listing := &Listing{CurrentPath: target, Items: items}
	if parent := filepath.Dir(target); parent != target && within(m.basePath, parent) {
		listing.ParentPath = parent
	}
	return listing, nil
}

func (m *Manager) ReadFile(path string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, target)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFile, target)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(content) {
		return "", ErrBinaryFile
	}
	return string(content), nil
}

// WriteFile creates parent directories as needed and truncates any existing
// content. Returns the resolved path written to.
func (m *Manager) WriteFile(path, content string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err = os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", err
	}
	return target, nil
}

func (m *Manager) CreateDirectory(path string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	return target, nil
}

// DeleteItem removes a file, or a directory with all its contents.
func (m *Manager) DeleteItem(path string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	if target == m.basePath {
		return "", fmt.Errorf("%w: refusing to delete base directory", ErrAccessDenied)
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, target)
		}
		return "", err
	}
	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

// OpenItem opens a file with the OS associated application.
func (m *Manager) OpenItem(path string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, target)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFile, target)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err = cmd.Start(); err != nil {
		return "", err
	}
	return target, nil
}

func (m *Manager) ChangeDirectory(path string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, target)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, target)
	}
	m.mu.Lock()
	m.currentPath = target
	m.mu.Unlock()
	return target, nil
}

// Tree renders a pretty listing of the target directory and its children.
func (m *Manager) Tree(path string) (string, error) {
	target, err := m.Resolve(path)
	if err != nil {
		return "", err
	}
	return utils.BuildTree(target, nil, nil)
}
