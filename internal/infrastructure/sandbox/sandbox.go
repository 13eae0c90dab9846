// Package sandbox confines file tool paths to a single root directory.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// Sandbox resolves client supplied paths against a fixed root.
type Sandbox struct {
	root string
}

// New canonicalizes root and checks that it is a directory.
func New(root string) (*Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving sandbox root %q", root)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving sandbox root %q", root)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sandbox root %q", root)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("sandbox root %q is not a directory", root)
	}
	return &Sandbox{root: canonical}, nil
}

// Root returns the canonical root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps p onto the filesystem. Relative paths are taken from the
// root, absolute paths are used as given. The result must be the root or
// lie beneath it, both lexically and after following symlinks, otherwise
// an AccessDenied ToolError is returned. Resolve never modifies the
// filesystem.
func (s *Sandbox) Resolve(p string) (string, error) {
	var candidate string
	if filepath.IsAbs(p) {
		candidate = filepath.Clean(p)
	} else {
		candidate = filepath.Join(s.root, p)
	}

	if !s.contains(candidate) {
		return "", domain.NewAccessDeniedError()
	}

	resolved, err := evalExisting(candidate)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %q", p)
	}
	if !s.contains(resolved) {
		return "", domain.NewAccessDeniedError()
	}
	return candidate, nil
}

// Rel returns p relative to the root, for display.
func (s *Sandbox) Rel(p string) string {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return p
	}
	return rel
}

func (s *Sandbox) contains(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// evalExisting follows symlinks in the longest existing prefix of p and
// re-appends the components that do not exist yet.
func evalExisting(p string) (string, error) {
	var missing []string
	current := p
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return p, nil
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
