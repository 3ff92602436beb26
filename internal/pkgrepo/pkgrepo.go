package pkgrepo

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrLayoutMismatch is returned when a package file does not live at the
// expected <root>/<name>/<filename> location.
var ErrLayoutMismatch = errors.New("path does not match package repository layout")

// Default layout of the builtin package repository inside a checkout
const (
	DefaultRoot     = "var/spack/repos/builtin/packages"
	DefaultFilename = "package.py"
)

// Layout describes where package definitions live relative to the checkout root.
// Paths are slash-separated, as git reports them.
type Layout struct {
	Root     string
	Filename string
}

// DefaultLayout returns the builtin repository layout
func DefaultLayout() Layout {
	return Layout{Root: DefaultRoot, Filename: DefaultFilename}
}

// IsPackageFile returns true if p names a package definition file
func (l Layout) IsPackageFile(p string) bool {
	return path.Base(p) == l.Filename
}

// PackageName returns the name of the package defined by the file at p.
// For example: var/spack/repos/builtin/packages/zlib/package.py -> zlib
func (l Layout) PackageName(p string) (string, error) {
	root := strings.Trim(l.Root, "/")
	if root != "" {
		root = path.Clean(root)
	}

	dir, file := path.Split(path.Clean(p))
	if file != l.Filename {
		return "", fmt.Errorf("%w: %s", ErrLayoutMismatch, p)
	}

	parent, name := path.Split(strings.TrimSuffix(dir, "/"))
	if name == "" || strings.Trim(parent, "/") != root {
		return "", fmt.Errorf("%w: %s", ErrLayoutMismatch, p)
	}

	return name, nil
}
