package files

//go:generate $MOCKGEN -source=opener.go -destination=mocks/opener_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"

	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/utils"
)

// Opener opens paths inside the output folder.
type Opener interface {
	// OpenFile opens a file with its default application.
	OpenFile(ctx context.Context, path string) error
	// OpenLocation opens the folder of a file, or the folder itself.
	OpenLocation(ctx context.Context, path string) error
}

// OpenerImpl implements Opener.
type OpenerImpl struct {
	// baseDir is the only tree that may be opened.
	baseDir string
	// open hands a path to the operating system.
	open func(path string) error
}

// Static error definitions for better error handling.
var (
	// ErrEmptyPath indicates that no path was given.
	ErrEmptyPath = errors.New("path cannot be empty")
	// ErrOutsideOutputDir indicates that the path is not inside the output folder.
	ErrOutsideOutputDir = errors.New("path is outside the output folder")
	// ErrPathNotFound indicates that the path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotAFile indicates that a folder was given where a file is expected.
	ErrNotAFile = errors.New("path is not a file")
)

// NewOpener creates an opener for baseDir using the system handler.
func NewOpener(baseDir string) Opener {
	return NewOpenerWithFunc(baseDir, browser.OpenFile)
}

// NewOpenerWithFunc creates an opener with an explicit open function.
func NewOpenerWithFunc(baseDir string, open func(path string) error) Opener {
	return &OpenerImpl{
		baseDir: filepath.Clean(baseDir),
		open:    open,
	}
}

// OpenFile opens a file with its default application.
func (o *OpenerImpl) OpenFile(ctx context.Context, path string) error {
	resolved, stat, err := o.resolve(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotAFile, resolved)
	}

	return o.openPath(ctx, resolved)
}

// OpenLocation opens the folder of a file, or the folder itself.
func (o *OpenerImpl) OpenLocation(ctx context.Context, path string) error {
	resolved, stat, err := o.resolve(path)
	if err != nil {
		return err
	}

	if !stat.IsDir() {
		resolved = filepath.Dir(resolved)
	}

	return o.openPath(ctx, resolved)
}

// resolve accepts absolute paths inside the output folder and paths relative to it.
func (o *OpenerImpl) resolve(path string) (string, os.FileInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return "", nil, ErrEmptyPath
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) || !utils.IsPathWithin(o.baseDir, resolved) {
		resolved = filepath.Join(o.baseDir, strings.TrimLeft(filepath.ToSlash(path), "/"))
	}

	if !utils.IsPathWithin(o.baseDir, resolved) {
		return "", nil, fmt.Errorf("%w: %s", ErrOutsideOutputDir, path)
	}

	stat, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("%w: %s", ErrPathNotFound, resolved)
		}

		return "", nil, err
	}

	return resolved, stat, nil
}

func (o *OpenerImpl) openPath(ctx context.Context, path string) error {
	logger.Debugf(ctx, "Opening '%s'", path)

	if err := o.open(path); err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}

	return nil
}
