package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/oshokin/tube-grabber/internal/constants"
	"github.com/oshokin/tube-grabber/internal/utils"
)

// PathResolver computes deterministic output paths.
type PathResolver interface {
	// Resolve returns the destination of a download.
	Resolve(title string, isVideo bool, qualityLabel, extension string) string
	// EnsureDirectories creates the output folder tree.
	EnsureDirectories() error
	// BaseDir returns the root output folder.
	BaseDir() string
	// ThumbnailDir returns the folder for downloaded thumbnails.
	ThumbnailDir() string
	// TempDir returns the folder for intermediate files.
	TempDir() string
}

// PathResolverImpl implements PathResolver.
type PathResolverImpl struct {
	// baseDir is the absolute root output folder.
	baseDir string
	// maxNameLength is the maximum file name length in runes, extension included.
	maxNameLength int
}

const (
	// fallbackTitle names files whose title sanitizes to nothing.
	fallbackTitle = "untitled"
	// minTitleRunes is kept from the title even when the suffix is long.
	minTitleRunes = 8
)

// NewPathResolver creates and returns a new instance of PathResolverImpl.
func NewPathResolver(baseDir string, maxNameLength int) PathResolver {
	return &PathResolverImpl{
		baseDir:       filepath.Clean(baseDir),
		maxNameLength: maxNameLength,
	}
}

// Resolve returns "<base>/Video/<title> (<quality>).<ext>" or the same under Audio.
func (pr *PathResolverImpl) Resolve(title string, isVideo bool, qualityLabel, extension string) string {
	folder := constants.AudioFolderName
	if isVideo {
		folder = constants.VideoFolderName
	}

	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")

	suffix := ""
	if label := utils.SanitizeFilename(qualityLabel); label != "" {
		suffix = " (" + label + ")"
	}

	if extension != "" {
		suffix += "." + utils.SanitizeFilename(extension)
	}

	name := utils.SanitizeFilename(title)
	if pr.maxNameLength > 0 {
		limit := max(pr.maxNameLength-utf8.RuneCountInString(suffix), minTitleRunes)
		name = utils.TruncateRunes(name, limit)
	}

	if name == "" {
		name = fallbackTitle
	}

	return filepath.Join(pr.baseDir, folder, name+suffix)
}

// EnsureDirectories creates the output folder tree.
func (pr *PathResolverImpl) EnsureDirectories() error {
	folders := []string{
		filepath.Join(pr.baseDir, constants.VideoFolderName),
		filepath.Join(pr.baseDir, constants.AudioFolderName),
		pr.ThumbnailDir(),
		pr.TempDir(),
	}

	for _, folder := range folders {
		if err := os.MkdirAll(folder, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create folder '%s': %w", folder, err)
		}
	}

	return nil
}

// BaseDir returns the root output folder.
func (pr *PathResolverImpl) BaseDir() string {
	return pr.baseDir
}

// ThumbnailDir returns the folder for downloaded thumbnails.
func (pr *PathResolverImpl) ThumbnailDir() string {
	return filepath.Join(pr.baseDir, constants.ThumbnailFolderName)
}

// TempDir returns the folder for intermediate files.
func (pr *PathResolverImpl) TempDir() string {
	return filepath.Join(pr.baseDir, constants.TempFolderName)
}
