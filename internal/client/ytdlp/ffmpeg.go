package ytdlp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/oshokin/tube-grabber/internal/utils"
)

const (
	ffmpegBinaryName = "ffmpeg"

	// appDirName is the application folder inside the user config directory.
	appDirName = "tube-grabber"
	// bundledToolsDirName holds binaries shipped next to the configuration.
	bundledToolsDirName = "bin"
)

// FFmpegLocator finds the ffmpeg executable.
type FFmpegLocator struct {
	// explicit is the configured path to ffmpeg or its directory.
	explicit string
	// lookPath resolves a binary from PATH.
	lookPath func(file string) (string, error)
	// bundledDir is the fallback directory.
	bundledDir string
}

// NewFFmpegLocator returns a locator that tries explicit, then PATH, then the bundled tools directory.
func NewFFmpegLocator(explicit string) *FFmpegLocator {
	return &FFmpegLocator{
		explicit:   strings.TrimSpace(explicit),
		lookPath:   exec.LookPath,
		bundledDir: BundledToolsDir(),
	}
}

// BundledToolsDir returns the directory where bundled binaries are expected.
func BundledToolsDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(configDir, appDirName, bundledToolsDirName)
}

// Locate returns the path of the ffmpeg executable.
func (l *FFmpegLocator) Locate() (string, error) {
	if l.explicit != "" {
		if path, ok := executableIn(l.explicit); ok {
			return path, nil
		}

		return "", fmt.Errorf("%w: configured location '%s' has no ffmpeg executable", ErrFFmpegNotFound, l.explicit)
	}

	if l.lookPath != nil {
		if path, err := l.lookPath(ffmpegBinaryName); err == nil {
			return path, nil
		}
	}

	if l.bundledDir != "" {
		if path, ok := executableIn(l.bundledDir); ok {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: install ffmpeg, add it to PATH or set ffmpeg_location", ErrFFmpegNotFound)
}

// executableIn accepts either a path to the binary or a directory containing it.
func executableIn(location string) (string, bool) {
	stat, err := os.Stat(location)
	if err != nil {
		return "", false
	}

	if !stat.IsDir() {
		return location, true
	}

	candidate := filepath.Join(location, ffmpegExecutableName())

	exists, err := utils.IsFileExist(candidate)
	if err != nil || !exists {
		return "", false
	}

	return candidate, true
}

func ffmpegExecutableName() string {
	if runtime.GOOS == "windows" {
		return ffmpegBinaryName + ".exe"
	}

	return ffmpegBinaryName
}
