package utils

import (
	"math"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// ImageJPEGMimeType is the MIME type for JPEG images.
	ImageJPEGMimeType = "image/jpeg"

	// ImagePNGMimeType is the MIME type for PNG images.
	ImagePNGMimeType = "image/png"

	// ImageWebPMimeType is the MIME type for WebP images.
	ImageWebPMimeType = "image/webp"
)

var (
	// invalidCharsPattern includes ASCII control characters (0-31) and Windows-restricted characters: < > : " / \ | ? *.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\x7F]`)

	// repeatedUnderscoresPattern matches runs of underscores left after replacement.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	repeatedUnderscoresPattern = regexp.MustCompile(`_{2,}`)

	// textContentTypePatterns is a slice of regular expressions that match content types
	// considered to be text-based. This includes "text/*", "application/json", and
	// "application/samlmetadata+xml".
	//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
	textContentTypePatterns = []*regexp.Regexp{
		regexp.MustCompile("^text/.+"),
		regexp.MustCompile("^application/json$"),
		regexp.MustCompile(`^application/samlmetadata\+xml`),
	}

	// windowsReservedNames is a map of filenames that are reserved on Windows systems.
	// These names are case-insensitive and cannot be used as filenames or folder names.
	//nolint:gochecknoglobals // This is an immutable map used as a constant for validation purposes.
	windowsReservedNames = map[string]struct{}{
		"CON":  {},
		"PRN":  {},
		"AUX":  {},
		"NUL":  {},
		"COM1": {},
		"COM2": {},
		"COM3": {},
		"COM4": {},
		"COM5": {},
		"COM6": {},
		"COM7": {},
		"COM8": {},
		"COM9": {},
		"LPT1": {},
		"LPT2": {},
		"LPT3": {},
		"LPT4": {},
		"LPT5": {},
		"LPT6": {},
		"LPT7": {},
		"LPT8": {},
		"LPT9": {},
	}
)

// SafeFloat64ToInt64 converts a float64 to int64, clamping negative,
// NaN and out-of-range values.
func SafeFloat64ToInt64(val float64) int64 {
	switch {
	case math.IsNaN(val), val <= 0:
		return 0
	case val >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(val)
	}
}

// SanitizeFilename turns an arbitrary title into a single path segment that is valid
// on both Windows and Unix-like systems.
// Reserved characters become underscores, runs of underscores are collapsed,
// leading and trailing spaces and dots are removed and Windows reserved names are prefixed.
// It returns an empty string when nothing usable remains.
func SanitizeFilename(name string) string {
	if name == "" {
		return ""
	}

	result := invalidCharsPattern.ReplaceAllString(name, "_")
	result = repeatedUnderscoresPattern.ReplaceAllString(result, "_")
	result = strings.Trim(result, " .")

	if strings.Trim(result, "_") == "" {
		return ""
	}

	// Extract base filename (without extension) for comparison.
	baseName := result
	if dotIndex := strings.LastIndex(result, "."); dotIndex != -1 {
		baseName = result[:dotIndex]
	}

	if _, ok := windowsReservedNames[strings.ToUpper(baseName)]; ok {
		result = "_" + result
	}

	return result
}

// TruncateRunes shortens s to at most maxRunes runes without splitting a multi-byte character.
// Trailing spaces and dots exposed by the cut are removed.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)

	return strings.TrimRight(string(runes[:maxRunes]), " .")
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// FileSize returns the size of a regular file, or -1 when it does not exist.
func FileSize(path string) (int64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}

		return -1, err
	}

	if stat.IsDir() {
		return -1, nil
	}

	return stat.Size(), nil
}

// IsPathWithin reports whether target resolves to base itself or a path below it.
func IsPathWithin(base, target string) bool {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ExtractNamedGroup extracts the value of a named capturing group from a regex match.
// It returns an empty string if the group is not found or if there is no match.
func ExtractNamedGroup(re *regexp.Regexp, groupName, input string) string {
	match := re.FindStringSubmatch(input)
	if match == nil {
		return ""
	}

	for i, name := range re.SubexpNames() {
		if name == groupName {
			return match[i]
		}
	}

	return ""
}

// IsTextContentType checks if the given content type represents a text-based format.
// It supports common text content types like "text/*", "application/json", and "application/samlmetadata+xml".
// It also checks that the charset, if present, is either "utf-8" or "us-ascii".
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}
