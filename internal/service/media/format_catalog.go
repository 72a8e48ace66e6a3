package media

//go:generate $MOCKGEN -source=format_catalog.go -destination=mock_format_catalog_test.go -package=media

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/tube-grabber/internal/client/ytdlp"
	"github.com/oshokin/tube-grabber/internal/utils"
)

// FormatCatalog turns extracted video information into selectable formats.
type FormatCatalog interface {
	// Fetch extracts metadata for url.
	Fetch(ctx context.Context, url string) (*Metadata, error)
}

// FormatCatalogImpl implements FormatCatalog over a yt-dlp client.
type FormatCatalogImpl struct {
	// client extracts raw video information.
	client ytdlp.Client
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
)

// formatKey identifies a quality bucket during de-duplication.
type formatKey struct {
	kind    FormatKind
	quality int
}

// NewFormatCatalog creates and returns a new instance of FormatCatalogImpl.
func NewFormatCatalog(client ytdlp.Client) FormatCatalog {
	return &FormatCatalogImpl{client: client}
}

// Fetch extracts metadata for url.
func (fc *FormatCatalogImpl) Fetch(ctx context.Context, url string) (*Metadata, error) {
	info, err := fc.client.FetchInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	return BuildMetadata(info), nil
}

// BuildMetadata converts raw video information.
func BuildMetadata(info *ytdlp.VideoInfo) *Metadata {
	duration := utils.SafeFloat64ToInt64(math.Round(info.Duration))

	return &Metadata{
		ID:           info.ID,
		Title:        info.Title,
		Uploader:     info.Uploader,
		Duration:     duration,
		DurationText: FormatDuration(time.Duration(duration) * time.Second),
		ThumbnailURL: SelectThumbnail(info),
		Formats:      BuildFormats(info.Formats),
	}
}

// BuildFormats keeps the best stream per (kind, quality) pair and sorts them best first, video before audio.
// Streams carrying neither video nor audio are dropped.
func BuildFormats(raw []ytdlp.Format) []FormatDescriptor {
	best := make(map[formatKey]FormatDescriptor, len(raw))

	for i := range raw {
		descriptor, ok := newFormatDescriptor(&raw[i])
		if !ok {
			continue
		}

		key := formatKey{kind: descriptor.Kind, quality: descriptor.qualityValue()}

		current, exists := best[key]
		if !exists || isBetterFormat(&descriptor, &current) {
			best[key] = descriptor
		}
	}

	result := make([]FormatDescriptor, 0, len(best))
	for _, descriptor := range best {
		result = append(result, descriptor)
	}

	slices.SortFunc(result, func(a, b FormatDescriptor) int {
		if a.Kind != b.Kind {
			if a.IsVideo() {
				return -1
			}

			return 1
		}

		if c := cmp.Compare(b.qualityValue(), a.qualityValue()); c != 0 {
			return c
		}

		return cmp.Compare(a.FormatID, b.FormatID)
	})

	return result
}

func newFormatDescriptor(f *ytdlp.Format) (FormatDescriptor, bool) {
	hasVideo, hasAudio := f.HasVideo(), f.HasAudio()
	if !hasVideo && !hasAudio {
		return FormatDescriptor{}, false
	}

	size := utils.SafeFloat64ToInt64(f.Filesize)
	if size <= 0 {
		size = utils.SafeFloat64ToInt64(f.FilesizeApprox)
	}

	descriptor := FormatDescriptor{
		FormatID: f.FormatID,
		Ext:      f.Ext,
		Filesize: size,
		HasAudio: hasAudio,
		TBR:      f.TBR,
	}

	if size > 0 {
		descriptor.SizeText = humanize.Bytes(uint64(size)) //nolint:gosec // Checked to be positive.
	}

	if hasAudio {
		descriptor.ACodec = f.ACodec
	}

	if hasVideo {
		descriptor.Kind = FormatKindVideo
		descriptor.VCodec = f.VCodec
		descriptor.Height = int(utils.SafeFloat64ToInt64(f.Height))
		descriptor.FPS = int(utils.SafeFloat64ToInt64(math.Round(f.FPS)))
	} else {
		descriptor.Kind = FormatKindAudio
		descriptor.ABR = int(utils.SafeFloat64ToInt64(math.Round(f.ABR)))
	}

	return descriptor, true
}

// isBetterFormat prefers a known size, then a muxed stream for video, then a higher total bitrate.
func isBetterFormat(candidate, current *FormatDescriptor) bool {
	if (candidate.Filesize > 0) != (current.Filesize > 0) {
		return candidate.Filesize > 0
	}

	if candidate.IsVideo() && candidate.HasAudio != current.HasAudio {
		return candidate.HasAudio
	}

	return candidate.TBR > current.TBR
}

// SelectThumbnail prefers the largest square thumbnail, then the default one.
func SelectThumbnail(info *ytdlp.VideoInfo) string {
	var (
		bestURL  string
		bestSize int
	)

	for _, thumb := range info.Thumbnails {
		if thumb.URL == "" || thumb.Width <= 0 || thumb.Width != thumb.Height {
			continue
		}

		if thumb.Width > bestSize {
			bestURL, bestSize = thumb.URL, thumb.Width
		}
	}

	if bestURL != "" {
		return bestURL
	}

	if info.Thumbnail != "" {
		return info.Thumbnail
	}

	// yt-dlp lists thumbnails from worst to best.
	for i := len(info.Thumbnails) - 1; i >= 0; i-- {
		if info.Thumbnails[i].URL != "" {
			return info.Thumbnails[i].URL
		}
	}

	return ""
}

// FormatDuration renders d as HH:MM:SS, or MM:SS below one hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)
	hours := total / secondsPerHour
	minutes := total % secondsPerHour / secondsPerMinute
	seconds := total % secondsPerMinute

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}

	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
