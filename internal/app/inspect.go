package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/service/media"
)

const (
	tableMinWidth = 0
	tableTabWidth = 4
	tablePadding  = 2
)

// ExecuteInspectCommand prints the metadata and selectable formats of url.
func ExecuteInspectCommand(ctx context.Context, cfg *config.Config, url string) {
	c, err := newComponents(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize application: %v", err)
	}

	metadata, err := c.coordinator.Inspect(ctx, url)
	if err != nil {
		logger.Fatalf(ctx, "Failed to inspect '%s': %v", url, err)
	}

	if err = renderMetadata(os.Stdout, metadata); err != nil {
		logger.Errorf(ctx, "Failed to print formats: %v", err)
	}
}

// renderMetadata writes the title line and a format table to w.
func renderMetadata(w io.Writer, metadata *media.Metadata) error {
	header := metadata.Title
	if metadata.Uploader != "" {
		header += " by " + metadata.Uploader
	}

	if metadata.DurationText != "" {
		header += " [" + metadata.DurationText + "]"
	}

	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, tableMinWidth, tableTabWidth, tablePadding, ' ', 0)

	if _, err := fmt.Fprintln(tw, "FORMAT\tKIND\tQUALITY\tBUCKET\tEXT\tCODECS\tSIZE"); err != nil {
		return err
	}

	for i := range metadata.Formats {
		f := &metadata.Formats[i]

		size := f.SizeText
		if size == "" {
			size = "-"
		}

		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.FormatID,
			f.Kind,
			f.QualityLabel(),
			f.QualityBucket(),
			f.Ext,
			codecs(f),
			size)
		if err != nil {
			return err
		}
	}

	return tw.Flush()
}

func codecs(f *media.FormatDescriptor) string {
	switch {
	case f.IsVideo() && f.HasAudio:
		return f.VCodec + "+" + f.ACodec
	case f.IsVideo():
		return f.VCodec
	default:
		return f.ACodec
	}
}
