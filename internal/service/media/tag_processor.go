package media

//go:generate $MOCKGEN -source=tag_processor.go -destination=mock_tag_processor_test.go -package=media

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"

	"github.com/oshokin/tube-grabber/internal/constants"
	"github.com/oshokin/tube-grabber/internal/logger"
)

// TagProcessor writes metadata and cover art into audio files.
type TagProcessor interface {
	WriteTags(ctx context.Context, req *WriteTagsRequest) error
}

// WriteTagsRequest contains parameters for writing metadata to audio files.
type WriteTagsRequest struct {
	// TrackPath is the file path of the audio file. Its extension selects the tag format.
	TrackPath string
	// Title is the video title.
	Title string
	// Artist is the uploader.
	Artist string
	// SourceURL is stored as a comment.
	SourceURL string
	// Cover is the image to embed, nil for none.
	Cover *CoverImage
}

// CoverImage contains image data and its MIME type.
type CoverImage struct {
	// Data contains the raw image bytes.
	Data []byte
	// MimeType specifies the image format (e.g., "image/jpeg").
	MimeType string
}

// TagProcessorImpl provides the default implementation of TagProcessor.
type TagProcessorImpl struct{}

// extractFLACCommentResult contains the result of extracting FLAC comment metadata.
type extractFLACCommentResult struct {
	// Comment is the FLAC Vorbis comment metadata block.
	Comment *flacvorbis.MetaDataBlockVorbisComment
	// Index is the index of the comment block in the FLAC file metadata (-1 if not found).
	Index int
}

// NewTagProcessor creates a new TagProcessor instance.
func NewTagProcessor() TagProcessor {
	return new(TagProcessorImpl)
}

// WriteTags writes metadata to the audio file. Files other than MP3 and FLAC are left untouched.
func (tp *TagProcessorImpl) WriteTags(ctx context.Context, req *WriteTagsRequest) error {
	if req == nil || req.TrackPath == "" {
		return ErrEmptyTrackPath
	}

	switch strings.ToLower(filepath.Ext(req.TrackPath)) {
	case constants.ExtensionFLAC:
		return tp.writeFLACTags(ctx, req)
	case constants.ExtensionMP3:
		return tp.writeMP3Tags(req)
	default:
		logger.Debugf(ctx, "Skipping tags for unsupported file '%s'", req.TrackPath)

		return nil
	}
}

func (tp *TagProcessorImpl) writeFLACTags(ctx context.Context, req *WriteTagsRequest) error {
	// Parse the FLAC file.
	f, err := flac.ParseFile(filepath.Clean(req.TrackPath))
	if err != nil {
		return err
	}

	commentResult := tp.extractFLACComment(f)

	tag := commentResult.Comment
	if tag == nil {
		tag = flacvorbis.New()
	}

	if err = tp.addFLACTags(tag, req); err != nil {
		return err
	}

	tagMeta := tag.Marshal()
	if commentResult.Index >= 0 {
		f.Meta[commentResult.Index] = &tagMeta
	} else {
		f.Meta = append(f.Meta, &tagMeta)
	}

	tp.embedFLACCover(ctx, f, req.Cover)

	return f.Save(req.TrackPath)
}

func (tp *TagProcessorImpl) extractFLACComment(f *flac.File) *extractFLACCommentResult {
	for idx, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err == nil {
			return &extractFLACCommentResult{
				Comment: comment,
				Index:   idx,
			}
		}
	}

	return &extractFLACCommentResult{
		Comment: nil,
		Index:   -1,
	}
}

func (tp *TagProcessorImpl) addFLACTags(tag *flacvorbis.MetaDataBlockVorbisComment, req *WriteTagsRequest) error {
	flacTags := []struct {
		key   string
		value string
	}{
		{"TITLE", req.Title},
		{"ARTIST", req.Artist},
		{"COMMENT", req.SourceURL},
	}

	for _, t := range flacTags {
		if t.value == "" {
			continue
		}

		if err := tag.Add(t.key, t.value); err != nil {
			return err
		}
	}

	return nil
}

func (tp *TagProcessorImpl) embedFLACCover(ctx context.Context, f *flac.File, image *CoverImage) {
	if image == nil {
		return
	}

	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", image.Data, image.MimeType)
	if err != nil {
		logger.Errorf(ctx, "Failed to embed image to FLAC: %v", err)

		return
	}

	pictureMeta := picture.Marshal()
	f.Meta = append(f.Meta, &pictureMeta)
}

func (tp *TagProcessorImpl) writeMP3Tags(req *WriteTagsRequest) error {
	//nolint:exhaustruct // ParseFrames intentionally omitted when Parse=false (parsing disabled).
	tag, err := id3v2.Open(req.TrackPath, id3v2.Options{Parse: false})
	if err != nil {
		return err
	}

	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(req.Title)
	tag.SetArtist(req.Artist)

	if req.SourceURL != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    id3v2.EnglishISO6392Code,
			Description: "Source",
			Text:        req.SourceURL,
		})
	}

	if req.Cover != nil {
		//nolint:exhaustruct // Description field intentionally empty for cover images.
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    req.Cover.MimeType,
			PictureType: id3v2.PTFrontCover,
			Picture:     req.Cover.Data,
		})
	}

	return tag.Save()
}
