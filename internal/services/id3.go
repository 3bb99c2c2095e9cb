// ID3v2.4 tag writer
package services

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2/v2"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

const (
	frameTrack       = "Track number/Position in set"
	framePicture     = "Attached picture"
	frameLyrics      = "Unsynchronised lyrics/text transcription"
	lyricsLang       = "eng"
	coverDesc        = "Cover"
	lyricsDesc       = "Lyrics"
	defaultCoverMIME = "image/jpeg"
)

// ID3Tagger implements [Tagger] with ID3v2.4 frames.
type ID3Tagger struct{}

// NewID3Tagger creates a tag writer.
func NewID3Tagger() *ID3Tagger {
	return &ID3Tagger{}
}

// WriteTags writes TIT2, TPE1, TALB and TRCK ("n/total") when opts.Meta is set, APIC when a
// cover is present and opts.Cover is set, and USLT when plain lyrics are present and opts.Lyrics
// is set. Existing frames of the same kind are replaced.
func (ID3Tagger) WriteTags(path string, track models.EnrichedTrack, opts TagOptions) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", shared.ErrTagFailed, path, err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if opts.Meta {
		tag.SetTitle(track.Title)
		tag.SetArtist(track.Artist)
		tag.SetAlbum(track.Album)
		if track.Ordinal > 0 {
			tag.AddTextFrame(tag.CommonID(frameTrack), tag.DefaultEncoding(), TrackNumber(track.Ordinal, track.Total))
		}
	}

	if opts.Cover && len(track.Cover) > 0 {
		mime := track.CoverMIME
		if mime == "" {
			mime = defaultCoverMIME
		}
		tag.DeleteFrames(tag.CommonID(framePicture))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: coverDesc,
			Picture:     track.Cover,
		})
	}

	if opts.Lyrics && track.PlainLyrics != "" {
		tag.DeleteFrames(tag.CommonID(frameLyrics))
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          lyricsLang,
			ContentDescriptor: lyricsDesc,
			Lyrics:            track.PlainLyrics,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %w", shared.ErrTagFailed, path, err)
	}
	return nil
}

// TrackNumber formats a TRCK value.
func TrackNumber(ordinal, total int) string {
	if total <= 0 {
		return strconv.Itoa(ordinal)
	}
	return strconv.Itoa(ordinal) + "/" + strconv.Itoa(total)
}
