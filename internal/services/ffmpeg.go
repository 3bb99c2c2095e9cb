// ffmpeg transcoding and ffprobe duration probing
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/ytmd/internal/shared"
)

// FFmpeg constants for MP3 output
const (
	AudioCodec     = "libmp3lame"
	AudioBitrate   = "320k"
	AudioContainer = "mp3"

	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFmpegLogLevel      = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"

	partialSuffix = ".part"
)

// FFmpegService implements [Transcoder] and [DurationProber] by shelling out to ffmpeg and ffprobe.
type FFmpegService struct {
	ffmpeg  string
	ffprobe string
	bitrate string
	minSize int64
}

// NewFFmpegService creates a transcoder. Empty arguments fall back to the package defaults.
func NewFFmpegService(ffmpeg, ffprobe, bitrate string, minSize int64) *FFmpegService {
	if ffmpeg == "" {
		ffmpeg = FFmpegCommand
	}
	if ffprobe == "" {
		ffprobe = FFprobeCommand
	}
	if bitrate == "" {
		bitrate = AudioBitrate
	}
	if minSize <= 0 {
		minSize = shared.MinViableSize
	}
	return &FFmpegService{ffmpeg: ffmpeg, ffprobe: ffprobe, bitrate: bitrate, minSize: minSize}
}

// BuildFFmpegArgs returns the arguments that convert src to constant bitrate MP3 at dst.
func BuildFFmpegArgs(src, dst, bitrate string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", FFmpegLogLevel,
		"-y",
		"-i", src,
		"-vn",
		"-codec:a", AudioCodec,
		"-b:a", bitrate,
		"-f", AudioContainer,
		dst,
	}
}

// Transcode converts src into dst. Output is written to a uniquely named file beside dst and
// renamed into place once it passes the minimum size check, so dst never holds a partial file.
func (f *FFmpegService) Transcode(ctx context.Context, src, dst string) error {
	bin, err := exec.LookPath(f.ffmpeg)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrTranscoderMissing, f.ffmpeg)
	}

	tmp, err := partialPath(dst)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTranscodeFailed, err)
	}
	defer os.Remove(tmp)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, BuildFFmpegArgs(src, tmp, f.bitrate)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", shared.ErrInterrupted, ctx.Err())
		}
		return fmt.Errorf("%w: %w: %s", shared.ErrTranscodeFailed, err, lastLine(stderr.String()))
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("%w: output missing: %w", shared.ErrTranscodeFailed, err)
	}
	if info.Size() < f.minSize {
		return fmt.Errorf("%w: %w: %d bytes", shared.ErrTranscodeFailed, shared.ErrUndersized, info.Size())
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTranscodeFailed, err)
	}
	return nil
}

// partialPath reserves an empty hidden file next to dst for one transcode attempt.
func partialPath(dst string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*"+partialSuffix)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// Duration returns the container duration of path in seconds.
func (f *FFmpegService) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe, "-v", FFmpegLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, path)
	output, err := cmd.Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return 0, fmt.Errorf("ffprobe unavailable: %w", err)
		}
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
