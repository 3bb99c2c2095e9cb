// Package services defines the external collaborators of the acquisition pipeline and implements them.
//
// # Collaborators
//
// The pipeline in package tasks only depends on the interfaces declared in services.go:
//   - [MediaSource] : probe a reference and fetch its best audio stream
//   - [Transcoder] : convert the fetched file to constant bitrate MP3
//   - [DurationProber] : read the duration of a local file
//   - [Tagger] : write ID3v2.4 frames
//   - [ArtworkFinder] and [LyricsFinder] : metadata lookups
//   - [Downloader] : raw cover image bytes
//
// # Implementations
//
// [YtDlpService] drives the yt-dlp binary through go-ytdlp. Probe runs a flat extraction and
// decodes the single JSON document with [ParseProbe]; Fetch writes into a caller-owned directory
// and picks the media file with [LocateDownload].
//
// [FFmpegService] shells out to ffmpeg and ffprobe. Output is written to a ".part" file and
// renamed into place, so a failed transcode never leaves a truncated MP3 behind.
//
// [ID3Tagger] uses bogem/id3v2.
//
// [ArtworkService] (iTunes Search) and [LyricsService] (LRCLib) share [APIService], a small
// rate-limited HTTP client. Both consult an optional [LookupCache]; an empty cached value is a
// remembered miss.
//
// # Error Handling
//
// Services wrap sentinel errors from the shared package:
//   - [shared.ErrProbeFailed] : the reference could not be inspected
//   - [shared.ErrAcquireFailed] : yt-dlp failed or produced no usable file
//   - [shared.ErrTranscodeFailed], [shared.ErrTranscoderMissing] : ffmpeg failures
//   - [shared.ErrUndersized] : output below the minimum viable size
//   - [shared.ErrLookupMiss], [shared.ErrRateLimited], [shared.ErrAPIRequest] : HTTP lookups
//   - [shared.ErrTagFailed] : ID3 write failures
//   - [shared.ErrInterrupted] : the context was cancelled mid-operation
package services
