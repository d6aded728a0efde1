package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipquiz/internal/config"
	"clipquiz/internal/domain"
	"clipquiz/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	normalizedFile = "audio.wav"
	sourcePrefix   = "source"
)

// stderr fragments yt-dlp prints for videos that do not exist or cannot be viewed
var notFoundMarkers = []string{
	"video unavailable",
	"private video",
	"this video has been removed",
	"this video is not available",
	"http error 404",
	"does not exist",
}

// YtDlpFetcher downloads the best audio track with yt-dlp and normalizes it
// to 16kHz mono PCM with ffmpeg.
type YtDlpFetcher struct {
	cfg    config.MediaConfig
	logger *zap.Logger
	runner util.CommandRunner
}

// NewYtDlpFetcher creates a fetcher. Binaries fall back to their PATH names.
func NewYtDlpFetcher(cfg config.MediaConfig, logger *zap.Logger) *YtDlpFetcher {
	if cfg.YtDlpBinary == "" {
		cfg.YtDlpBinary = "yt-dlp"
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.FFprobeBinary == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "clipquiz")
	}
	return &YtDlpFetcher{cfg: cfg, logger: logger, runner: util.ExecRunner}
}

// WithCommandRunner sets a custom command runner (for testing).
func (f *YtDlpFetcher) WithCommandRunner(runner util.CommandRunner) {
	f.runner = runner
}

func (f *YtDlpFetcher) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.runner(ctx, name, args...)
}

// Fetch implements domain.MediaFetcher. On error nothing is left on disk; on
// success the caller owns the returned asset and must Release it.
func (f *YtDlpFetcher) Fetch(ctx context.Context, rawURL string) (asset *domain.MediaAsset, err error) {
	src, err := ParseSource(rawURL)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.cfg.ScratchDir, 0o755); err != nil {
		return nil, domain.NewInternalError("failed to prepare scratch directory", err)
	}
	dir, err := os.MkdirTemp(f.cfg.ScratchDir, "fetch-"+uuid.NewString()+"-")
	if err != nil {
		return nil, domain.NewInternalError("failed to create scratch directory", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				f.logger.Warn("failed to remove scratch directory", zap.String("dir", dir), zap.Error(rmErr))
			}
		}
	}()

	downloaded, err := f.download(ctx, src, dir)
	if err != nil {
		return nil, err
	}

	probe, err := f.probe(ctx, downloaded)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewDownloadFailedError(ctx.Err())
		}
		return nil, domain.NewUnsupportedContentError("downloaded media could not be inspected").WithContext("reason", err.Error())
	}
	if probe.AudioStreamCount() == 0 {
		return nil, domain.NewUnsupportedContentError("media has no audio track")
	}

	duration := probe.Duration()
	if f.cfg.MaxDuration > 0 && duration > f.cfg.MaxDuration {
		if f.cfg.EnforceMaxDuration {
			return nil, domain.NewUnsupportedContentError(
				fmt.Sprintf("media is %s long, the limit is %s", duration.Round(time.Second), f.cfg.MaxDuration),
			).WithContext("duration_seconds", duration.Seconds())
		}
		f.logger.Warn("media exceeds recommended duration",
			zap.String("video_id", src.VideoID),
			zap.Duration("duration", duration),
			zap.Duration("limit", f.cfg.MaxDuration))
	}

	normalized := filepath.Join(dir, normalizedFile)
	if err := f.normalize(ctx, downloaded, normalized); err != nil {
		return nil, err
	}

	f.logger.Debug("media fetched",
		zap.String("video_id", src.VideoID),
		zap.String("path", normalized),
		zap.Duration("duration", duration),
		zap.String("source_format", probe.FormatName()))

	return &domain.MediaAsset{
		Path:     normalized,
		Duration: duration,
		Format:   "wav",
		Dir:      dir,
	}, nil
}

func (f *YtDlpFetcher) download(ctx context.Context, src Source, dir string) (string, error) {
	args := []string{
		"--format", "bestaudio/best",
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--quiet",
		"--socket-timeout", "30",
		"--output", filepath.Join(dir, sourcePrefix+".%(ext)s"),
		"--", src.Canonical,
	}
	if _, err := f.run(ctx, f.cfg.YtDlpBinary, args...); err != nil {
		return "", classifyDownloadError(ctx, src, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, sourcePrefix+".*"))
	if err != nil || len(matches) == 0 {
		return "", domain.NewDownloadFailedError(errors.New("yt-dlp produced no output file"))
	}
	return matches[0], nil
}

func (f *YtDlpFetcher) normalize(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if _, err := f.run(ctx, f.cfg.FFmpegBinary, args...); err != nil {
		if ctx.Err() != nil {
			return domain.NewDownloadFailedError(ctx.Err())
		}
		return domain.NewUnsupportedContentError("audio could not be decoded").WithContext("reason", err.Error())
	}
	return nil
}

func classifyDownloadError(ctx context.Context, src Source, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.NewDownloadFailedError(ctxErr)
	}

	stderr := err.Error()
	var cmdErr *util.CommandError
	if errors.As(err, &cmdErr) {
		stderr = cmdErr.Stderr
	}
	lower := strings.ToLower(stderr)

	if strings.Contains(lower, "unsupported url") || strings.Contains(lower, "is not a valid url") {
		return domain.NewInvalidSourceError(src.Canonical, err)
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return domain.NewNotFoundError(fmt.Sprintf("video %s is unavailable", src.VideoID)).
				WithContext("reason", lastLine(stderr))
		}
	}
	if strings.Contains(lower, "requested format is not available") {
		return domain.NewUnsupportedContentError("no downloadable audio format")
	}
	return domain.NewDownloadFailedError(err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
