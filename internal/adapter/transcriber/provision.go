package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipquiz/internal/config"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// KnownModels lists the whisper.cpp model sizes published upstream.
var KnownModels = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large-v1", "large-v2", "large-v3", "large-v3-turbo",
}

// Provisioner downloads model files into the model directory. Concurrent
// downloads of the same model, even from different processes, are serialized
// with a file lock next to the target.
type Provisioner struct {
	cfg    config.TranscriberConfig
	client *http.Client
	logger *zap.Logger
}

func NewProvisioner(cfg config.TranscriberConfig, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Minute},
		logger: logger,
	}
}

// WithHTTPClient replaces the HTTP client (for testing).
func (p *Provisioner) WithHTTPClient(client *http.Client) {
	p.client = client
}

// IsKnownModel reports whether name is a published model size.
func IsKnownModel(name string) bool {
	for _, m := range KnownModels {
		if m == name {
			return true
		}
	}
	return false
}

// Download fetches the configured model unless a valid copy already exists
// or force is set. It returns the model path.
func (p *Provisioner) Download(ctx context.Context, force bool) (string, error) {
	if !IsKnownModel(p.cfg.Model) {
		return "", fmt.Errorf("unknown model %q (known: %s)", p.cfg.Model, strings.Join(KnownModels, ", "))
	}
	target := ModelPath(p.cfg)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}

	lock := flock.New(target + ".lock")
	locked, err := lock.TryLockContext(ctx, 500*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("acquire model lock: %w", err)
	}
	if !locked {
		return "", errors.New("acquire model lock: not acquired")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("failed to release model lock", zap.Error(err))
		}
	}()

	if !force {
		if err := validateModelFile(target); err == nil {
			p.logger.Info("model already present", zap.String("path", target))
			return target, nil
		}
	}

	url := strings.TrimRight(p.cfg.ModelBaseURL, "/") + "/" + ModelFileName(p.cfg.Model)
	p.logger.Info("downloading model", zap.String("model", p.cfg.Model), zap.String("url", url))

	tmp, err := os.CreateTemp(filepath.Dir(target), ModelFileName(p.cfg.Model)+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := p.fetch(ctx, url, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if err := validateModelFile(tmpPath); err != nil {
		return "", fmt.Errorf("downloaded file is invalid: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("install model: %w", err)
	}

	p.logger.Info("model downloaded", zap.String("path", target), zap.Int64("bytes", written))
	return target, nil
}

func (p *Provisioner) fetch(ctx context.Context, url string, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download model: unexpected status %s", resp.Status)
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download model: %w", err)
	}
	return n, nil
}
