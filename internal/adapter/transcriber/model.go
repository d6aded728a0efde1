package transcriber

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clipquiz/internal/config"
	"clipquiz/internal/domain"
)

// ggml model files start with the uint32 0x67676d6c written little-endian.
var ggmlMagic = []byte{0x6c, 0x6d, 0x67, 0x67}

// ErrModelMissing is returned when the model file has not been provisioned.
var ErrModelMissing = errors.New("whisper model file not found")

// Model is the process-wide speech-to-text model. A successful Load is kept
// for the lifetime of the process and never repeated; a failed Load is
// retried on the next call so an operator can provision the file without a
// restart. After loading the model is read-only.
type Model struct {
	name string
	path string

	mu       sync.Mutex
	loaded   bool
	lastErr  error
	loadedAt time.Time
}

// ModelPath resolves the on-disk location of the configured model. A model
// value that already looks like a path is used as is.
func ModelPath(cfg config.TranscriberConfig) string {
	if strings.HasSuffix(cfg.Model, ".bin") || strings.ContainsRune(cfg.Model, filepath.Separator) {
		return cfg.Model
	}
	return filepath.Join(cfg.ModelDir, ModelFileName(cfg.Model))
}

// ModelFileName is the whisper.cpp file name for a model size such as "tiny" or "base.en".
func ModelFileName(name string) string {
	return "ggml-" + name + ".bin"
}

func NewModel(cfg config.TranscriberConfig) *Model {
	return &Model{name: cfg.Model, path: ModelPath(cfg)}
}

// Load verifies the model file once and returns its path.
func (m *Model) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.path, nil
	}
	if err := validateModelFile(m.path); err != nil {
		m.lastErr = err
		return "", err
	}
	m.loaded = true
	m.lastErr = nil
	m.loadedAt = time.Now()
	return m.path, nil
}

func (m *Model) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *Model) Path() string {
	return m.path
}

func (m *Model) Health() domain.ModelHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := domain.ModelHealth{
		Healthy:     m.loaded,
		ModelLoaded: m.loaded,
		Model:       m.name,
		Path:        m.path,
		LoadedAt:    m.loadedAt,
	}
	switch {
	case m.loaded:
	case m.lastErr != nil:
		status.Message = m.lastErr.Error()
	default:
		status.Message = "model not loaded yet"
	}
	return status
}

func validateModelFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrModelMissing, path)
		}
		return fmt.Errorf("open model %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(ggmlMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read model header %s: %w", path, err)
	}
	if !bytes.Equal(header, ggmlMagic) {
		return fmt.Errorf("%s is not a ggml model file", path)
	}
	return nil
}
