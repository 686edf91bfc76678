// Package loader provides document loading adapters.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

// DefaultExtensions are the corpus file types read when none are configured.
var DefaultExtensions = []string{".txt", ".md"}

// TextLoader loads UTF-8 text documents.
type TextLoader struct {
	extensions []string
}

// NewTextLoader creates a loader for the given extensions (DefaultExtensions when empty).
func NewTextLoader(extensions ...string) *TextLoader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &TextLoader{extensions: extensions}
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: not valid UTF-8", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &entities.Document{
		ID:        generateDocID(path),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   string(content),
		CreatedAt: info.ModTime(),
		UpdatedAt: time.Now(),
	}, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return l.extensions
}

// DirectorySource implements ports.DocumentSource over a fixed list of
// directories. Enumeration order is directory order, then filename order,
// so the corpus fingerprint is stable across runs.
type DirectorySource struct {
	dirs   []string
	loader *TextLoader
	logger *slog.Logger
}

// NewDirectorySource creates a source reading the files loader supports from dirs.
func NewDirectorySource(dirs []string, loader *TextLoader, logger *slog.Logger) *DirectorySource {
	if loader == nil {
		loader = NewTextLoader()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectorySource{dirs: dirs, loader: loader, logger: logger}
}

// Dirs returns the configured corpus directories.
func (s *DirectorySource) Dirs() []string {
	return s.dirs
}

// Documents loads every matching regular file. Missing directories are skipped.
// Subdirectories are not descended into.
func (s *DirectorySource) Documents(ctx context.Context) ([]entities.Document, error) {
	var docs []entities.Document
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("corpus directory missing, skipping", "dir", dir)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}

		// os.ReadDir sorts by filename.
		for _, entry := range entries {
			if !entry.Type().IsRegular() || !s.supported(entry.Name()) {
				continue
			}
			doc, err := s.loader.Load(ctx, filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", entry.Name(), err)
			}
			docs = append(docs, *doc)
		}
	}
	s.logger.Debug("corpus enumerated", "documents", len(docs))
	return docs, nil
}

func (s *DirectorySource) supported(name string) bool {
	return slices.Contains(s.loader.SupportedExtensions(), strings.ToLower(filepath.Ext(name)))
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
