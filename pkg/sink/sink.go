// Package sink delivers finished documents, the "download as file" step of
// an export.
//
// [FileSink] writes into a local directory; [S3Sink] uploads to a bucket.
// Both refuse filenames that are not plain base names.
package sink

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/docmap/pkg/errors"
)

// Sink stores a named document and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, filename string, content []byte) (string, error)
}

// ContentType returns the media type for a filename's extension.
func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".svg":
		return "image/svg+xml"
	case ".dot":
		return "text/vnd.graphviz"
	case ".json":
		return "application/json"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// FileSink writes documents into a directory, creating it on first use.
type FileSink struct {
	dir string
}

// NewFileSink returns a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Save writes content to <dir>/<filename>, replacing any existing file.
func (s *FileSink) Save(_ context.Context, filename string, content []byte) (string, error) {
	if err := errors.ValidateFilename(filename); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "create %s", s.dir)
	}
	path := filepath.Join(s.dir, filename)
	tmp, err := os.CreateTemp(s.dir, "."+filename+".*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	return path, nil
}

var _ Sink = (*FileSink)(nil)
