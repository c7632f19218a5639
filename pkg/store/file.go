package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
)

// extensions are tried in order when resolving a map id to a file.
var extensions = []string{".json", ".yaml", ".yml"}

// FileSource reads maps from <dir>/<id>.json, .yaml or .yml.
type FileSource struct {
	dir string
}

// NewFileSource returns a source over dir, which must exist.
func NewFileSource(dir string) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open map directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is not a directory", dir)
	}
	return &FileSource{dir: dir}, nil
}

// Map implements Source.
func (s *FileSource) Map(_ context.Context, id string) (*model.Map, error) {
	if err := errors.ValidateMapID(id); err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		path := filepath.Join(s.dir, id+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "read map %s", id)
		}
		m, err := DecodeMap(data, ext)
		if err != nil {
			return nil, err
		}
		return normalize(m, id), nil
	}
	return nil, notFound(id)
}

// View implements Source.
func (s *FileSource) View(ctx context.Context, mapID, slug string) (*model.ProductView, error) {
	m, err := s.Map(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return viewOf(m, slug)
}

// Close does nothing.
func (s *FileSource) Close() error { return nil }

// LoadMapFile reads a single map file. The id defaults to the file's base
// name.
func LoadMapFile(path string) (*model.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	m, err := DecodeMap(data, ext)
	if err != nil {
		return nil, err
	}
	return normalize(m, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))), nil
}

// DecodeMap parses a map document. ext selects YAML for ".yaml" and ".yml";
// anything else is JSON. A bare {nodes, edges} snapshot decodes as an
// untitled single-view map.
func DecodeMap(data []byte, ext string) (*model.Map, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "decode map: empty document")
	}
	var m model.Map
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode map")
	}
	return &m, nil
}

// SaveMapFile writes m as indented JSON to <dir>/<m.ID>.json.
func SaveMapFile(dir string, m *model.Map) (string, error) {
	if err := errors.ValidateMapID(m.ID); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode map: %w", err)
	}
	path := filepath.Join(dir, m.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	return path, nil
}

var _ Source = (*FileSource)(nil)
