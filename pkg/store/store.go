// Package store loads persisted documentation maps.
//
// A [Source] returns whole maps and single product views by id. Three
// backends are provided and picked by [Open] from the DSN:
//   - a directory of .json/.yaml files ([FileSource])
//   - PostgreSQL via pgx ([PostgresSource]), DSN postgres:// or postgresql://
//   - MongoDB ([MongoSource]), DSN mongodb:// or mongodb+srv://
//
// Lookups of unknown maps or views return errors with the
// ErrCodeMapNotFound and ErrCodeViewNotFound codes from pkg/errors.
package store

import (
	"context"
	"strings"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
)

// Source is a read-only map repository.
type Source interface {
	// Map returns the map with the given id, views sorted by order_index.
	Map(ctx context.Context, id string) (*model.Map, error)
	// View returns one view of a multi-view map.
	View(ctx context.Context, mapID, slug string) (*model.ProductView, error)
	Close() error
}

// Open returns the Source for dsn. Anything that is not a postgres or
// mongodb URL is treated as a directory path.
func Open(ctx context.Context, dsn string) (Source, error) {
	var (
		src Source
		err error
	)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		src, err = asSource(NewPostgresSource(ctx, dsn))
	case IsMongoDSN(dsn):
		src, err = asSource(NewMongoSource(ctx, dsn, ""))
	case dsn == "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "no map store configured")
	default:
		src, err = asSource(NewFileSource(dsn))
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// asSource drops the typed nil a failed constructor returns.
func asSource[S Source](s S, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// IsMongoDSN reports whether dsn is a MongoDB connection string.
func IsMongoDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://")
}

// viewOf resolves slug within m.
func viewOf(m *model.Map, slug string) (*model.ProductView, error) {
	if err := errors.ValidateSlug(slug); err != nil {
		return nil, err
	}
	v, ok := m.View(slug)
	if !ok {
		return nil, errors.New(errors.ErrCodeViewNotFound, "map %s has no view %q", m.ID, slug)
	}
	return v, nil
}

// normalize sorts views by order_index, then slug, and fills the map id
// when the stored document omitted it.
func normalize(m *model.Map, id string) *model.Map {
	if m.ID == "" {
		m.ID = id
	}
	model.SortViews(m.Views)
	if m.ViewType == "" {
		m.ViewType = model.ViewSingle
		if len(m.Views) > 0 {
			m.ViewType = model.ViewMulti
		}
	}
	return m
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeMapNotFound, "map %s not found", id)
}
