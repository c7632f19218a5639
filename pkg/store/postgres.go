package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	derrors "github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS docmap_maps (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	view_type  TEXT NOT NULL DEFAULT 'single',
	nodes      JSONB NOT NULL DEFAULT '[]',
	edges      JSONB NOT NULL DEFAULT '[]',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS docmap_product_views (
	id          TEXT PRIMARY KEY,
	map_id      TEXT NOT NULL REFERENCES docmap_maps(id) ON DELETE CASCADE,
	slug        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	order_index INTEGER NOT NULL DEFAULT 0,
	nodes       JSONB NOT NULL DEFAULT '[]',
	edges       JSONB NOT NULL DEFAULT '[]',
	UNIQUE (map_id, slug)
);`

// PostgresSource reads maps from the docmap_maps and docmap_product_views
// tables. Nodes and edges are stored as JSONB in their wire form.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to databaseURL and creates the tables when
// they are missing.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeInvalidInput, err, "parse database URL")
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "create connection pool")
	}
	if err := ping(ctx, pool.Ping); err != nil {
		pool.Close()
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "database unreachable")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "migrate schema")
	}
	return &PostgresSource{pool: pool}, nil
}

// Map implements Source.
func (s *PostgresSource) Map(ctx context.Context, id string) (*model.Map, error) {
	if err := derrors.ValidateMapID(id); err != nil {
		return nil, err
	}
	m := &model.Map{ID: id}
	var viewType string
	var nodes, edges []byte
	err := s.pool.QueryRow(ctx,
		`SELECT title, view_type, nodes, edges FROM docmap_maps WHERE id = $1`, id,
	).Scan(&m.Title, &viewType, &nodes, &edges)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "load map %s", id)
	}
	m.ViewType = model.ViewType(viewType)
	if err := decodeGraph(nodes, edges, &m.Nodes, &m.Edges); err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "decode map %s", id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, slug, title, order_index, nodes, edges
		   FROM docmap_product_views WHERE map_id = $1 ORDER BY order_index, slug`, id)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "load views of %s", id)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "decode view of %s", id)
		}
		m.Views = append(m.Views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "load views of %s", id)
	}
	return normalize(m, id), nil
}

// View implements Source.
func (s *PostgresSource) View(ctx context.Context, mapID, slug string) (*model.ProductView, error) {
	if err := derrors.ValidateMapID(mapID); err != nil {
		return nil, err
	}
	if err := derrors.ValidateSlug(slug); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`SELECT id, slug, title, order_index, nodes, edges
		   FROM docmap_product_views WHERE map_id = $1 AND slug = $2`, mapID, slug)
	v, err := scanView(row)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM docmap_maps WHERE id = $1)`, mapID).Scan(&exists); err != nil {
			return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "load map %s", mapID)
		}
		if !exists {
			return nil, notFound(mapID)
		}
		return nil, derrors.New(derrors.ErrCodeViewNotFound, "map %s has no view %q", mapID, slug)
	}
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrCodeStorage, err, "load view %s/%s", mapID, slug)
	}
	return &v, nil
}

// Put inserts or replaces m and all of its views in one transaction.
func (s *PostgresSource) Put(ctx context.Context, m *model.Map) error {
	if err := derrors.ValidateMapID(m.ID); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		nodes, edges, err := encodeGraph(m.Nodes, m.Edges)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO docmap_maps (id, title, view_type, nodes, edges, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (id) DO UPDATE SET title = $2, view_type = $3, nodes = $4, edges = $5, updated_at = now()`,
			m.ID, m.Title, string(m.ViewType), nodes, edges); err != nil {
			return fmt.Errorf("upsert map: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM docmap_product_views WHERE map_id = $1`, m.ID); err != nil {
			return fmt.Errorf("clear views: %w", err)
		}
		batch := &pgx.Batch{}
		for _, v := range m.Views {
			vn, ve, err := encodeGraph(v.Nodes, v.Edges)
			if err != nil {
				return err
			}
			batch.Queue(`INSERT INTO docmap_product_views (id, map_id, slug, title, order_index, nodes, edges)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`, v.ID, m.ID, v.Slug, v.Title, v.OrderIndex, vn, ve)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Close closes the connection pool.
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

func scanView(row pgx.Row) (model.ProductView, error) {
	var v model.ProductView
	var nodes, edges []byte
	if err := row.Scan(&v.ID, &v.Slug, &v.Title, &v.OrderIndex, &nodes, &edges); err != nil {
		return v, err
	}
	return v, decodeGraph(nodes, edges, &v.Nodes, &v.Edges)
}

func decodeGraph(nodes, edges []byte, ns *[]model.Node, es *[]model.Edge) error {
	if err := json.Unmarshal(nodes, ns); err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	if err := json.Unmarshal(edges, es); err != nil {
		return fmt.Errorf("edges: %w", err)
	}
	return nil
}

func encodeGraph(ns []model.Node, es []model.Edge) ([]byte, []byte, error) {
	if ns == nil {
		ns = []model.Node{}
	}
	if es == nil {
		es = []model.Edge{}
	}
	nodes, err := json.Marshal(ns)
	if err != nil {
		return nil, nil, fmt.Errorf("encode nodes: %w", err)
	}
	edges, err := json.Marshal(es)
	if err != nil {
		return nil, nil, fmt.Errorf("encode edges: %w", err)
	}
	return nodes, edges, nil
}

var _ Source = (*PostgresSource)(nil)
