/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cnpg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

// ErrTimestampOutOfRange is returned for mapping timestamps a BIGINT column cannot hold.
var ErrTimestampOutOfRange = errors.New("cnpg: c_timestamp exceeds bigint range")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store is an assetdb.MappingStore backed by a Postgres table keyed by
// (pseudo_key, c_timestamp). Reads always go to the primary through the pool,
// so every query is strongly consistent.
type Store struct {
	db     querier
	pool   *pgxpool.Pool
	table  string
	logger logger.Logger
}

var _ assetdb.MappingStore = (*Store)(nil)

// New dials the cluster and, when configured, creates the mapping table.
func New(ctx context.Context, cfg *models.CNPGDatabase, log logger.Logger) (*Store, error) {
	pool, err := NewPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store := newStore(pool, cfg.Table, log)
	store.pool = pool

	if cfg.AutoCreateSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, err
		}
	}

	return store, nil
}

func newStore(db querier, table string, log logger.Logger) *Store {
	if table == "" {
		table = assetdb.DefaultTableName
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Store{db: db, table: quoteTable(table), logger: log}
}

// quoteTable sanitizes an optionally schema-qualified table name.
func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

func (s *Store) PutMapping(ctx context.Context, mapping *models.AssetIDMapping) error {
	if mapping == nil {
		return assetdb.ErrNilMapping
	}

	if mapping.PseudoKey == "" {
		return assetdb.ErrEmptyPseudoKey
	}

	if mapping.CTimestamp > math.MaxInt64 {
		return fmt.Errorf("%w: %d", ErrTimestampOutOfRange, mapping.CTimestamp)
	}

	_, err := s.db.Exec(ctx, s.insertSQL(), mapping.PseudoKey, mapping.AssetID, int64(mapping.CTimestamp))
	if err != nil {
		return fmt.Errorf("cnpg: insert mapping: %w", err)
	}

	return nil
}

func (s *Store) QueryMappings(ctx context.Context, query assetdb.Query) ([]models.ResolvedAssetID, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ts := query.Timestamp
	if ts > math.MaxInt64 {
		if query.Condition == assetdb.AtOrAfter {
			return []models.ResolvedAssetID{}, nil
		}

		ts = math.MaxInt64
	}

	sql, args := s.selectSQL(query, int64(ts))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("cnpg: query mappings: %w", err)
	}
	defer rows.Close()

	out := make([]models.ResolvedAssetID, 0, 1)

	for rows.Next() {
		var assetID string
		if err := rows.Scan(&assetID); err != nil {
			return nil, fmt.Errorf("cnpg: scan mapping: %w", err)
		}

		out = append(out, models.ResolvedAssetID{AssetID: assetID})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cnpg: iterate mappings: %w", err)
	}

	return out, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}

	return nil
}

func (s *Store) insertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (pseudo_key, asset_id, c_timestamp) VALUES ($1, $2, $3)`, s.table)
}

func (s *Store) selectSQL(query assetdb.Query, ts int64) (string, []any) {
	op := ">="
	if query.Condition == assetdb.AtOrBefore {
		op = "<="
	}

	dir := "ASC"
	if query.Order == assetdb.Descending {
		dir = "DESC"
	}

	var b strings.Builder

	fmt.Fprintf(&b, `SELECT asset_id FROM %s WHERE pseudo_key = $1 AND c_timestamp %s $2 ORDER BY c_timestamp %s, id %s`,
		s.table, op, dir, dir)

	args := []any{query.PseudoKey, ts}

	if query.Limit > 0 {
		b.WriteString(` LIMIT $3`)

		args = append(args, query.Limit)
	}

	return b.String(), args
}
