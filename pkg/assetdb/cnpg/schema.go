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
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// EnsureSchema creates the mapping table and its lookup index if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.schemaStatements() {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("cnpg: ensure schema: %w", err)
		}
	}

	s.logger.Info().Str("table", s.table).Msg("Asset id mapping schema ready")

	return nil
}

func (s *Store) schemaStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          BIGSERIAL PRIMARY KEY,
	pseudo_key  TEXT NOT NULL,
	asset_id    TEXT NOT NULL,
	c_timestamp BIGINT NOT NULL
)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (pseudo_key, c_timestamp)`, s.indexName(), s.table),
	}
}

// indexName derives an unqualified index name from the table name.
func (s *Store) indexName() string {
	parts := strings.Split(s.table, ".")
	base := strings.Trim(parts[len(parts)-1], `"`)

	return pgx.Identifier{base + "_pseudo_key_ts_idx"}.Sanitize()
}
