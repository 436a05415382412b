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

//go:generate mockgen -destination=mock_store.go -package=assetdb github.com/carverauto/nodeidentifier/pkg/assetdb MappingStore

// Package assetdb records and resolves time-indexed host identifier to asset id mappings.
package assetdb

import (
	"context"
	"fmt"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

// DefaultTableName is the table, key namespace or prefix used by every backend unless configured.
const DefaultTableName = "asset_id_mappings"

// RangeCondition is the sort-key inequality applied to c_timestamp.
type RangeCondition int

const (
	// AtOrAfter selects mappings with c_timestamp >= the query timestamp.
	AtOrAfter RangeCondition = iota + 1
	// AtOrBefore selects mappings with c_timestamp <= the query timestamp.
	AtOrBefore
)

func (c RangeCondition) String() string {
	switch c {
	case AtOrAfter:
		return ">="
	case AtOrBefore:
		return "<="
	default:
		return fmt.Sprintf("range_condition(%d)", int(c))
	}
}

// SortOrder orders query results by c_timestamp.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Query is a bounded range read against one pseudo-key partition.
type Query struct {
	PseudoKey string
	Condition RangeCondition
	Timestamp uint64
	// Limit caps the number of returned items. Zero or less means no limit.
	Limit int
	Order SortOrder
	// ConsistentRead asks the backend for a read that observes every acknowledged write.
	ConsistentRead bool
}

// Matches reports whether a mapping at ts satisfies the query's range condition.
func (q Query) Matches(ts uint64) bool {
	switch q.Condition {
	case AtOrAfter:
		return ts >= q.Timestamp
	case AtOrBefore:
		return ts <= q.Timestamp
	default:
		return false
	}
}

// Validate rejects queries a backend cannot run.
func (q Query) Validate() error {
	if q.PseudoKey == "" {
		return ErrEmptyPseudoKey
	}

	if q.Condition != AtOrAfter && q.Condition != AtOrBefore {
		return fmt.Errorf("%w: %s", ErrInvalidCondition, q.Condition)
	}

	return nil
}

// MappingStore is the time-indexed key-value capability the mapping store needs:
// point writes plus bounded, ordered range reads on a pseudo-key partition.
type MappingStore interface {
	// PutMapping inserts the mapping. Existing mappings are never replaced.
	PutMapping(ctx context.Context, mapping *models.AssetIDMapping) error

	// QueryMappings returns the mappings matching the query, ordered and limited as requested.
	QueryMappings(ctx context.Context, query Query) ([]models.ResolvedAssetID, error)

	// Close releases backend resources.
	Close() error
}
