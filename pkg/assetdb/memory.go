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

package assetdb

import (
	"context"
	"sort"
	"sync"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

// MemoryStore keeps mappings in process, ordered by timestamp per pseudo-key.
// Mappings sharing a timestamp keep insertion order, so descending reads return the
// most recently written one first and ascending reads the earliest written one.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings map[string][]models.AssetIDMapping
	closed   bool
}

// NewMemoryStore returns an empty in-memory mapping store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mappings: make(map[string][]models.AssetIDMapping)}
}

func (m *MemoryStore) PutMapping(_ context.Context, mapping *models.AssetIDMapping) error {
	if mapping == nil {
		return ErrNilMapping
	}

	if mapping.PseudoKey == "" {
		return ErrEmptyPseudoKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	rows := m.mappings[mapping.PseudoKey]
	// insert after every row with an equal or smaller timestamp
	idx := sort.Search(len(rows), func(i int) bool { return rows[i].CTimestamp > mapping.CTimestamp })

	rows = append(rows, models.AssetIDMapping{})
	copy(rows[idx+1:], rows[idx:])
	rows[idx] = *mapping

	m.mappings[mapping.PseudoKey] = rows

	return nil
}

func (m *MemoryStore) QueryMappings(_ context.Context, query Query) ([]models.ResolvedAssetID, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	rows := m.mappings[query.PseudoKey]

	var lo, hi int

	switch query.Condition {
	case AtOrAfter:
		lo = sort.Search(len(rows), func(i int) bool { return rows[i].CTimestamp >= query.Timestamp })
		hi = len(rows)
	case AtOrBefore:
		lo = 0
		hi = sort.Search(len(rows), func(i int) bool { return rows[i].CTimestamp > query.Timestamp })
	}

	matched := rows[lo:hi]
	out := make([]models.ResolvedAssetID, 0, len(matched))

	for i := range matched {
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}

		row := matched[i]
		if query.Order == Descending {
			row = matched[len(matched)-1-i]
		}

		out = append(out, models.ResolvedAssetID{AssetID: row.AssetID})
	}

	return out, nil
}

// Len returns the number of stored mappings for a pseudo-key.
func (m *MemoryStore) Len(pseudoKey string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.mappings[pseudoKey])
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

var _ MappingStore = (*MemoryStore)(nil)
