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
	"fmt"
	"time"

	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

const (
	opFindFirstMappingAfter = "find_first_mapping_after"
	opFindLastMappingBefore = "find_last_mapping_before"
	opCreateMapping         = "create_mapping"
)

// Resolution sources reported by lookup metrics.
const (
	resolvedViaAssetID = "asset_id"
	resolvedViaBefore  = "before"
	resolvedViaAfter   = "after"
	resolvedViaNone    = "none"
)

// AssetIDDB maps host identifiers to asset ids as of a point in time.
// It is safe for concurrent use when the underlying store is.
type AssetIDDB struct {
	store  MappingStore
	logger logger.Logger
}

// NewAssetIDDB wraps a mapping store.
func NewAssetIDDB(store MappingStore, log logger.Logger) *AssetIDDB {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &AssetIDDB{store: store, logger: log}
}

// FindFirstMappingAfter returns the earliest mapping at or after ts.
func (db *AssetIDDB) FindFirstMappingAfter(ctx context.Context, hostID models.HostID, ts uint64) (string, bool, error) {
	return db.findMapping(ctx, opFindFirstMappingAfter, hostID, ts, AtOrAfter, Ascending)
}

// FindLastMappingBefore returns the most recent mapping at or before ts.
func (db *AssetIDDB) FindLastMappingBefore(ctx context.Context, hostID models.HostID, ts uint64) (string, bool, error) {
	return db.findMapping(ctx, opFindLastMappingBefore, hostID, ts, AtOrBefore, Descending)
}

// ResolveAssetID prefers the binding already in place at ts and falls back to the
// nearest later binding, which only happens before the first mapping for a host exists.
func (db *AssetIDDB) ResolveAssetID(ctx context.Context, hostID models.HostID, ts uint64) (string, bool, error) {
	start := time.Now()

	if hostID.Kind == models.HostIDKindAssetID {
		RecordLookupLatency(ctx, time.Since(start), resolvedViaAssetID, true)

		return hostID.Value, true, nil
	}

	assetID, found, err := db.FindLastMappingBefore(ctx, hostID, ts)
	if err != nil {
		return "", false, err
	}

	if found {
		RecordLookupLatency(ctx, time.Since(start), resolvedViaBefore, true)

		return assetID, true, nil
	}

	assetID, found, err = db.FindFirstMappingAfter(ctx, hostID, ts)
	if err != nil {
		return "", false, err
	}

	via := resolvedViaAfter
	if !found {
		via = resolvedViaNone
	}

	RecordLookupLatency(ctx, time.Since(start), via, found)

	if found {
		db.logger.Debug().
			Str("host_id", hostID.String()).
			Uint64("ts", ts).
			Str("asset_id", assetID).
			Msg("No mapping at or before timestamp, using first mapping after")
	}

	return assetID, found, nil
}

// CreateMapping records that hostID was bound to assetID at ts.
// Asset id host ids are their own binding and are not stored.
func (db *AssetIDDB) CreateMapping(ctx context.Context, hostID models.HostID, assetID string, ts uint64) error {
	if hostID.Kind == models.HostIDKindAssetID {
		return nil
	}

	pseudoKey, ok := hostID.PseudoKey()
	if !ok {
		return fmt.Errorf("%s: %w: %s", opCreateMapping, ErrInvalidHostID, hostID)
	}

	if assetID == "" {
		return fmt.Errorf("%s %s: %w", opCreateMapping, hostID, ErrEmptyAssetID)
	}

	mapping := &models.AssetIDMapping{
		PseudoKey:  pseudoKey,
		AssetID:    assetID,
		CTimestamp: ts,
	}

	if err := db.store.PutMapping(ctx, mapping); err != nil {
		RecordMappingWrite(ctx, "error")

		return fmt.Errorf("%w: %s %s -> %s at %d: %w", ErrStorage, opCreateMapping, hostID, assetID, ts, err)
	}

	RecordMappingWrite(ctx, "ok")

	db.logger.Info().
		Str("pseudo_key", pseudoKey).
		Str("asset_id", assetID).
		Uint64("c_timestamp", ts).
		Msg("Created asset id mapping")

	return nil
}

func (db *AssetIDDB) findMapping(
	ctx context.Context,
	op string,
	hostID models.HostID,
	ts uint64,
	condition RangeCondition,
	order SortOrder) (string, bool, error) {
	if hostID.Kind == models.HostIDKindAssetID {
		return hostID.Value, true, nil
	}

	pseudoKey, ok := hostID.PseudoKey()
	if !ok {
		return "", false, fmt.Errorf("%s: %w: %s", op, ErrInvalidHostID, hostID)
	}

	items, err := db.store.QueryMappings(ctx, Query{
		PseudoKey:      pseudoKey,
		Condition:      condition,
		Timestamp:      ts,
		Limit:          1,
		Order:          order,
		ConsistentRead: true,
	})
	if err != nil {
		return "", false, fmt.Errorf("%w: %s %s at %d: %w", ErrStorage, op, hostID, ts, err)
	}

	switch len(items) {
	case 0:
		return "", false, nil
	case 1:
		return items[0].AssetID, true, nil
	default:
		db.logger.Error().
			Str("op", op).
			Str("pseudo_key", pseudoKey).
			Int("items", len(items)).
			Msg("Limit 1 query returned more than one item")

		return "", false, fmt.Errorf("%w: %s %s returned %d items", ErrUnexpectedItemCount, op, hostID, len(items))
	}
}
