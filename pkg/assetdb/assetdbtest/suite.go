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

// Package assetdbtest holds the behaviour suite shared by every MappingStore backend.
package assetdbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

// StoreFactory returns a fresh, empty store for one subtest.
type StoreFactory func(t *testing.T) assetdb.MappingStore

// RunMappingStoreSuite exercises the resolution contract against a backend.
func RunMappingStoreSuite(t *testing.T, newStore StoreFactory) {
	t.Helper()

	newDB := func(t *testing.T) *assetdb.AssetIDDB {
		t.Helper()

		store := newStore(t)
		t.Cleanup(func() { _ = store.Close() })

		return assetdb.NewAssetIDDB(store, logger.NewTestLogger())
	}

	t.Run("MapHostnameToAssetID", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		host := models.Hostname("fakehostname")
		require.NoError(t, db.CreateMapping(ctx, host, "asset_id_a", 1500))

		assetID, found, err := db.ResolveAssetID(ctx, host, 1510)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "asset_id_a", assetID)
	})

	t.Run("ResolvesAtExactTimestamp", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		host := models.IP("10.1.1.1")
		require.NoError(t, db.CreateMapping(ctx, host, "asset-1", 2000))

		assetID, found, err := db.FindLastMappingBefore(ctx, host, 2000)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "asset-1", assetID)

		assetID, found, err = db.FindFirstMappingAfter(ctx, host, 2000)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "asset-1", assetID)
	})

	t.Run("FallsBackToFirstMappingAfter", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		host := models.Hostname("bootstrap-host")
		require.NoError(t, db.CreateMapping(ctx, host, "asset-late", 5000))
		require.NoError(t, db.CreateMapping(ctx, host, "asset-later", 9000))

		_, found, err := db.FindLastMappingBefore(ctx, host, 100)
		require.NoError(t, err)
		assert.False(t, found)

		assetID, found, err := db.ResolveAssetID(ctx, host, 100)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "asset-late", assetID)
	})

	t.Run("ReassignmentOverTime", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		host := models.Hostname("dhcp-host")
		require.NoError(t, db.CreateMapping(ctx, host, "asset-1", 1000))
		require.NoError(t, db.CreateMapping(ctx, host, "asset-2", 2000))

		cases := map[uint64]string{
			500:  "asset-1",
			1000: "asset-1",
			1500: "asset-1",
			1999: "asset-1",
			2000: "asset-2",
			3000: "asset-2",
		}

		for ts, want := range cases {
			assetID, found, err := db.ResolveAssetID(ctx, host, ts)
			require.NoError(t, err)
			require.True(t, found, "ts=%d", ts)
			assert.Equal(t, want, assetID, "ts=%d", ts)
		}
	})

	t.Run("UnknownHostIsNotFound", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		require.NoError(t, db.CreateMapping(ctx, models.Hostname("known"), "asset-1", 10))

		_, found, err := db.ResolveAssetID(ctx, models.Hostname("unknown"), 10)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("HostnameAndIPDoNotCollide", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		require.NoError(t, db.CreateMapping(ctx, models.Hostname("10.0.0.7"), "asset-hostname", 10))
		require.NoError(t, db.CreateMapping(ctx, models.IP("10.0.0.7"), "asset-ip", 10))

		assetID, _, err := db.ResolveAssetID(ctx, models.Hostname("10.0.0.7"), 20)
		require.NoError(t, err)
		assert.Equal(t, "asset-hostname", assetID)

		assetID, _, err = db.ResolveAssetID(ctx, models.IP("10.0.0.7"), 20)
		require.NoError(t, err)
		assert.Equal(t, "asset-ip", assetID)
	})

	t.Run("AssetIDShortCircuits", func(t *testing.T) {
		ctx := context.Background()
		db := newDB(t)

		assetID, found, err := db.ResolveAssetID(ctx, models.AssetID("asset-9"), 42)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "asset-9", assetID)

		require.NoError(t, db.CreateMapping(ctx, models.AssetID("asset-9"), "asset-other", 42))
	})

	t.Run("QueryOrderingAndLimit", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		t.Cleanup(func() { _ = store.Close() })

		for _, m := range []models.AssetIDMapping{
			{PseudoKey: "hostnameh", AssetID: "a-300", CTimestamp: 300},
			{PseudoKey: "hostnameh", AssetID: "a-100", CTimestamp: 100},
			{PseudoKey: "hostnameh", AssetID: "a-200", CTimestamp: 200},
			{PseudoKey: "hostnameother", AssetID: "x-150", CTimestamp: 150},
		} {
			mapping := m
			require.NoError(t, store.PutMapping(ctx, &mapping))
		}

		got, err := store.QueryMappings(ctx, assetdb.Query{
			PseudoKey:      "hostnameh",
			Condition:      assetdb.AtOrAfter,
			Timestamp:      150,
			Order:          assetdb.Ascending,
			ConsistentRead: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []models.ResolvedAssetID{{AssetID: "a-200"}, {AssetID: "a-300"}}, got)

		got, err = store.QueryMappings(ctx, assetdb.Query{
			PseudoKey:      "hostnameh",
			Condition:      assetdb.AtOrBefore,
			Timestamp:      300,
			Limit:          2,
			Order:          assetdb.Descending,
			ConsistentRead: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []models.ResolvedAssetID{{AssetID: "a-300"}, {AssetID: "a-200"}}, got)

		got, err = store.QueryMappings(ctx, assetdb.Query{
			PseudoKey: "hostnameh",
			Condition: assetdb.AtOrAfter,
			Timestamp: 301,
			Limit:     1,
		})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DuplicateTimestampsAreRetained", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		t.Cleanup(func() { _ = store.Close() })

		for _, assetID := range []string{"first", "second"} {
			require.NoError(t, store.PutMapping(ctx, &models.AssetIDMapping{
				PseudoKey:  "iptwin",
				AssetID:    assetID,
				CTimestamp: 77,
			}))
		}

		got, err := store.QueryMappings(ctx, assetdb.Query{
			PseudoKey: "iptwin",
			Condition: assetdb.AtOrBefore,
			Timestamp: 77,
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []models.ResolvedAssetID{{AssetID: "first"}, {AssetID: "second"}}, got)
	})
}
