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

package assetdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/assetdb/assetdbtest"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

func TestMemoryStore(t *testing.T) {
	assetdbtest.RunMappingStoreSuite(t, func(*testing.T) assetdb.MappingStore {
		return assetdb.NewMemoryStore()
	})
}

func TestMemoryStoreDuplicateTimestampOrder(t *testing.T) {
	ctx := context.Background()
	store := assetdb.NewMemoryStore()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.PutMapping(ctx, &models.AssetIDMapping{PseudoKey: "k", AssetID: id, CTimestamp: 5}))
	}

	assert.Equal(t, 3, store.Len("k"))

	got, err := store.QueryMappings(ctx, assetdb.Query{PseudoKey: "k", Condition: assetdb.AtOrBefore, Timestamp: 5, Limit: 1, Order: assetdb.Descending})
	require.NoError(t, err)
	assert.Equal(t, []models.ResolvedAssetID{{AssetID: "third"}}, got)

	got, err = store.QueryMappings(ctx, assetdb.Query{PseudoKey: "k", Condition: assetdb.AtOrAfter, Timestamp: 5, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []models.ResolvedAssetID{{AssetID: "first"}}, got)
}

func TestMemoryStoreRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store := assetdb.NewMemoryStore()

	require.ErrorIs(t, store.PutMapping(ctx, nil), assetdb.ErrNilMapping)
	require.ErrorIs(t, store.PutMapping(ctx, &models.AssetIDMapping{AssetID: "a"}), assetdb.ErrEmptyPseudoKey)

	_, err := store.QueryMappings(ctx, assetdb.Query{PseudoKey: "k"})
	require.ErrorIs(t, err, assetdb.ErrInvalidCondition)
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	store := assetdb.NewMemoryStore()
	require.NoError(t, store.Close())

	err := store.PutMapping(ctx, &models.AssetIDMapping{PseudoKey: "k", AssetID: "a"})
	require.ErrorIs(t, err, assetdb.ErrStoreClosed)

	_, err = store.QueryMappings(ctx, assetdb.Query{PseudoKey: "k", Condition: assetdb.AtOrAfter})
	require.ErrorIs(t, err, assetdb.ErrStoreClosed)
}
