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

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

func processNode(fields models.HostFields, ts uint64) models.NodeDescription {
	return models.NodeDescription{Node: &models.ProcessNode{
		HostFields:  fields,
		Lifecycle:   models.Lifecycle{State: models.StateCreated, CreatedTimestamp: ts},
		ProcessID:   4242,
		ProcessName: "sshd",
	}}
}

func TestAttributeAssetIDHostnameOnly(t *testing.T) {
	ctx := context.Background()
	store := assetdb.NewMemoryStore()
	db := assetdb.NewAssetIDDB(store, logger.NewTestLogger())
	require.NoError(t, db.CreateMapping(ctx, models.Hostname("web-01"), "asset-42", 1000))

	identifier := NewAssetIdentifier(db, logger.NewTestLogger())

	assetID, err := identifier.AttributeAssetID(ctx, processNode(models.HostFields{Hostname: "web-01"}, 1200))
	require.NoError(t, err)
	assert.Equal(t, "asset-42", assetID)
}

func TestAttributeAssetIDEmptyRecordIsUnattributable(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockAssetResolver(ctrl)
	identifier := NewAssetIdentifier(resolver, nil)

	_, err := identifier.AttributeAssetID(context.Background(), processNode(models.HostFields{}, 10))
	require.ErrorIs(t, err, models.ErrUnattributableIdentity)
}

func TestAttributeAssetIDIPAddressNodeIsUnattributable(t *testing.T) {
	ctrl := gomock.NewController(t)
	identifier := NewAssetIdentifier(NewMockAssetResolver(ctrl), nil)

	_, err := identifier.AttributeAssetID(context.Background(), models.NodeDescription{
		Node: &models.IPAddressNode{IPAddress: "10.0.0.1", SeenAt: 5},
	})
	require.ErrorIs(t, err, models.ErrUnattributableIdentity)
	assert.Contains(t, err.Error(), "ip address node")
}

func TestAttributeAssetIDUnmappedHostIsUnresolved(t *testing.T) {
	identifier := NewAssetIdentifier(assetdb.NewAssetIDDB(assetdb.NewMemoryStore(), nil), nil)

	_, err := identifier.AttributeAssetID(context.Background(), processNode(models.HostFields{HostIP: "10.9.9.9"}, 10))
	require.ErrorIs(t, err, ErrIdentityUnresolved)
}

func TestAttributeAssetIDUsesPrecedenceAndTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockAssetResolver(ctrl)
	identifier := NewAssetIdentifier(resolver, nil)
	ctx := context.Background()

	resolver.EXPECT().ResolveAssetID(ctx, models.Hostname("db-1"), uint64(777)).Return("asset-7", true, nil)

	node := models.NodeDescription{Node: &models.FileNode{
		HostFields: models.HostFields{Hostname: "db-1", HostIP: "10.0.0.2"},
		Lifecycle:  models.Lifecycle{State: models.StateExisting, LastSeenTimestamp: 777},
		FilePath:   "/etc/passwd",
	}}

	assetID, err := identifier.AttributeAssetID(ctx, node)
	require.NoError(t, err)
	assert.Equal(t, "asset-7", assetID)
}

func TestAttributeAssetIDWrapsResolverErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockAssetResolver(ctrl)
	identifier := NewAssetIdentifier(resolver, nil)
	storageErr := errors.Join(assetdb.ErrStorage, errors.New("timeout"))

	resolver.EXPECT().ResolveAssetID(gomock.Any(), models.IP("10.0.0.3"), uint64(9)).Return("", false, storageErr)

	node := models.NodeDescription{Node: &models.DynamicNode{
		HostFields: models.HostFields{HostIP: "10.0.0.3"},
		NodeType:   "registry_key",
		SeenAt:     9,
	}}

	_, err := identifier.AttributeAssetID(context.Background(), node)
	require.ErrorIs(t, err, assetdb.ErrStorage)
	assert.NotErrorIs(t, err, ErrIdentityUnresolved)
}

func TestAttributeSetsAssetIDOnRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockAssetResolver(ctrl)
	identifier := NewAssetIdentifier(resolver, nil)

	resolver.EXPECT().ResolveAssetID(gomock.Any(), models.Hostname("laptop"), uint64(50)).Return("asset-1", true, nil)

	conn := &models.OutboundConnectionNode{
		HostFields: models.HostFields{Hostname: "laptop"},
		Lifecycle:  models.Lifecycle{State: models.StateTerminated, TerminatedTimestamp: 50},
		Port:       443,
	}

	assetID, err := identifier.Attribute(context.Background(), models.NodeDescription{Node: conn})
	require.NoError(t, err)
	assert.Equal(t, "asset-1", assetID)
	assert.Equal(t, "asset-1", conn.AssetID)
}

func TestAttributeAssetIDShortCircuitsAssetIDField(t *testing.T) {
	store := assetdb.NewMockMappingStore(gomock.NewController(t))
	identifier := NewAssetIdentifier(assetdb.NewAssetIDDB(store, nil), nil)

	assetID, err := identifier.AttributeAssetID(context.Background(),
		processNode(models.HostFields{AssetID: "asset-9", Hostname: "ignored"}, 1))
	require.NoError(t, err)
	assert.Equal(t, "asset-9", assetID)
}

func TestHostIDForRejectsEmptyDescription(t *testing.T) {
	_, err := HostIDFor(models.NodeDescription{})
	require.ErrorIs(t, err, ErrUnsupportedNode)
}
