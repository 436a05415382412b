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

//go:generate mockgen -destination=mock_resolver.go -package=identity github.com/carverauto/nodeidentifier/pkg/identity AssetResolver

// Package identity attributes event records to the asset that produced them.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

var (
	// ErrIdentityUnresolved means no mapping exists for the record's host at or around its timestamp.
	ErrIdentityUnresolved = errors.New("unable to identify asset id")
	// ErrUnsupportedNode is returned for node kinds outside the known set.
	ErrUnsupportedNode = errors.New("unsupported node kind")

	errIPAddressNode = fmt.Errorf("%w: cannot attribute an ip address node", models.ErrUnattributableIdentity)
)

// AssetResolver resolves a host id to the asset id bound to it at a timestamp.
// *assetdb.AssetIDDB implements it.
type AssetResolver interface {
	ResolveAssetID(ctx context.Context, hostID models.HostID, ts uint64) (string, bool, error)
}

// AssetIdentifier attributes records using a resolver. It keeps no state between calls.
type AssetIdentifier struct {
	resolver AssetResolver
	logger   logger.Logger
}

// NewAssetIdentifier returns an identifier backed by resolver.
func NewAssetIdentifier(resolver AssetResolver, log logger.Logger) *AssetIdentifier {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &AssetIdentifier{resolver: resolver, logger: log}
}

// HostIDFor extracts the host id a record was observed under.
func HostIDFor(node models.NodeDescription) (models.HostID, error) {
	switch n := node.Node.(type) {
	case *models.IPAddressNode:
		return models.HostID{}, errIPAddressNode
	case *models.ProcessNode, *models.FileNode, *models.OutboundConnectionNode, *models.DynamicNode:
		fields := n.(models.HostIdentified).IdentityFields()

		return models.NewHostID(fields.AssetID, fields.Hostname, fields.HostIP)
	default:
		return models.HostID{}, fmt.Errorf("%w: %q", ErrUnsupportedNode, node.Kind())
	}
}

// AttributeAssetID returns the asset id that produced the record, as of the record's timestamp.
func (a *AssetIdentifier) AttributeAssetID(ctx context.Context, node models.NodeDescription) (string, error) {
	hostID, err := HostIDFor(node)
	if err != nil {
		return "", err
	}

	ts := node.Timestamp()

	assetID, found, err := a.resolver.ResolveAssetID(ctx, hostID, ts)
	if err != nil {
		return "", fmt.Errorf("resolve %s at %d: %w", hostID, ts, err)
	}

	if !found {
		a.logger.Debug().
			Str("host_id", hostID.String()).
			Uint64("ts", ts).
			Msg("No asset id mapping for host")

		return "", fmt.Errorf("%w: %s at %d", ErrIdentityUnresolved, hostID, ts)
	}

	return assetID, nil
}

// Attribute resolves the record's asset id and stores it on the record.
func (a *AssetIdentifier) Attribute(ctx context.Context, node models.NodeDescription) (string, error) {
	assetID, err := a.AttributeAssetID(ctx, node)
	if err != nil {
		return "", err
	}

	if hosted, ok := node.Node.(models.HostIdentified); ok {
		hosted.SetAssetID(assetID)
	}

	return assetID, nil
}
