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

// Package etcdstore keeps asset id mappings in etcd under
// <prefix>/<escaped pseudo-key>/<20-digit c_timestamp>/<uuidv7>.
package etcdstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/config"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

const defaultDialTimeout = 5 * time.Second

var (
	errConfigRequired    = errors.New("etcd: store config is required")
	errEndpointsRequired = errors.New("etcd: endpoints cannot be empty")
)

// kv is the slice of clientv3.KV the store uses.
type kv interface {
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// Store is an assetdb.MappingStore backed by etcd range reads.
type Store struct {
	kv     kv
	closer func() error
	prefix string
	logger logger.Logger
}

var _ assetdb.MappingStore = (*Store)(nil)

// New dials the configured etcd cluster and checks it answers a read.
func New(ctx context.Context, cfg *models.EtcdConfig, log logger.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	if len(cfg.Endpoints) == 0 {
		return nil, errEndpointsRequired
	}

	dialTimeout := time.Duration(cfg.DialTimeout)
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	}

	if cfg.TLS != nil {
		tlsConfig, err := config.ClientTLSConfig(cfg.TLS, "", "")
		if err != nil {
			return nil, fmt.Errorf("etcd: failed to configure TLS: %w", err)
		}

		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if _, err := cli.Get(checkCtx, "health-check", clientv3.WithCountOnly()); err != nil {
		_ = cli.Close()

		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	if log != nil {
		log.Info().Strs("endpoints", cfg.Endpoints).Msg("Connected to etcd mapping store")
	}

	store := newStore(cli, cfg.Prefix, log)
	store.closer = cli.Close

	return store, nil
}

func newStore(client kv, prefix string, log logger.Logger) *Store {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "/" + assetdb.DefaultTableName
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Store{kv: client, prefix: prefix, logger: log}
}

type record struct {
	AssetID    string `json:"asset_id"`
	CTimestamp uint64 `json:"c_timestamp"`
}

func (s *Store) partition(pseudoKey string) string {
	return s.prefix + "/" + url.PathEscape(pseudoKey) + "/"
}

func padTimestamp(ts uint64) string {
	return fmt.Sprintf("%020d", ts)
}

func (s *Store) PutMapping(ctx context.Context, mapping *models.AssetIDMapping) error {
	if mapping == nil {
		return assetdb.ErrNilMapping
	}

	if mapping.PseudoKey == "" {
		return assetdb.ErrEmptyPseudoKey
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("etcd: generate key id: %w", err)
	}

	value, err := json.Marshal(record{AssetID: mapping.AssetID, CTimestamp: mapping.CTimestamp})
	if err != nil {
		return fmt.Errorf("etcd: encode mapping: %w", err)
	}

	key := s.partition(mapping.PseudoKey) + padTimestamp(mapping.CTimestamp) + "/" + id.String()

	if _, err := s.kv.Put(ctx, key, string(value)); err != nil {
		return fmt.Errorf("etcd: put mapping: %w", err)
	}

	return nil
}

// QueryMappings issues one sorted range read. Non-consistent queries are served serializably
// by the contacted member.
func (s *Store) QueryMappings(ctx context.Context, query assetdb.Query) ([]models.ResolvedAssetID, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	start, end := s.keyRange(query)

	resp, err := s.kv.Get(ctx, start, rangeOptions(query, end)...)
	if err != nil {
		return nil, fmt.Errorf("etcd: range read: %w", err)
	}

	out := make([]models.ResolvedAssetID, 0, len(resp.Kvs))

	for _, item := range resp.Kvs {
		var rec record
		if err := json.Unmarshal(item.Value, &rec); err != nil {
			return nil, fmt.Errorf("etcd: decode mapping %s: %w", item.Key, err)
		}

		out = append(out, models.ResolvedAssetID{AssetID: rec.AssetID})
	}

	return out, nil
}

// keyRange returns the half-open [start, end) key range matching the query.
func (s *Store) keyRange(query assetdb.Query) (string, string) {
	base := s.partition(query.PseudoKey)
	partitionEnd := clientv3.GetPrefixRangeEnd(base)

	switch query.Condition {
	case assetdb.AtOrAfter:
		return base + padTimestamp(query.Timestamp), partitionEnd
	default:
		if query.Timestamp == math.MaxUint64 {
			return base, partitionEnd
		}

		return base, base + padTimestamp(query.Timestamp+1)
	}
}

func rangeOptions(query assetdb.Query, end string) []clientv3.OpOption {
	order := clientv3.SortAscend
	if query.Order == assetdb.Descending {
		order = clientv3.SortDescend
	}

	opts := []clientv3.OpOption{
		clientv3.WithRange(end),
		clientv3.WithSort(clientv3.SortByKey, order),
	}

	if query.Limit > 0 {
		opts = append(opts, clientv3.WithLimit(int64(query.Limit)))
	}

	if !query.ConsistentRead {
		opts = append(opts, clientv3.WithSerializable())
	}

	return opts
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer()
}
