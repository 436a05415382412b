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

// Package redisstore keeps asset id mappings in Redis sorted sets, one per pseudo-key.
//
// Every member scores 0 and is encoded as "<20-digit c_timestamp>:<uuidv7>:<asset id>",
// so lexicographic order is timestamp order and timestamp range reads become
// ZRANGEBYLEX / ZREVRANGEBYLEX calls. The uuid keeps repeated writes at one
// timestamp distinct and orders them by write time.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/config"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

const (
	defaultURL            = "redis://localhost:6379"
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 5 * time.Second

	memberParts = 3
)

var (
	errConfigRequired = errors.New("redis: store config is required")
	errBadMember      = errors.New("redis: malformed mapping member")
)

// Store is an assetdb.MappingStore backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

var _ assetdb.MappingStore = (*Store)(nil)

// New connects to the configured Redis and verifies it answers PING.
func New(ctx context.Context, cfg *models.RedisConfig, log logger.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	rawURL := cfg.URL
	if rawURL == "" {
		rawURL = defaultURL
	}

	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.DialTimeout = durationOr(cfg.ConnectTimeout, defaultConnectTimeout)
	opts.ReadTimeout = durationOr(cfg.ReadTimeout, defaultReadTimeout)
	opts.WriteTimeout = durationOr(cfg.WriteTimeout, defaultWriteTimeout)

	if cfg.TLS != nil {
		serverName, _, _ := net.SplitHostPort(opts.Addr)

		tlsConfig, err := config.ClientTLSConfig(cfg.TLS, "", serverName)
		if err != nil {
			return nil, fmt.Errorf("redis: failed to configure TLS: %w", err)
		}

		opts.TLSConfig = tlsConfig
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log != nil {
		log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis mapping store")
	}

	return NewWithClient(client, cfg.KeyPrefix, log), nil
}

// NewWithClient wraps an existing client. The store owns the client and closes it.
func NewWithClient(client *redis.Client, prefix string, log logger.Logger) *Store {
	if prefix == "" {
		prefix = assetdb.DefaultTableName
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Store{client: client, prefix: prefix, logger: log}
}

func durationOr(d models.Duration, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return time.Duration(d)
}

func (s *Store) key(pseudoKey string) string {
	return s.prefix + ":" + pseudoKey
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
		return fmt.Errorf("redis: generate member id: %w", err)
	}

	member := encodeMember(mapping.CTimestamp, id.String(), mapping.AssetID)

	if err := s.client.ZAdd(ctx, s.key(mapping.PseudoKey), redis.Z{Score: 0, Member: member}).Err(); err != nil {
		return fmt.Errorf("redis: zadd: %w", err)
	}

	return nil
}

// QueryMappings reads from the connected node. Redis acknowledges writes only once
// the primary has applied them, so reads against the primary are consistent.
func (s *Store) QueryMappings(ctx context.Context, query assetdb.Query) ([]models.ResolvedAssetID, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	by := lexRange(query)

	var (
		members []string
		err     error
	)

	if query.Order == assetdb.Descending {
		members, err = s.client.ZRevRangeByLex(ctx, s.key(query.PseudoKey), by).Result()
	} else {
		members, err = s.client.ZRangeByLex(ctx, s.key(query.PseudoKey), by).Result()
	}

	if err != nil {
		return nil, fmt.Errorf("redis: range read: %w", err)
	}

	out := make([]models.ResolvedAssetID, 0, len(members))

	for _, member := range members {
		_, assetID, err := decodeMember(member)
		if err != nil {
			return nil, err
		}

		out = append(out, models.ResolvedAssetID{AssetID: assetID})
	}

	return out, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func padTimestamp(ts uint64) string {
	return fmt.Sprintf("%020d", ts)
}

func encodeMember(ts uint64, id, assetID string) string {
	return padTimestamp(ts) + ":" + id + ":" + assetID
}

func decodeMember(member string) (uint64, string, error) {
	parts := strings.SplitN(member, ":", memberParts)
	if len(parts) != memberParts {
		return 0, "", fmt.Errorf("%w: %q", errBadMember, member)
	}

	ts, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %w", errBadMember, member, err)
	}

	return ts, parts[2], nil
}

// lexRange translates the timestamp condition into lexicographic bounds.
func lexRange(query assetdb.Query) *redis.ZRangeBy {
	by := &redis.ZRangeBy{Min: "-", Max: "+"}

	switch query.Condition {
	case assetdb.AtOrAfter:
		by.Min = "[" + padTimestamp(query.Timestamp)
	case assetdb.AtOrBefore:
		if query.Timestamp < math.MaxUint64 {
			by.Max = "(" + padTimestamp(query.Timestamp+1)
		}
	}

	if query.Limit > 0 {
		by.Count = int64(query.Limit)
	}

	return by
}
