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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const defaultEtcdDialTimeout = 5 * time.Second

// ErrEtcdEndpointsRequired is returned when no etcd endpoint is configured.
var ErrEtcdEndpointsRequired = errors.New("etcd endpoints cannot be empty")

// EtcdKVStore reads configuration documents from etcd.
type EtcdKVStore struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdKVStore dials etcd. Keys are read under prefix.
func NewEtcdKVStore(endpoints []string, prefix string, dialTimeout time.Duration) (*EtcdKVStore, error) {
	if len(endpoints) == 0 {
		return nil, ErrEtcdEndpointsRequired
	}

	if dialTimeout <= 0 {
		dialTimeout = defaultEtcdDialTimeout
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	return &EtcdKVStore{client: cli, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// NewEtcdKVStoreFromEnv dials the comma-separated CONFIG_ETCD_ENDPOINTS.
func NewEtcdKVStoreFromEnv() (*EtcdKVStore, error) {
	endpoints := make([]string, 0, 1)

	for _, ep := range strings.Split(os.Getenv("CONFIG_ETCD_ENDPOINTS"), ",") {
		if ep = strings.TrimSpace(ep); ep != "" {
			endpoints = append(endpoints, ep)
		}
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: set CONFIG_ETCD_ENDPOINTS", ErrEtcdEndpointsRequired)
	}

	return NewEtcdKVStore(endpoints, os.Getenv("CONFIG_ETCD_PREFIX"), 0)
}

func (s *EtcdKVStore) key(key string) string {
	if s.prefix == "" {
		return key
	}

	return s.prefix + "/" + key
}

// Get implements KVStore.
func (s *EtcdKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		return nil, false, err
	}

	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}

	return resp.Kvs[0].Value, true, nil
}

// Close implements KVStore.
func (s *EtcdKVStore) Close() error {
	return s.client.Close()
}
