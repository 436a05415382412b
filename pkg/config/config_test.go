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
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

var errTestStoreRequired = errors.New("store is required")

type fakeKVStore struct {
	values map[string][]byte
	err    error
}

func (f *fakeKVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}

	val, ok := f.values[key]

	return val, ok, nil
}

func (*fakeKVStore) Close() error { return nil }

type testStoreConfig struct {
	Type  string              `json:"type" yaml:"type"`
	Redis *models.RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	Etcd  *models.EtcdConfig  `json:"etcd,omitempty" yaml:"etcd,omitempty"`
}

type testServiceConfig struct {
	NATSURL    string                 `json:"nats_url" yaml:"nats_url"`
	MaxDeliver int                    `json:"max_deliver" yaml:"max_deliver"`
	AckWait    models.Duration        `json:"ack_wait" yaml:"ack_wait"`
	Subjects   []string               `json:"subjects" yaml:"subjects"`
	Store      testStoreConfig        `json:"store" yaml:"store"`
	Security   *models.SecurityConfig `json:"security" yaml:"security"`
}

func (c *testServiceConfig) Validate() error {
	if c.Store.Type == "" {
		return errTestStoreRequired
	}

	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidateJSONFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "node-identifier.json", `{
		"nats_url": "nats://nats:4222",
		"max_deliver": 5,
		"ack_wait": "30s",
		"store": {"type": "redis", "redis": {"url": "redis://redis:6379/0", "read_timeout": "2s"}},
		"security": {"mode": "mtls", "cert_dir": "/etc/certs", "tls": {"cert_file": "client.pem", "key_file": "client-key.pem", "ca_file": "/abs/ca.pem"}}
	}`)

	var cfg testServiceConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "nats://nats:4222", cfg.NATSURL)
	assert.Equal(t, 5, cfg.MaxDeliver)
	assert.Equal(t, models.Duration(30*time.Second), cfg.AckWait)
	require.NotNil(t, cfg.Store.Redis)
	assert.Equal(t, models.Duration(2*time.Second), cfg.Store.Redis.ReadTimeout)

	require.NotNil(t, cfg.Security)
	assert.Equal(t, "/etc/certs/client.pem", cfg.Security.TLS.CertFile)
	assert.Equal(t, "/etc/certs/client-key.pem", cfg.Security.TLS.KeyFile)
	assert.Equal(t, "/abs/ca.pem", cfg.Security.TLS.CAFile)
	assert.Equal(t, "/abs/ca.pem", cfg.Security.TLS.ClientCAFile)
}

func TestLoadAndValidateYAMLFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeFile(t, "node-identifier.yaml", `
nats_url: nats://nats:4222
ack_wait: 1m
subjects: [a, b]
store:
  type: etcd
  etcd:
    endpoints: ["etcd-0:2379", "etcd-1:2379"]
    prefix: /assets
`)

	var cfg testServiceConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, models.Duration(time.Minute), cfg.AckWait)
	assert.Equal(t, []string{"a", "b"}, cfg.Subjects)
	require.NotNil(t, cfg.Store.Etcd)
	assert.Equal(t, []string{"etcd-0:2379", "etcd-1:2379"}, cfg.Store.Etcd.Endpoints)
	assert.Nil(t, cfg.Security)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "bad.json", `{"nats_url": "nats://nats:4222"}`)

	var cfg testServiceConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.ErrorIs(t, err, errTestStoreRequired)
}

func TestLoadAndValidateRejectsUnknownSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg testServiceConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "ignored.json", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestEnvLoaderReadsNestedFields(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("NODE_IDENTIFIER_NATS_URL", "nats://env:4222")
	t.Setenv("NODE_IDENTIFIER_MAX_DELIVER", "7")
	t.Setenv("NODE_IDENTIFIER_ACK_WAIT", "45s")
	t.Setenv("NODE_IDENTIFIER_SUBJECTS", "x, y")
	t.Setenv("NODE_IDENTIFIER_STORE_TYPE", "redis")
	t.Setenv("NODE_IDENTIFIER_STORE_REDIS_URL", "redis://env:6379")
	t.Setenv("NODE_IDENTIFIER_STORE_REDIS_WRITE_TIMEOUT", "3s")

	var cfg testServiceConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "nats://env:4222", cfg.NATSURL)
	assert.Equal(t, 7, cfg.MaxDeliver)
	assert.Equal(t, models.Duration(45*time.Second), cfg.AckWait)
	assert.Equal(t, []string{"x", "y"}, cfg.Subjects)
	assert.Equal(t, "redis", cfg.Store.Type)
	require.NotNil(t, cfg.Store.Redis)
	assert.Equal(t, "redis://env:6379", cfg.Store.Redis.URL)
	assert.Equal(t, models.Duration(3*time.Second), cfg.Store.Redis.WriteTimeout)

	assert.Nil(t, cfg.Store.Etcd, "untouched nested pointers stay nil")
	assert.Nil(t, cfg.Security)
}

func TestEnvLoaderPrefersConfigJSON(t *testing.T) {
	doc, err := json.Marshal(map[string]any{
		"nats_url": "nats://json:4222",
		"store":    map[string]any{"type": "memory"},
	})
	require.NoError(t, err)

	t.Setenv("APP_CONFIG_JSON", string(doc))
	t.Setenv("APP_NATS_URL", "nats://ignored:4222")

	var cfg testServiceConfig
	require.NoError(t, NewEnvConfigLoader(nil, "APP_").Load(context.Background(), "", &cfg))

	assert.Equal(t, "nats://json:4222", cfg.NATSURL)
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestEnvLoaderRejectsNonPointer(t *testing.T) {
	var cfg testServiceConfig

	err := NewEnvConfigLoader(nil, "NOPE_").Load(context.Background(), "", cfg)
	require.ErrorIs(t, err, ErrDstMustBeNonNilPointer)
}

func TestKVLoaderReadsByFileName(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	store := &fakeKVStore{values: map[string][]byte{
		"config/node-identifier.json": []byte(`{"nats_url":"nats://kv:4222","store":{"type":"cnpg"}}`),
	}}

	loader := NewConfig(nil)
	loader.SetKVStore(store)

	var cfg testServiceConfig
	require.NoError(t, loader.LoadAndValidate(context.Background(), "/etc/node-identifier/node-identifier.json", &cfg))

	assert.Equal(t, "nats://kv:4222", cfg.NATSURL)
	assert.Equal(t, "cnpg", cfg.Store.Type)
}

func TestKVLoaderFallsBackToFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	path := writeFile(t, "node-identifier.json", `{"nats_url":"nats://file:4222","store":{"type":"memory"}}`)

	loader := NewConfig(nil)
	loader.SetKVStore(&fakeKVStore{})

	var cfg testServiceConfig
	require.NoError(t, loader.LoadAndValidate(context.Background(), path, &cfg))
	assert.Equal(t, "nats://file:4222", cfg.NATSURL)
}

func TestKVSourceRequiresStore(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg testServiceConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "x.json", &cfg)
	require.ErrorIs(t, err, errKVStoreNotSet)
}

func TestEtcdKVStoreFromEnvRequiresEndpoints(t *testing.T) {
	for _, raw := range []string{"", " , "} {
		t.Setenv("CONFIG_ETCD_ENDPOINTS", raw)

		store, err := NewEtcdKVStoreFromEnv()
		require.ErrorIs(t, err, ErrEtcdEndpointsRequired)
		assert.Nil(t, store)
	}
}

func TestKVSourceWithNilEtcdStore(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var store *EtcdKVStore

	loader := NewConfig(nil)
	loader.SetKVStore(store)

	var cfg testServiceConfig
	err := loader.LoadAndValidate(context.Background(), "x.json", &cfg)
	require.ErrorIs(t, err, errKVStoreNotSet)
}

func TestNormalizeTLSPaths(t *testing.T) {
	tls := models.TLSConfig{
		CertFile:     "client.pem",
		KeyFile:      "/keys/client-key.pem",
		CAFile:       "ca.pem",
		ClientCAFile: "clients-ca.pem",
	}

	NormalizeTLSPaths(&tls, "/etc/certs")

	assert.Equal(t, "/etc/certs/client.pem", tls.CertFile)
	assert.Equal(t, "/keys/client-key.pem", tls.KeyFile)
	assert.Equal(t, "/etc/certs/ca.pem", tls.CAFile)
	assert.Equal(t, "/etc/certs/clients-ca.pem", tls.ClientCAFile)
}

func TestClientTLSConfig(t *testing.T) {
	cfg, err := ClientTLSConfig(nil, "", "")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = ClientTLSConfig(&models.TLSConfig{CertFile: "client.pem"}, "", "")
	require.ErrorIs(t, err, ErrTLSFilesRequired)

	_, err = ClientTLSConfig(&models.TLSConfig{
		CertFile: "missing.pem",
		KeyFile:  "missing-key.pem",
		CAFile:   "ca.pem",
	}, t.TempDir(), "")
	require.Error(t, err)
}
