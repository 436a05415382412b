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

// Package config loads service configuration from files, environment variables or etcd.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

var (
	errKVStoreNotSet       = errors.New("KV store not initialized for CONFIG_SOURCE=kv; call SetKVStore first")
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errLoadConfigFailed    = errors.New("failed to load configuration")
	errInvalidConfigPtr    = errors.New("config must be a non-nil pointer")
)

const (
	configSourceKV   = "kv"
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix prefixes every variable read when CONFIG_SOURCE=env.
	DefaultEnvPrefix = "NODE_IDENTIFIER_"
)

// Config holds the configuration loading dependencies.
type Config struct {
	kvStore       KVStore
	defaultLoader ConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a default file loader and logger.
// If logger is nil, a warn-level stderr logger is used.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = createBasicLogger()
	}

	return &Config{
		defaultLoader: &FileConfigLoader{},
		logger:        log,
	}
}

func createBasicLogger() logger.Logger {
	return logger.NewWithWriter(os.Stderr, zerolog.WarnLevel)
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads a configuration, normalizes SecurityConfig paths if present, and validates it.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if err := c.loadWithSource(ctx, path, cfg); err != nil {
		return err
	}

	if err := c.normalizeSecurityConfig(cfg); err != nil {
		return fmt.Errorf("failed to normalize SecurityConfig: %w", err)
	}

	return ValidateConfig(cfg)
}

// SetKVStore sets the KV store to be used when CONFIG_SOURCE=kv.
// A nil *EtcdKVStore leaves the loader without a store.
func (c *Config) SetKVStore(store KVStore) {
	if etcd, ok := store.(*EtcdKVStore); ok && etcd == nil {
		c.kvStore = nil

		return
	}

	c.kvStore = store
}

func (c *Config) loadWithSource(ctx context.Context, path string, cfg interface{}) error {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	var loader ConfigLoader

	switch source {
	case configSourceKV:
		if c.kvStore == nil {
			return errKVStoreNotSet
		}

		loader = NewKVConfigLoader(c.kvStore)
	case configSourceEnv:
		prefix := os.Getenv("CONFIG_ENV_PREFIX")
		if prefix == "" {
			prefix = DefaultEnvPrefix
		}

		loader = NewEnvConfigLoader(c.logger, prefix)
	case configSourceFile, "":
		loader = c.defaultLoader
	default:
		return fmt.Errorf("%w: %s (expected '%s', '%s', or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceKV, configSourceEnv)
	}

	kvErr := loader.Load(ctx, path, cfg)
	if kvErr == nil {
		return nil
	}

	if source != configSourceKV {
		return kvErr
	}

	c.logger.Warn().Err(kvErr).Str("path", path).Msg("KV config load failed, falling back to file")

	if err := c.defaultLoader.Load(ctx, path, cfg); err != nil {
		return fmt.Errorf("%w from KV: %w, and from fallback file: %w", errLoadConfigFailed, kvErr, err)
	}

	return nil
}

// normalizeSecurityConfig resolves TLS paths of every *models.SecurityConfig field against its cert dir.
func (c *Config) normalizeSecurityConfig(cfg interface{}) error {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errInvalidConfigPtr
	}

	v = v.Elem()

	if v.Kind() != reflect.Struct {
		return nil
	}

	securityType := reflect.TypeOf((*models.SecurityConfig)(nil))
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if t.Field(i).Type != securityType || field.IsNil() {
			continue
		}

		sec := field.Interface().(*models.SecurityConfig)
		if sec.Mode != models.SecurityModeMTLS {
			continue
		}

		c.normalizeTLSPaths(&sec.TLS, sec.CertDir)
	}

	return nil
}
