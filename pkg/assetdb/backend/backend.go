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

// Package backend opens the configured mapping store implementation.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/assetdb/cnpg"
	"github.com/carverauto/nodeidentifier/pkg/assetdb/etcdstore"
	"github.com/carverauto/nodeidentifier/pkg/assetdb/redisstore"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

// Type names a mapping store implementation.
type Type string

const (
	TypeMemory Type = "memory"
	TypeCNPG   Type = "cnpg"
	TypeRedis  Type = "redis"
	TypeEtcd   Type = "etcd"
)

// PasswordFileEnv names a mounted secret holding the CNPG password.
const PasswordFileEnv = "CNPG_PASSWORD_FILE"

var (
	ErrUnknownType          = errors.New("unknown store type")
	ErrMissingSection       = errors.New("store config section is required")
	ErrCNPGPasswordRequired = errors.New("CNPG password is required; set it in config or provide " + PasswordFileEnv)
	ErrCNPGPasswordEmpty    = errors.New("CNPG password file is empty")
)

// Config selects a backend and carries the settings for it.
type Config struct {
	Type  Type                 `json:"type" yaml:"type"`
	CNPG  *models.CNPGDatabase `json:"cnpg,omitempty" yaml:"cnpg,omitempty"`
	Redis *models.RedisConfig  `json:"redis,omitempty" yaml:"redis,omitempty"`
	Etcd  *models.EtcdConfig   `json:"etcd,omitempty" yaml:"etcd,omitempty"`
}

// Validate checks that the section for the selected type is present.
// An empty type means memory.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeMemory, "":
		return nil
	case TypeCNPG:
		if c.CNPG == nil {
			return fmt.Errorf("%w: cnpg", ErrMissingSection)
		}
	case TypeRedis:
		if c.Redis == nil {
			return fmt.Errorf("%w: redis", ErrMissingSection)
		}
	case TypeEtcd:
		if c.Etcd == nil || len(c.Etcd.Endpoints) == 0 {
			return fmt.Errorf("%w: etcd.endpoints", ErrMissingSection)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}

	return nil
}

// ApplyPasswordFile fills an unset CNPG password from the file named by CNPG_PASSWORD_FILE.
func (c *Config) ApplyPasswordFile() error {
	if c.Type != TypeCNPG || c.CNPG == nil || c.CNPG.Password != "" {
		return nil
	}

	pwPath := os.Getenv(PasswordFileEnv)
	if pwPath == "" {
		return ErrCNPGPasswordRequired
	}

	data, err := os.ReadFile(pwPath)
	if err != nil {
		return fmt.Errorf("read CNPG password file: %w", err)
	}

	pwd := strings.TrimSpace(string(data))
	if pwd == "" {
		return fmt.Errorf("%w: %s", ErrCNPGPasswordEmpty, pwPath)
	}

	c.CNPG.Password = pwd

	return nil
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (assetdb.MappingStore, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store assetdb.MappingStore
		err   error
	)

	switch cfg.Type {
	case TypeCNPG:
		store, err = cnpg.New(ctx, cfg.CNPG, log)
	case TypeRedis:
		store, err = redisstore.New(ctx, cfg.Redis, log)
	case TypeEtcd:
		store, err = etcdstore.New(ctx, cfg.Etcd, log)
	default:
		store = assetdb.NewMemoryStore()
	}

	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", typeName(cfg.Type), err)
	}

	if log != nil {
		log.Info().Str("store", string(typeName(cfg.Type))).Msg("Asset id mapping store ready")
	}

	return store, nil
}

func typeName(t Type) Type {
	if t == "" {
		return TypeMemory
	}

	return t
}
