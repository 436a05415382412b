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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var errInvalidDuration = errors.New("invalid duration")

// Duration is a time.Duration that decodes from "5s" style strings or nanosecond numbers.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// UnmarshalText lets YAML documents and environment variables carry durations as strings.
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	*d = Duration(dur)

	return nil
}

// CNPGDatabase describes the Postgres (CloudNativePG) cluster holding the asset id mappings.
type CNPGDatabase struct {
	Host               string            `json:"host" yaml:"host"`
	Port               int               `json:"port" yaml:"port"`
	Database           string            `json:"database" yaml:"database"`
	Username           string            `json:"username" yaml:"username"`
	Password           string            `json:"password" yaml:"password"`
	SSLMode            string            `json:"ssl_mode" yaml:"ssl_mode"`
	ApplicationName    string            `json:"application_name" yaml:"application_name"`
	CertDir            string            `json:"cert_dir" yaml:"cert_dir"`
	TLS                *TLSConfig        `json:"tls" yaml:"tls"`
	MaxConnections     int32             `json:"max_connections" yaml:"max_connections"`
	MinConnections     int32             `json:"min_connections" yaml:"min_connections"`
	MaxConnLifetime    Duration          `json:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	HealthCheckPeriod  Duration          `json:"health_check_period" yaml:"health_check_period"`
	StatementTimeout   Duration          `json:"statement_timeout" yaml:"statement_timeout"`
	ExtraRuntimeParams map[string]string `json:"runtime_params" yaml:"runtime_params"`
	Table              string            `json:"table" yaml:"table"`
	AutoCreateSchema   bool              `json:"auto_create_schema" yaml:"auto_create_schema"`
}

// RedisConfig describes the Redis deployment holding the asset id mappings.
type RedisConfig struct {
	URL            string     `json:"url" yaml:"url"`
	KeyPrefix      string     `json:"key_prefix" yaml:"key_prefix"`
	TLS            *TLSConfig `json:"tls" yaml:"tls"`
	ConnectTimeout Duration   `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    Duration   `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   Duration   `json:"write_timeout" yaml:"write_timeout"`
}

// EtcdConfig describes the etcd cluster holding the asset id mappings.
type EtcdConfig struct {
	Endpoints   []string   `json:"endpoints" yaml:"endpoints"`
	Username    string     `json:"username" yaml:"username"`
	Password    string     `json:"password" yaml:"password"`
	Prefix      string     `json:"prefix" yaml:"prefix"`
	DialTimeout Duration   `json:"dial_timeout" yaml:"dial_timeout"`
	TLS         *TLSConfig `json:"tls" yaml:"tls"`
}
