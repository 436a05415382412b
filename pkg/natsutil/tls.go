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

// Package natsutil holds NATS connection and JetStream publishing helpers.
package natsutil

import (
	"crypto/tls"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/nodeidentifier/pkg/config"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

var (
	// ErrMTLSRequired is returned when mTLS mode is not configured
	ErrMTLSRequired = errors.New("mTLS configuration required")
)

// TLSConfig builds a tls.Config for connecting to NATS using mTLS.
func TLSConfig(sec *models.SecurityConfig) (*tls.Config, error) {
	if sec == nil || sec.Mode != models.SecurityModeMTLS {
		return nil, ErrMTLSRequired
	}

	tlsConf, err := config.ClientTLSConfig(&sec.TLS, sec.CertDir, sec.ServerName)
	if err != nil {
		return nil, err
	}

	tlsConf.MinVersion = tls.VersionTLS13

	return tlsConf, nil
}

// ConnectOptions returns the nats options for a named client with optional mTLS.
func ConnectOptions(name string, sec *models.SecurityConfig) ([]nats.Option, error) {
	opts := []nats.Option{nats.Name(name)}

	if sec == nil || sec.Mode == "" || sec.Mode == models.SecurityModeNone {
		return opts, nil
	}

	tlsConf, err := TLSConfig(sec)
	if err != nil {
		return nil, err
	}

	return append(opts, nats.Secure(tlsConf)), nil
}
