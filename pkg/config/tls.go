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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

var (
	// ErrTLSFilesRequired is returned when a client TLS config lacks its PEM files.
	ErrTLSFilesRequired = errors.New("tls: cert_file, key_file, and ca_file are required")
	// ErrCAParsingFailed is returned when a CA bundle holds no usable certificate.
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
)

func (c *Config) normalizeTLSPaths(tls *models.TLSConfig, certDir string) {
	NormalizeTLSPaths(tls, certDir)

	if c.logger != nil {
		c.logger.Debug().
			Str("cert_file", tls.CertFile).
			Str("key_file", tls.KeyFile).
			Str("ca_file", tls.CAFile).
			Str("client_ca_file", tls.ClientCAFile).
			Msg("Normalized TLS paths")
	}
}

// NormalizeTLSPaths joins relative TLS file paths onto certDir.
// An unset client CA falls back to the CA file.
func NormalizeTLSPaths(tls *models.TLSConfig, certDir string) {
	join := func(path string) string {
		if path == "" || filepath.IsAbs(path) || certDir == "" {
			return path
		}

		return filepath.Join(certDir, path)
	}

	tls.CertFile = join(tls.CertFile)
	tls.KeyFile = join(tls.KeyFile)
	tls.CAFile = join(tls.CAFile)

	if tls.ClientCAFile == "" {
		tls.ClientCAFile = tls.CAFile
	} else {
		tls.ClientCAFile = join(tls.ClientCAFile)
	}
}

// ClientTLSConfig builds a mutual TLS client config from PEM files. A nil cfg yields nil.
func ClientTLSConfig(cfg *models.TLSConfig, certDir, serverName string) (*tls.Config, error) {
	if cfg == nil {
		return nil, nil
	}

	paths := *cfg
	NormalizeTLSPaths(&paths, certDir)

	if paths.CertFile == "" || paths.KeyFile == "" || paths.CAFile == "" {
		return nil, ErrTLSFilesRequired
	}

	cert, err := tls.LoadX509KeyPair(paths.CertFile, paths.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caCert, err := os.ReadFile(paths.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, ErrCAParsingFailed
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
