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

// Package cnpg stores asset id mappings in a Postgres (CloudNativePG) table.
package cnpg

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

const defaultPort = 5432

var (
	// ErrTLSDisabled is returned when TLS material is configured alongside sslmode=disable.
	ErrTLSDisabled = errors.New("cnpg: tls configured but sslmode is disable")
	// ErrInvalidSSLMode is returned for sslmode values libpq does not know.
	ErrInvalidSSLMode = errors.New("cnpg: invalid sslmode")

	errConfigRequired  = errors.New("cnpg: database config is required")
	errTLSFilesMissing = errors.New("cnpg tls: cert_file, key_file, and ca_file are required")
	errCAAppend        = errors.New("cnpg tls: unable to append CA certificate")
)

var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// NewPool dials the configured CNPG cluster and returns a pgx pool.
func NewPool(ctx context.Context, cfg *models.CNPGDatabase, log logger.Logger) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	connURL, err := buildConnURL(cfg)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		return nil, fmt.Errorf("cnpg: failed to parse connection string: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}

	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}

	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime)
	}

	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod)
	}

	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}

	for k, v := range cfg.ExtraRuntimeParams {
		if k == "" || strings.EqualFold(k, "sslmode") {
			continue
		}

		poolConfig.ConnConfig.RuntimeParams[k] = v
	}

	if cfg.StatementTimeout > 0 {
		timeout := time.Duration(cfg.StatementTimeout) / time.Millisecond
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", timeout)
	}

	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	if tlsConfig != nil {
		poolConfig.ConnConfig.TLSConfig = tlsConfig
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("cnpg: failed to initialize pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("cnpg: failed to reach cluster: %w", err)
	}

	if log != nil {
		log.Info().
			Str("host", cfg.Host).
			Int("port", portOrDefault(cfg.Port)).
			Int32("max_conns", poolConfig.MaxConns).
			Msg("connected to CNPG cluster")
	}

	return pool, nil
}

func portOrDefault(port int) int {
	if port == 0 {
		return defaultPort
	}

	return port
}

func buildConnURL(cfg *models.CNPGDatabase) (*url.URL, error) {
	connURL := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, portOrDefault(cfg.Port)),
		Path:   "/" + cfg.Database,
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			connURL.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			connURL.User = url.User(cfg.Username)
		}
	}

	sslMode, err := resolveSSLMode(cfg)
	if err != nil {
		return nil, err
	}

	query := connURL.Query()
	query.Set("sslmode", sslMode)

	if cfg.ApplicationName != "" {
		query.Set("application_name", cfg.ApplicationName)
	}

	if cfg.TLS != nil {
		if cfg.TLS.CertFile != "" {
			query.Set("sslcert", resolveCertPath(cfg.CertDir, cfg.TLS.CertFile))
		}

		if cfg.TLS.KeyFile != "" {
			query.Set("sslkey", resolveCertPath(cfg.CertDir, cfg.TLS.KeyFile))
		}

		if cfg.TLS.CAFile != "" {
			query.Set("sslrootcert", resolveCertPath(cfg.CertDir, cfg.TLS.CAFile))
		}
	}

	connURL.RawQuery = query.Encode()

	return connURL, nil
}

// resolveSSLMode picks sslmode from the explicit setting, then runtime params,
// then defaults to verify-full with TLS material and disable without.
func resolveSSLMode(cfg *models.CNPGDatabase) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.SSLMode))

	if mode == "" {
		for k, v := range cfg.ExtraRuntimeParams {
			if strings.EqualFold(k, "sslmode") {
				mode = strings.ToLower(strings.TrimSpace(v))
				break
			}
		}
	}

	if mode == "" {
		if cfg.TLS != nil {
			return "verify-full", nil
		}

		return "disable", nil
	}

	if _, ok := validSSLModes[mode]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSSLMode, mode)
	}

	if mode == "disable" && cfg.TLS != nil {
		return "", ErrTLSDisabled
	}

	return mode, nil
}

func resolveCertPath(certDir, path string) string {
	if path == "" || filepath.IsAbs(path) || certDir == "" {
		return path
	}

	return filepath.Join(certDir, path)
}

func buildTLSConfig(cfg *models.CNPGDatabase) (*tls.Config, error) {
	if cfg == nil || cfg.TLS == nil {
		return nil, nil
	}

	certFile := resolveCertPath(cfg.CertDir, cfg.TLS.CertFile)
	keyFile := resolveCertPath(cfg.CertDir, cfg.TLS.KeyFile)
	caFile := resolveCertPath(cfg.CertDir, cfg.TLS.CAFile)

	if certFile == "" || keyFile == "" || caFile == "" {
		return nil, errTLSFilesMissing
	}

	clientCert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("cnpg tls: failed to load client keypair: %w", err)
	}

	caBytes, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("cnpg tls: failed to read CA file: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caBytes) {
		return nil, errCAAppend
	}

	return &tls.Config{
		Certificates: []tls.Certificate{clientCert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
		ServerName:   cfg.Host,
	}, nil
}
