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

package cnpg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

func TestBuildConnURL_DefaultsSSLModeDisableWithoutTLS(t *testing.T) {
	t.Parallel()

	u, err := buildConnURL(&models.CNPGDatabase{
		Host:            "cnpg-rw",
		Database:        "nodeidentifier",
		Username:        "svc",
		Password:        "s3cret",
		ApplicationName: "node-identifier",
	})
	require.NoError(t, err)

	assert.Equal(t, "cnpg-rw:5432", u.Host)
	assert.Equal(t, "/nodeidentifier", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "node-identifier", u.Query().Get("application_name"))

	password, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "s3cret", password)
}

func TestBuildConnURL_DefaultsSSLModeVerifyFullWithTLS(t *testing.T) {
	t.Parallel()

	u, err := buildConnURL(&models.CNPGDatabase{
		Host:     "cnpg-rw",
		Port:     5433,
		Database: "nodeidentifier",
		TLS: &models.TLSConfig{
			CertFile: "client.crt",
			KeyFile:  "client.key",
			CAFile:   "ca.crt",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "cnpg-rw:5433", u.Host)
	assert.Equal(t, "verify-full", u.Query().Get("sslmode"))
}

func TestBuildConnURL_RejectsTLSWithSSLModeDisable(t *testing.T) {
	t.Parallel()

	_, err := buildConnURL(&models.CNPGDatabase{
		Host:    "cnpg-rw",
		SSLMode: "disable",
		TLS: &models.TLSConfig{
			CertFile: "client.crt",
			KeyFile:  "client.key",
			CAFile:   "ca.crt",
		},
	})
	require.ErrorIs(t, err, ErrTLSDisabled)
}

func TestBuildConnURL_TLSPathsResolveViaCertDir(t *testing.T) {
	t.Parallel()

	u, err := buildConnURL(&models.CNPGDatabase{
		Host:    "cnpg-rw",
		CertDir: "/etc/nodeidentifier/cnpg",
		TLS: &models.TLSConfig{
			CertFile: "client.crt",
			KeyFile:  "/abs/client.key",
			CAFile:   "ca.crt",
		},
	})
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "/etc/nodeidentifier/cnpg/client.crt", q.Get("sslcert"))
	assert.Equal(t, "/abs/client.key", q.Get("sslkey"))
	assert.Equal(t, "/etc/nodeidentifier/cnpg/ca.crt", q.Get("sslrootcert"))
}

func TestResolveSSLMode_UsesRuntimeParamsFallback(t *testing.T) {
	t.Parallel()

	got, err := resolveSSLMode(&models.CNPGDatabase{
		ExtraRuntimeParams: map[string]string{"sslmode": "Verify-CA"},
	})
	require.NoError(t, err)
	assert.Equal(t, "verify-ca", got)
}

func TestResolveSSLMode_RejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := resolveSSLMode(&models.CNPGDatabase{SSLMode: "sometimes"})
	require.ErrorIs(t, err, ErrInvalidSSLMode)
}

func TestBuildTLSConfig(t *testing.T) {
	t.Parallel()

	cfg, err := buildTLSConfig(&models.CNPGDatabase{})
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = buildTLSConfig(&models.CNPGDatabase{TLS: &models.TLSConfig{CertFile: "client.crt"}})
	require.ErrorIs(t, err, errTLSFilesMissing)
}

func TestNewPoolRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewPool(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, errConfigRequired))
}
