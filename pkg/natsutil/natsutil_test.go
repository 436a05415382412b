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

package natsutil

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

type fakeJetStream struct {
	jetstream.JetStream

	subject string
	data    []byte
	opts    int
	err     error
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.subject = subject
	f.data = data
	f.opts = len(opts)

	return &jetstream.PubAck{Stream: "NODES", Sequence: 1}, nil
}

func TestPublisherPublish(t *testing.T) {
	js := &fakeJetStream{}
	pub := NewPublisher(js)

	require.NoError(t, pub.Publish(context.Background(), "nodes.attributed", "seq-1", []byte(`{}`)))
	assert.Equal(t, "nodes.attributed", js.subject)
	assert.Equal(t, []byte(`{}`), js.data)
	assert.Equal(t, 1, js.opts)
}

func TestPublisherPublishError(t *testing.T) {
	streamErr := errors.New("no responders")
	pub := NewPublisher(&fakeJetStream{err: streamErr})

	err := pub.Publish(context.Background(), "nodes.attributed", "", []byte(`{}`))
	require.ErrorIs(t, err, streamErr)
}

func TestTLSConfigRequiresMTLS(t *testing.T) {
	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.SecurityConfig{Mode: models.SecurityModeNone})
	require.ErrorIs(t, err, ErrMTLSRequired)
}

func TestConnectOptions(t *testing.T) {
	opts, err := ConnectOptions("node-identifier", nil)
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	opts, err = ConnectOptions("node-identifier", &models.SecurityConfig{Mode: models.SecurityModeNone})
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = ConnectOptions("node-identifier", &models.SecurityConfig{
		Mode: models.SecurityModeMTLS,
		TLS:  models.TLSConfig{CertFile: "missing.pem", KeyFile: "missing.key", CAFile: "ca.pem"},
	})
	require.Error(t, err)
}
