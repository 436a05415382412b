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

package nodeidentifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/assetdb/backend"
	"github.com/carverauto/nodeidentifier/pkg/identity"
	"github.com/carverauto/nodeidentifier/pkg/lifecycle"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/natsutil"
)

const (
	clientName        = "node-identifier"
	readHeaderTimeout = 5 * time.Second
)

var errAlreadyStarted = errors.New("service already started")

// Service implements lifecycle.Service for the node identifier.
type Service struct {
	cfg      *Config
	logger   logger.Logger
	registry *prometheus.Registry
	metrics  *Metrics

	nc     *nats.Conn
	store  assetdb.MappingStore
	server *http.Server
	wg     sync.WaitGroup
	ready  atomic.Bool
}

// NewService validates cfg and prepares the service.
func NewService(cfg *Config, log logger.Logger) (*Service, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Service{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		metrics:  NewMetrics(reg),
	}, nil
}

// Start opens the mapping store, connects to NATS and begins processing messages.
func (s *Service) Start(ctx context.Context) error {
	if s.nc != nil {
		return errAlreadyStarted
	}

	store, err := backend.Open(ctx, &s.cfg.Store, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open mapping store: %w", err)
	}

	opts, err := natsutil.ConnectOptions(clientName, s.cfg.Security)
	if err != nil {
		_ = store.Close()

		return fmt.Errorf("failed to build NATS options: %w", err)
	}

	nc, err := nats.Connect(s.cfg.NATSURL, opts...)
	if err != nil {
		_ = store.Close()

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	consumer, err := setupConsumer(ctx, nc, s.cfg, s.metrics, s.logger)
	if err != nil {
		nc.Close()
		_ = store.Close()

		return err
	}

	s.nc = nc
	s.store = store

	assetDB := assetdb.NewAssetIDDB(store, s.logger)
	processor := NewProcessor(
		identity.NewAssetIdentifier(assetDB, s.logger),
		assetDB,
		natsutil.NewPublisher(consumer.js),
		s.cfg,
		s.metrics,
		s.logger,
	)

	s.ready.Store(true)
	s.startHTTP()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := consumer.ProcessMessages(ctx, processor); err != nil {
			s.ready.Store(false)
			s.logger.Error().Err(err).Msg("Consumer stopped")
		}
	}()

	s.logger.Info().
		Str("stream_name", s.cfg.StreamName).
		Str("consumer_name", s.cfg.ConsumerName).
		Str("store", string(s.cfg.Store.Type)).
		Msg("Node identifier started")

	return nil
}

type boundConsumer struct {
	*Consumer
	js jetstream.JetStream
}

func setupConsumer(ctx context.Context, nc *nats.Conn, cfg *Config, metrics *Metrics, log logger.Logger) (*boundConsumer, error) {
	js, err := natsutil.NewJetStream(nc, cfg.Domain)
	if err != nil {
		return nil, fmt.Errorf("failed to open JetStream: %w", err)
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: cfg.Subjects,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get stream %s: %w", cfg.StreamName, err)
	}

	if _, err = stream.Info(ctx); err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	consumer, err := NewConsumer(ctx, js, cfg, metrics, log)
	if err != nil {
		return nil, err
	}

	return &boundConsumer{Consumer: consumer, js: js}, nil
}

// Handler serves /metrics, /healthz and /readyz.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready.Load() || s.nc == nil || !s.nc.IsConnected() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	return mux
}

func (s *Service) startHTTP() {
	if s.cfg.MetricsAddr == "" {
		return
	}

	s.server = &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		s.logger.Info().Str("addr", s.cfg.MetricsAddr).Msg("Serving metrics")

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

// Stop waits for the consumer loop to exit, then releases NATS and the store.
// The loop exits when the context passed to Start is canceled.
func (s *Service) Stop(ctx context.Context) error {
	s.ready.Store(false)

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	var errs []error

	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("timed out waiting for consumer: %w", ctx.Err()))
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.nc.Close()
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close mapping store: %w", err))
		}
	}

	s.logger.Info().Msg("Node identifier stopped")

	return errors.Join(errs...)
}

var _ lifecycle.Service = (*Service)(nil)
