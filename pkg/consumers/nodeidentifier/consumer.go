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
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/nodeidentifier/pkg/logger"
)

const (
	defaultMaxPullMessages = 50
	// defaultPullExpiry bounds how long an idle Fetch holds the loop, and so how long Stop waits for it.
	defaultPullExpiry    = 5 * time.Second
	defaultMaxAckPending = 1000
	fetchRetryDelay      = time.Second
)

// ShutdownTimeout is the stop budget for the service. It outlasts an idle fetch
// plus the handling of the batch in flight.
const ShutdownTimeout = 3 * defaultPullExpiry

// MessageProcessor is the per-message handler driven by the consumer.
type MessageProcessor interface {
	Process(ctx context.Context, data []byte, msgID string) (Outcome, error)
	DeadLetter(ctx context.Context, reason string, cause error, data []byte, msgID string) error
}

type pullConsumer interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// Consumer pulls messages from a durable JetStream consumer.
type Consumer struct {
	streamName   string
	consumerName string
	maxDeliver   int
	consumer     pullConsumer
	metrics      *Metrics
	logger       logger.Logger
}

// NewConsumer creates or retrieves the durable pull consumer for the stream.
func NewConsumer(ctx context.Context, js jetstream.JetStream, cfg *Config, metrics *Metrics, log logger.Logger) (*Consumer, error) {
	log.Info().
		Str("stream", cfg.StreamName).
		Str("consumer", cfg.ConsumerName).
		Strs("subjects", cfg.Subjects).
		Msg("Creating/getting pull consumer")

	consumer, err := js.Consumer(ctx, cfg.StreamName, cfg.ConsumerName)
	if err != nil {
		if !errors.Is(err, jetstream.ErrConsumerNotFound) {
			return nil, fmt.Errorf("failed to get consumer: %w", err)
		}

		consumer, err = js.CreateConsumer(ctx, cfg.StreamName, consumerConfig(cfg))
		if err != nil {
			log.Error().Err(err).
				Str("stream", cfg.StreamName).
				Str("consumer", cfg.ConsumerName).
				Msg("Failed to create consumer")

			return nil, fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	return &Consumer{
		streamName:   cfg.StreamName,
		consumerName: cfg.ConsumerName,
		maxDeliver:   cfg.MaxDeliver,
		consumer:     consumer,
		metrics:      metrics,
		logger:       log,
	}, nil
}

func consumerConfig(cfg *Config) jetstream.ConsumerConfig {
	cc := jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       time.Duration(cfg.AckWait),
		MaxDeliver:    cfg.MaxDeliver,
		MaxAckPending: defaultMaxAckPending,
	}

	if len(cfg.Subjects) == 1 {
		cc.FilterSubject = cfg.Subjects[0]
	} else if len(cfg.Subjects) > 1 {
		cc.FilterSubjects = cfg.Subjects
	}

	return cc
}

// ProcessMessages fetches and handles messages until ctx is canceled. It returns an
// error only when the connection or consumer is gone for good.
func (c *Consumer) ProcessMessages(ctx context.Context, processor MessageProcessor) error {
	c.logger.Info().
		Str("stream", c.streamName).
		Str("consumer", c.consumerName).
		Msg("Starting pull consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Stopping message processing due to context cancellation")
			return nil
		default:
		}

		msgs, err := c.consumer.Fetch(defaultMaxPullMessages, jetstream.FetchMaxWait(defaultPullExpiry))
		if err != nil {
			if isFatalFetchError(err) {
				return fmt.Errorf("stopping consumer %s: %w", c.consumerName, err)
			}

			c.logger.Warn().Err(err).Msg("Failed to fetch messages")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}

			continue
		}

		for msg := range msgs.Messages() {
			c.handleMessage(ctx, msg, processor)
		}

		if fetchErr := msgs.Error(); fetchErr != nil && !errors.Is(fetchErr, context.Canceled) {
			c.logger.Debug().Err(fetchErr).Msg("Fetch completed with error")
		}
	}
}

func isFatalFetchError(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, jetstream.ErrConsumerDeleted) ||
		errors.Is(err, jetstream.ErrConsumerNotFound)
}

func (c *Consumer) handleMessage(ctx context.Context, msg jetstream.Msg, processor MessageProcessor) {
	msgID, delivered := messageInfo(msg)

	outcome, err := processor.Process(ctx, msg.Data(), msgID)
	if err == nil {
		c.logger.Debug().
			Str("subject", msg.Subject()).
			Str("outcome", string(outcome)).
			Msg("Message processed")

		c.ack(msg)

		return
	}

	if c.maxDeliver > 0 && delivered >= uint64(c.maxDeliver) {
		if dlErr := processor.DeadLetter(ctx, ReasonMaxDeliver, err, msg.Data(), msgID); dlErr != nil {
			c.logger.Error().Err(dlErr).Str("msg_id", msgID).Msg("Failed to dead-letter message, leaving it to redelivery")

			c.nak(msg)

			return
		}

		c.metrics.observe(OutcomeDeadLettered)
		c.ack(msg)

		return
	}

	c.logger.Warn().Err(err).
		Str("msg_id", msgID).
		Uint64("num_delivered", delivered).
		Msg("Failed to process message, requesting redelivery")

	c.metrics.RedeliveryTotal.Inc()
	c.nak(msg)
}

// messageInfo derives a stable id from the stream sequence so republishes of a
// redelivered message deduplicate.
func messageInfo(msg jetstream.Msg) (string, uint64) {
	meta, err := msg.Metadata()
	if err != nil || meta == nil {
		return "", 0
	}

	return meta.Stream + "-" + strconv.FormatUint(meta.Sequence.Stream, 10), meta.NumDelivered
}

func (c *Consumer) ack(msg jetstream.Msg) {
	if err := msg.Ack(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to ack message")
	}
}

func (c *Consumer) nak(msg jetstream.Msg) {
	if err := msg.Nak(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to nak message")
	}
}
