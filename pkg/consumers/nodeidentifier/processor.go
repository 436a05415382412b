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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/identity"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrUnmarshal      = errors.New("failed to unmarshal message")
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrMissingPayload = errors.New("message has no payload for its kind")
)

// Outcome is the terminal result of processing one message.
type Outcome string

const (
	OutcomeAttributed     Outcome = "attributed"
	OutcomeUnattributable Outcome = "unattributable"
	OutcomeUnresolved     Outcome = "unresolved"
	OutcomeMappingCreated Outcome = "mapping_created"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeDeadLettered   Outcome = "dead_lettered"
)

// Publisher sends a payload to a subject. msgID deduplicates republishes.
type Publisher interface {
	Publish(ctx context.Context, subject, msgID string, payload []byte) error
}

// Attributor resolves a record's asset id and stores it on the record.
type Attributor interface {
	Attribute(ctx context.Context, node models.NodeDescription) (string, error)
}

// MappingWriter records host to asset bindings.
type MappingWriter interface {
	CreateMapping(ctx context.Context, hostID models.HostID, assetID string, ts uint64) error
}

// Processor handles one inbound message. A returned error means the message
// should be redelivered; every other result is terminal.
type Processor struct {
	attributor          Attributor
	mappings            MappingWriter
	publisher           Publisher
	outputSubject       string
	unattributedSubject string
	metrics             *Metrics
	logger              logger.Logger
	now                 func() time.Time
}

// NewProcessor wires a processor.
func NewProcessor(
	attributor Attributor,
	mappings MappingWriter,
	publisher Publisher,
	cfg *Config,
	metrics *Metrics,
	log logger.Logger) *Processor {
	return &Processor{
		attributor:          attributor,
		mappings:            mappings,
		publisher:           publisher,
		outputSubject:       cfg.OutputSubject,
		unattributedSubject: cfg.UnattributedSubject,
		metrics:             metrics,
		logger:              log,
		now:                 time.Now,
	}
}

// Process decodes and handles one message.
func (p *Processor) Process(ctx context.Context, data []byte, msgID string) (Outcome, error) {
	outcome, err := p.process(ctx, data, msgID)
	if err != nil {
		p.metrics.FailuresTotal.Inc()

		return outcome, err
	}

	p.metrics.observe(outcome)

	return outcome, nil
}

func (p *Processor) process(ctx context.Context, data []byte, msgID string) (Outcome, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return p.reject(ctx, OutcomeInvalid, ReasonInvalidMessage, err, data, msgID)
	}

	switch env.Kind {
	case KindNode:
		return p.processNode(ctx, env.Node, data, msgID)
	case KindAssetMapping:
		return p.processMapping(ctx, env.Mapping, data, msgID)
	default:
		return p.reject(ctx, OutcomeInvalid, ReasonInvalidMessage, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind), data, msgID)
	}
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}

	switch {
	case env.Kind == KindNode && env.Node == nil,
		env.Kind == KindAssetMapping && env.Mapping == nil:
		return nil, fmt.Errorf("%w: %s", ErrMissingPayload, env.Kind)
	}

	return &env, nil
}

func (p *Processor) processNode(ctx context.Context, node *models.NodeDescription, data []byte, msgID string) (Outcome, error) {
	assetID, err := p.attributor.Attribute(ctx, *node)

	switch {
	case err == nil:
	case errors.Is(err, models.ErrUnattributableIdentity), errors.Is(err, identity.ErrUnsupportedNode):
		return p.reject(ctx, OutcomeUnattributable, ReasonUnattributable, err, data, msgID)
	case errors.Is(err, identity.ErrIdentityUnresolved):
		return p.reject(ctx, OutcomeUnresolved, ReasonUnresolved, err, data, msgID)
	default:
		p.logger.Warn().Err(err).Str("kind", string(node.Kind())).Msg("Asset attribution failed, will retry")

		return "", err
	}

	payload, err := json.Marshal(node)
	if err != nil {
		return p.reject(ctx, OutcomeInvalid, ReasonInvalidMessage, err, data, msgID)
	}

	if err := p.publish(ctx, p.outputSubject, msgID, payload); err != nil {
		return "", err
	}

	p.logger.Debug().
		Str("kind", string(node.Kind())).
		Str("asset_id", assetID).
		Msg("Attributed record")

	return OutcomeAttributed, nil
}

func (p *Processor) processMapping(ctx context.Context, obs *AssetMappingObservation, data []byte, msgID string) (Outcome, error) {
	hostID, err := obs.HostID()
	if err != nil {
		return p.reject(ctx, OutcomeInvalid, ReasonInvalidMessage, err, data, msgID)
	}

	err = p.mappings.CreateMapping(ctx, hostID, obs.AssetID, obs.Timestamp)

	switch {
	case err == nil:
		return OutcomeMappingCreated, nil
	case errors.Is(err, assetdb.ErrEmptyAssetID), errors.Is(err, assetdb.ErrInvalidHostID):
		return p.reject(ctx, OutcomeInvalid, ReasonInvalidMessage, err, data, msgID)
	default:
		p.logger.Warn().Err(err).Str("host_id", hostID.String()).Msg("Failed to record asset mapping, will retry")

		return "", err
	}
}

// reject routes data to the unattributed subject. The outcome only stands once the publish succeeds.
func (p *Processor) reject(ctx context.Context, outcome Outcome, reason string, cause error, data []byte, msgID string) (Outcome, error) {
	if err := p.DeadLetter(ctx, reason, cause, data, msgID); err != nil {
		return "", err
	}

	return outcome, nil
}

// DeadLetter publishes data with the rejection reason to the unattributed subject.
func (p *Processor) DeadLetter(ctx context.Context, reason string, cause error, data []byte, msgID string) error {
	payload, err := json.Marshal(newUnattributedRecord(reason, cause, data, p.now()))
	if err != nil {
		return fmt.Errorf("failed to encode unattributed record: %w", err)
	}

	if msgID != "" {
		msgID += "-unattributed"
	}

	if err := p.publish(ctx, p.unattributedSubject, msgID, payload); err != nil {
		return err
	}

	p.logger.Info().Str("reason", reason).AnErr("cause", cause).Msg("Routed message to unattributed subject")

	return nil
}

func (p *Processor) publish(ctx context.Context, subject, msgID string, payload []byte) error {
	if err := p.publisher.Publish(ctx, subject, msgID, payload); err != nil {
		p.metrics.PublishErrors.Inc()

		return err
	}

	return nil
}
