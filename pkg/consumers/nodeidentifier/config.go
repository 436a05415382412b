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

// Package nodeidentifier runs the asset attribution service: it consumes event records
// and host to asset observations from JetStream, attributes records to assets and
// republishes them.
package nodeidentifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/carverauto/nodeidentifier/pkg/assetdb/backend"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

const (
	defaultConsumerName = "node-identifier"
	defaultMaxDeliver   = 5
	defaultAckWait      = 30 * time.Second
)

var (
	ErrMissingNATSURL             = errors.New("nats_url is required")
	ErrMissingStreamName          = errors.New("stream_name is required")
	ErrMissingOutputSubject       = errors.New("output_subject is required")
	ErrMissingUnattributedSubject = errors.New("unattributed_subject is required")
	ErrInvalidMaxDeliver          = errors.New("max_deliver must not be negative")
	ErrSubjectOverlap             = errors.New("publish subject overlaps consumed subjects")
)

// Config configures the node identifier service.
type Config struct {
	NATSURL      string   `json:"nats_url" yaml:"nats_url"`
	StreamName   string   `json:"stream_name" yaml:"stream_name"`
	ConsumerName string   `json:"consumer_name" yaml:"consumer_name"`
	Subjects     []string `json:"subjects" yaml:"subjects"`
	Domain       string   `json:"domain" yaml:"domain"`
	// OutputSubject receives records with their asset id set.
	OutputSubject string `json:"output_subject" yaml:"output_subject"`
	// UnattributedSubject receives records that could not be attributed, with the reason.
	UnattributedSubject string                 `json:"unattributed_subject" yaml:"unattributed_subject"`
	MaxDeliver          int                    `json:"max_deliver" yaml:"max_deliver"`
	AckWait             models.Duration        `json:"ack_wait" yaml:"ack_wait"`
	MetricsAddr         string                 `json:"metrics_addr" yaml:"metrics_addr"`
	Security            *models.SecurityConfig `json:"security" yaml:"security"`
	Store               backend.Config         `json:"store" yaml:"store"`
	Logging             *logger.Config         `json:"logging" yaml:"logging"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.ConsumerName == "" {
		c.ConsumerName = defaultConsumerName
	}

	if c.MaxDeliver == 0 {
		c.MaxDeliver = defaultMaxDeliver
	}

	if c.AckWait <= 0 {
		c.AckWait = models.Duration(defaultAckWait)
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.NATSURL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.StreamName == "" {
		errs = append(errs, ErrMissingStreamName)
	}

	if c.OutputSubject == "" {
		errs = append(errs, ErrMissingOutputSubject)
	}

	if c.UnattributedSubject == "" {
		errs = append(errs, ErrMissingUnattributedSubject)
	}

	if c.MaxDeliver < 0 {
		errs = append(errs, ErrInvalidMaxDeliver)
	}

	errs = append(errs, c.validateSubjects()...)

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateSubjects rejects publish subjects the service would consume again.
func (c *Config) validateSubjects() []error {
	var errs []error

	for _, out := range []struct{ field, subject string }{
		{"output_subject", c.OutputSubject},
		{"unattributed_subject", c.UnattributedSubject},
	} {
		if out.subject == "" {
			continue
		}

		for _, in := range c.Subjects {
			if server.SubjectsCollide(out.subject, in) {
				errs = append(errs, fmt.Errorf("%w: %s %q matches %q", ErrSubjectOverlap, out.field, out.subject, in))
			}
		}
	}

	return errs
}
