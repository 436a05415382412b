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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the service.
type Metrics struct {
	MessagesTotal   *prometheus.CounterVec
	FailuresTotal   prometheus.Counter
	RedeliveryTotal prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "node_identifier_messages_total",
			Help: "Inbound messages by processing outcome",
		}, []string{"outcome"}),
		FailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "node_identifier_failures_total",
			Help: "Messages that failed with a retryable error",
		}),
		RedeliveryTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "node_identifier_redeliveries_total",
			Help: "Messages handed back to JetStream for redelivery",
		}),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "node_identifier_publish_errors_total",
			Help: "Failed publishes to the output or unattributed subjects",
		}),
	}
}

func (m *Metrics) observe(outcome Outcome) {
	m.MessagesTotal.WithLabelValues(string(outcome)).Inc()
}
