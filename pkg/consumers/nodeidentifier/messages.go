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
	"encoding/json"
	"time"

	"github.com/carverauto/nodeidentifier/pkg/models"
)

// MessageKind discriminates inbound envelopes.
type MessageKind string

const (
	KindNode         MessageKind = "node"
	KindAssetMapping MessageKind = "asset_mapping"
)

// Reasons attached to records routed to the unattributed subject.
const (
	ReasonUnattributable = "unattributable"
	ReasonUnresolved     = "unresolved"
	ReasonInvalidMessage = "invalid_message"
	ReasonMaxDeliver     = "max_deliver_exceeded"
)

// Envelope is one inbound message.
type Envelope struct {
	Kind    MessageKind              `json:"kind"`
	Node    *models.NodeDescription  `json:"node,omitempty"`
	Mapping *AssetMappingObservation `json:"asset_mapping,omitempty"`
}

// AssetMappingObservation reports that a host was seen as an asset at a timestamp,
// for example from an asset inventory or an agent registration.
type AssetMappingObservation struct {
	Hostname  string `json:"hostname,omitempty"`
	HostIP    string `json:"host_ip,omitempty"`
	AssetID   string `json:"asset_id"`
	Timestamp uint64 `json:"timestamp"`
}

// HostID picks the observed host identity, hostname first.
func (o *AssetMappingObservation) HostID() (models.HostID, error) {
	return models.NewHostID("", o.Hostname, o.HostIP)
}

// UnattributedRecord is published for inbound messages that produced no attributed record.
// Payloads that are not valid JSON are carried base64 encoded in RawPayload.
type UnattributedRecord struct {
	Reason     string          `json:"reason"`
	Error      string          `json:"error,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RawPayload []byte          `json:"raw_payload,omitempty"`
	RejectedAt time.Time       `json:"rejected_at"`
}

func newUnattributedRecord(reason string, cause error, data []byte, now time.Time) UnattributedRecord {
	rec := UnattributedRecord{Reason: reason, RejectedAt: now.UTC()}

	if cause != nil {
		rec.Error = cause.Error()
	}

	if json.Valid(data) {
		rec.Payload = json.RawMessage(data)
	} else {
		rec.RawPayload = data
	}

	return rec
}
