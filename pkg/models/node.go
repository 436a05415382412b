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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errNodeMissing      = errors.New("node description has no node")
	errUnknownNodeKind  = errors.New("unknown node type")
	errNodePayloadEmpty = errors.New("node payload is empty")
)

// NodeKind discriminates the event record variants.
type NodeKind string

const (
	NodeKindProcess            NodeKind = "process"
	NodeKindFile               NodeKind = "file"
	NodeKindOutboundConnection NodeKind = "outbound_connection"
	NodeKindDynamic            NodeKind = "dynamic"
	NodeKindIPAddress          NodeKind = "ip_address"
)

// Node is implemented by every event record variant.
type Node interface {
	Kind() NodeKind
	Timestamp() uint64
}

// HostIdentified is implemented by records that describe activity on a host.
type HostIdentified interface {
	IdentityFields() HostFields
	SetAssetID(assetID string)
}

// HostFields holds the candidate host identity fields of a record. Empty means absent.
type HostFields struct {
	AssetID  string `json:"asset_id,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	HostIP   string `json:"host_ip,omitempty"`
}

// IdentityFields returns the candidate identity fields.
func (h *HostFields) IdentityFields() HostFields {
	return *h
}

// SetAssetID stores the resolved asset id on the record.
func (h *HostFields) SetAssetID(assetID string) {
	h.AssetID = assetID
}

// LifecycleState describes which observation a record's timestamp refers to.
type LifecycleState string

const (
	StateCreated    LifecycleState = "created"
	StateTerminated LifecycleState = "terminated"
	StateExisting   LifecycleState = "existing"
)

// Lifecycle carries the created/terminated/last-seen timestamps shared by process,
// file and connection records.
type Lifecycle struct {
	State               LifecycleState `json:"state"`
	CreatedTimestamp    uint64         `json:"created_timestamp,omitempty"`
	TerminatedTimestamp uint64         `json:"terminated_timestamp,omitempty"`
	LastSeenTimestamp   uint64         `json:"last_seen_timestamp,omitempty"`
}

// Timestamp returns the timestamp matching the record's state.
func (l *Lifecycle) Timestamp() uint64 {
	switch l.State {
	case StateCreated:
		return l.CreatedTimestamp
	case StateTerminated:
		return l.TerminatedTimestamp
	case StateExisting:
		return l.LastSeenTimestamp
	default:
		return l.LastSeenTimestamp
	}
}

// ProcessNode describes process activity on a host.
type ProcessNode struct {
	HostFields
	Lifecycle
	NodeKey            string `json:"node_key,omitempty"`
	ProcessID          uint64 `json:"process_id"`
	ProcessName        string `json:"process_name,omitempty"`
	ProcessCommandLine string `json:"process_command_line,omitempty"`
	ImagePath          string `json:"image_path,omitempty"`
}

func (*ProcessNode) Kind() NodeKind { return NodeKindProcess }

// FileNode describes file activity on a host.
type FileNode struct {
	HostFields
	Lifecycle
	NodeKey  string `json:"node_key,omitempty"`
	FilePath string `json:"file_path"`
	FileHash string `json:"file_hash,omitempty"`
}

func (*FileNode) Kind() NodeKind { return NodeKindFile }

// OutboundConnectionNode describes an outbound connection made from a host.
type OutboundConnectionNode struct {
	HostFields
	Lifecycle
	NodeKey  string `json:"node_key,omitempty"`
	Port     uint32 `json:"port"`
	Protocol string `json:"protocol,omitempty"`
}

func (*OutboundConnectionNode) Kind() NodeKind { return NodeKindOutboundConnection }

// DynamicNode is a generic record whose properties are not modelled.
type DynamicNode struct {
	HostFields
	NodeKey    string            `json:"node_key,omitempty"`
	NodeType   string            `json:"node_type"`
	SeenAt     uint64            `json:"seen_at"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (*DynamicNode) Kind() NodeKind { return NodeKindDynamic }

func (n *DynamicNode) Timestamp() uint64 { return n.SeenAt }

// IPAddressNode describes an IP address entity. It has no host to attribute.
type IPAddressNode struct {
	NodeKey   string `json:"node_key,omitempty"`
	IPAddress string `json:"ip_address"`
	SeenAt    uint64 `json:"timestamp"`
}

func (*IPAddressNode) Kind() NodeKind { return NodeKindIPAddress }

func (n *IPAddressNode) Timestamp() uint64 { return n.SeenAt }

// NodeDescription wraps one event record. On the wire it is {"type": ..., "node": {...}}.
type NodeDescription struct {
	Node Node
}

type nodeEnvelope struct {
	Type NodeKind        `json:"type"`
	Node json.RawMessage `json:"node"`
}

// Kind returns the kind of the wrapped node.
func (d NodeDescription) Kind() NodeKind {
	if d.Node == nil {
		return ""
	}

	return d.Node.Kind()
}

// Timestamp returns the observation timestamp of the wrapped node.
func (d NodeDescription) Timestamp() uint64 {
	if d.Node == nil {
		return 0
	}

	return d.Node.Timestamp()
}

func (d NodeDescription) MarshalJSON() ([]byte, error) {
	if d.Node == nil {
		return nil, errNodeMissing
	}

	raw, err := json.Marshal(d.Node)
	if err != nil {
		return nil, err
	}

	return json.Marshal(nodeEnvelope{Type: d.Node.Kind(), Node: raw})
}

func (d *NodeDescription) UnmarshalJSON(data []byte) error {
	var env nodeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	if len(env.Node) == 0 || string(env.Node) == "null" {
		return errNodePayloadEmpty
	}

	node, err := newNode(env.Type)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(env.Node, node); err != nil {
		return fmt.Errorf("failed to decode %s node: %w", env.Type, err)
	}

	d.Node = node

	return nil
}

func newNode(kind NodeKind) (Node, error) {
	switch kind {
	case NodeKindProcess:
		return &ProcessNode{}, nil
	case NodeKindFile:
		return &FileNode{}, nil
	case NodeKindOutboundConnection:
		return &OutboundConnectionNode{}, nil
	case NodeKindDynamic:
		return &DynamicNode{}, nil
	case NodeKindIPAddress:
		return &IPAddressNode{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownNodeKind, kind)
	}
}
