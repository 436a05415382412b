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
	"errors"
	"fmt"
)

// ErrUnattributableIdentity is returned when a record carries no field that can identify its host.
var ErrUnattributableIdentity = errors.New("must provide at least one of: asset_id, hostname, host_ip")

// HostIDKind describes how a host was identified at observation time.
type HostIDKind int

const (
	HostIDKindUnspecified HostIDKind = iota
	HostIDKindAssetID
	HostIDKindHostname
	HostIDKindIP
)

func (k HostIDKind) String() string {
	switch k {
	case HostIDKindAssetID:
		return "asset_id"
	case HostIDKindHostname:
		return "hostname"
	case HostIDKindIP:
		return "ip"
	case HostIDKindUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("host_id_kind(%d)", int(k))
	}
}

// HostID is the identity an event record was observed under.
type HostID struct {
	Kind  HostIDKind
	Value string
}

// AssetID builds a host id that already carries a resolved asset identifier.
func AssetID(id string) HostID {
	return HostID{Kind: HostIDKindAssetID, Value: id}
}

// Hostname builds a host id from an observed hostname.
func Hostname(hostname string) HostID {
	return HostID{Kind: HostIDKindHostname, Value: hostname}
}

// IP builds a host id from an observed IP address.
func IP(ip string) HostID {
	return HostID{Kind: HostIDKindIP, Value: ip}
}

// NewHostID picks the host id from the candidate fields of a record.
// An asset id wins over a hostname, which wins over a host IP. Empty fields are absent;
// present values are used verbatim.
func NewHostID(assetID, hostname, hostIP string) (HostID, error) {
	switch {
	case assetID != "":
		return AssetID(assetID), nil
	case hostname != "":
		return Hostname(hostname), nil
	case hostIP != "":
		return IP(hostIP), nil
	default:
		return HostID{}, ErrUnattributableIdentity
	}
}

// PseudoKey returns the mapping store lookup key for the host id.
// The kind prefix keeps a hostname and an IP with the same literal value apart.
// Asset ids resolve to themselves and have no pseudo-key.
func (h HostID) PseudoKey() (string, bool) {
	switch h.Kind {
	case HostIDKindHostname, HostIDKindIP:
		if h.Value == "" {
			return "", false
		}

		return h.Kind.String() + h.Value, true
	case HostIDKindAssetID, HostIDKindUnspecified:
		return "", false
	default:
		return "", false
	}
}

func (h HostID) String() string {
	return fmt.Sprintf("%s(%s)", h.Kind, h.Value)
}
