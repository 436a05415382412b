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

// AssetIDMapping records that at CTimestamp the host behind PseudoKey was bound to AssetID.
// Mappings are append-only; several may exist for one pseudo-key at different timestamps.
type AssetIDMapping struct {
	PseudoKey  string `json:"pseudo_key"`
	AssetID    string `json:"asset_id"`
	CTimestamp uint64 `json:"c_timestamp"`
}

// ResolvedAssetID is the projection of a stored mapping returned by lookups.
type ResolvedAssetID struct {
	AssetID string `json:"asset_id"`
}
