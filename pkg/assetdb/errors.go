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

package assetdb

import "errors"

var (
	// ErrStorage wraps every failure reported by the backing store.
	ErrStorage = errors.New("asset id storage failure")
	// ErrUnexpectedItemCount means a limit-1 query returned more than one row.
	ErrUnexpectedItemCount = errors.New("unexpected number of items returned")
	// ErrInvalidHostID is returned for host ids without a kind or value.
	ErrInvalidHostID = errors.New("invalid host id")
	// ErrEmptyAssetID is returned when asked to bind a host to an empty asset id.
	ErrEmptyAssetID = errors.New("asset id is required")

	ErrEmptyPseudoKey   = errors.New("pseudo key is required")
	ErrInvalidCondition = errors.New("invalid range condition")
	ErrNilMapping       = errors.New("mapping is nil")
	ErrStoreClosed      = errors.New("mapping store is closed")
)
