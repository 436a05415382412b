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

package config

import "context"

// ConfigLoader fills dst from a configuration source addressed by path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration structs that can check themselves after loading.
type Validator interface {
	Validate() error
}

// KVStore is the read side of a key-value store holding configuration documents.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Close() error
}
