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

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit(t *testing.T) {
	config := &Config{
		Level:  "debug",
		Debug:  true,
		Output: "stdout",
	}

	err := Init(config)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logger := GetLogger()
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init(&Config{Level: "loud"}); err == nil {
		t.Fatal("Expected an error for an unknown level")
	}
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)

	logger := GetLogger()
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level after SetDebug(true), got %v", logger.GetLevel())
	}

	SetDebug(false)

	logger = GetLogger()
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level after SetDebug(false), got %v", logger.GetLevel())
	}
}

func TestWithComponent(t *testing.T) {
	componentLogger := WithComponent("test-component")

	if componentLogger.GetLevel() == zerolog.Disabled {
		t.Error("Component logger should not be disabled")
	}
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer

	log := NewWithWriter(&buf, zerolog.InfoLevel)
	log.Info().Str("asset_id", "asset-1").Msg("resolved")
	log.Debug().Msg("dropped")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected a single JSON line, got %q: %v", buf.String(), err)
	}

	if entry["asset_id"] != "asset-1" || entry["message"] != "resolved" {
		t.Errorf("Unexpected log entry: %v", entry)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DEBUG", "yes")

	config := DefaultConfig()

	if config.Level != "warn" {
		t.Errorf("Expected level from LOG_LEVEL, got %q", config.Level)
	}

	if !config.Debug {
		t.Error("Expected DEBUG=yes to enable debug")
	}

	if config.Output == "" {
		t.Error("Default config should have an output set")
	}
}
