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

package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Dracula theme colors.
const (
	draculaCyan   = "#8BE9FD"
	draculaGreen  = "#50FA7B"
	draculaYellow = "#F1FA8C"
	draculaRed    = "#FF5555"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// CmdConfig holds the parsed command line of the assetid tool.
type CmdConfig struct {
	SubCmd     string
	Help       bool
	Version    bool
	ConfigPath string
	Hostname   string
	HostIP     string
	AssetID    string
	Timestamp  uint64
	Output     string
}

// logStyles defines styles for logging messages
type logStyles struct {
	info, success, warning, error lipgloss.Style
}

func newLogStyles() logStyles {
	return logStyles{
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
	}
}

// ResolveResult is the machine readable output of resolve.
type ResolveResult struct {
	HostID    string `json:"host_id"`
	Timestamp uint64 `json:"timestamp"`
	AssetID   string `json:"asset_id,omitempty"`
	Found     bool   `json:"found"`
}

// MapResult is the machine readable output of map.
type MapResult struct {
	HostID    string `json:"host_id"`
	AssetID   string `json:"asset_id"`
	Timestamp uint64 `json:"timestamp"`
}
