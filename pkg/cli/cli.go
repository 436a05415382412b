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

// Package cli implements the assetid maintenance tool.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/carverauto/nodeidentifier/pkg/assetdb"
	"github.com/carverauto/nodeidentifier/pkg/assetdb/backend"
	"github.com/carverauto/nodeidentifier/pkg/config"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

const defaultStoreConfig = "/etc/node-identifier/store.yaml"

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// ResolveHandler handles flags for the resolve subcommand.
type ResolveHandler struct{}

// Parse processes arguments for resolve.
func (ResolveHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newHostFlagSet("resolve", cfg)

	if err := parseHostFlags(fs, args, cfg); err != nil {
		return fmt.Errorf("parsing resolve flags: %w", err)
	}

	return validateHostFlags(cfg)
}

// MapHandler handles flags for the map subcommand.
type MapHandler struct{}

// Parse processes arguments for map.
func (MapHandler) Parse(args []string, cfg *CmdConfig) error {
	fs := newHostFlagSet("map", cfg)
	fs.StringVar(&cfg.AssetID, "asset", "", "asset id to bind the host to")

	if err := parseHostFlags(fs, args, cfg); err != nil {
		return fmt.Errorf("parsing map flags: %w", err)
	}

	if cfg.AssetID == "" {
		return errMissingAssetID
	}

	return validateHostFlags(cfg)
}

func newHostFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ConfigPath, "config", defaultStoreConfig, "store config file, JSON or YAML")
	fs.StringVar(&cfg.Hostname, "hostname", "", "observed hostname")
	fs.StringVar(&cfg.HostIP, "ip", "", "observed host IP")
	fs.Uint64Var(&cfg.Timestamp, "ts", 0, "observation timestamp in milliseconds")
	fs.StringVar(&cfg.Output, "output", outputText, "text or json")

	return fs
}

// parseHostFlags stamps the observation with the current time only when -ts
// was not given, so an explicit -ts 0 stays at 0.
func parseHostFlags(fs *flag.FlagSet, args []string, cfg *CmdConfig) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	tsSet := false

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "ts" {
			tsSet = true
		}
	})

	if !tsSet {
		cfg.Timestamp = uint64(time.Now().UnixMilli())
	}

	return nil
}

func validateHostFlags(cfg *CmdConfig) error {
	if cfg.Hostname == "" && cfg.HostIP == "" {
		return errMissingHost
	}

	if cfg.Output != outputText && cfg.Output != outputJSON {
		return errInvalidOutput
	}

	return nil
}

var subcommands = map[string]SubcommandHandler{
	"resolve": ResolveHandler{},
	"map":     MapHandler{},
}

// ParseFlags parses args, not including the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{}

	if len(args) == 0 {
		return cfg, errMissingSubcommand
	}

	cfg.SubCmd = args[0]

	switch cfg.SubCmd {
	case "help", "-help", "--help", "-h":
		cfg.Help = true

		return cfg, nil
	case "version", "-version", "--version":
		cfg.Version = true

		return cfg, nil
	}

	handler, ok := subcommands[cfg.SubCmd]
	if !ok {
		return cfg, fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadStoreConfig reads a store backend config from a JSON or YAML file.
func LoadStoreConfig(ctx context.Context, path string) (*backend.Config, error) {
	var cfg backend.Config

	if err := (&config.FileConfigLoader{}).Load(ctx, path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.ApplyPasswordFile(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Run opens the configured store and executes the parsed subcommand.
func Run(ctx context.Context, cfg *CmdConfig, out io.Writer, log logger.Logger) error {
	storeCfg, err := LoadStoreConfig(ctx, cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading store config: %w", err)
	}

	store, err := backend.Open(ctx, storeCfg, log)
	if err != nil {
		return err
	}

	defer func() { _ = store.Close() }()

	return Execute(ctx, cfg, assetdb.NewAssetIDDB(store, log), out)
}

// Execute runs the parsed subcommand against db.
func Execute(ctx context.Context, cfg *CmdConfig, db *assetdb.AssetIDDB, out io.Writer) error {
	hostID, err := models.NewHostID("", cfg.Hostname, cfg.HostIP)
	if err != nil {
		return err
	}

	switch cfg.SubCmd {
	case "resolve":
		return runResolve(ctx, cfg, db, hostID, out)
	case "map":
		return runMap(ctx, cfg, db, hostID, out)
	default:
		return fmt.Errorf("%w: %s", errUnknownSubcommand, cfg.SubCmd)
	}
}

func runResolve(ctx context.Context, cfg *CmdConfig, db *assetdb.AssetIDDB, hostID models.HostID, out io.Writer) error {
	assetID, found, err := db.ResolveAssetID(ctx, hostID, cfg.Timestamp)
	if err != nil {
		return err
	}

	if cfg.Output == outputJSON {
		return writeJSON(out, ResolveResult{
			HostID:    hostID.String(),
			Timestamp: cfg.Timestamp,
			AssetID:   assetID,
			Found:     found,
		})
	}

	styles := newLogStyles()

	if !found {
		_, err = fmt.Fprintln(out, styles.warning.Render(
			fmt.Sprintf("[WARNING] No asset id mapping for %s at %d", hostID, cfg.Timestamp)))

		return err
	}

	_, err = fmt.Fprintln(out, styles.success.Render(
		fmt.Sprintf("[SUCCESS] %s at %d is %s", hostID, cfg.Timestamp, assetID)))

	return err
}

func runMap(ctx context.Context, cfg *CmdConfig, db *assetdb.AssetIDDB, hostID models.HostID, out io.Writer) error {
	if err := db.CreateMapping(ctx, hostID, cfg.AssetID, cfg.Timestamp); err != nil {
		return err
	}

	if cfg.Output == outputJSON {
		return writeJSON(out, MapResult{HostID: hostID.String(), AssetID: cfg.AssetID, Timestamp: cfg.Timestamp})
	}

	styles := newLogStyles()

	_, err := fmt.Fprintln(out, styles.success.Render(
		fmt.Sprintf("[SUCCESS] Mapped %s to %s from %d", hostID, cfg.AssetID, cfg.Timestamp)))

	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// ErrorStyle renders err the way the tool prints failures.
func ErrorStyle(err error) string {
	return newLogStyles().error.Render("[ERROR] " + err.Error())
}
