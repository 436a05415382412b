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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carverauto/nodeidentifier/pkg/config"
	"github.com/carverauto/nodeidentifier/pkg/consumers/nodeidentifier"
	"github.com/carverauto/nodeidentifier/pkg/lifecycle"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/version"
)

func main() {
	configPath := flag.String("config", "/etc/node-identifier/node-identifier.json", "Path to config file")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())

		return
	}

	ctx := context.Background()

	var cfg nodeidentifier.Config
	if err := loadConfig(ctx, *configPath, &cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Store.ApplyPasswordFile(); err != nil {
		log.Fatalf("Node identifier config validation failed: %v", err)
	}

	loggerConfig := cfg.Logging
	if loggerConfig == nil {
		loggerConfig = logger.DefaultConfig()
	}

	if err := lifecycle.InitializeLogger(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	serviceLogger, err := lifecycle.CreateComponentLogger("node-identifier", loggerConfig)
	if err != nil {
		log.Fatalf("Failed to initialize service logger: %v", err)
	}

	serviceLogger.Info().Str("version", version.GetFullVersion()).Msg("Starting node identifier")

	svc, err := nodeidentifier.NewService(&cfg, serviceLogger)
	if err != nil {
		log.Fatalf("Failed to initialize node identifier: %v", err)
	}

	if err := lifecycle.RunService(ctx, &lifecycle.ServiceOptions{
		ServiceName:     "node-identifier",
		Service:         svc,
		Logger:          serviceLogger,
		ShutdownTimeout: nodeidentifier.ShutdownTimeout,
	}); err != nil {
		log.Fatalf("Node identifier failed: %v", err)
	}
}

// loadConfig reads the service config, from etcd when CONFIG_SOURCE=kv.
func loadConfig(ctx context.Context, path string, cfg *nodeidentifier.Config) error {
	cfgLoader := config.NewConfig(nil)

	if strings.EqualFold(os.Getenv("CONFIG_SOURCE"), "kv") {
		kvStore, err := config.NewEtcdKVStoreFromEnv()
		if err != nil {
			return err
		}

		defer func() { _ = kvStore.Close() }()

		cfgLoader.SetKVStore(kvStore)
	}

	return cfgLoader.LoadAndValidate(ctx, path, cfg)
}
