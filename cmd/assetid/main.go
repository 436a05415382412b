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
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/carverauto/nodeidentifier/pkg/cli"
	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/version"
)

func main() {
	cfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, cli.ErrorStyle(err))
		cli.ShowHelp(os.Stderr)
		os.Exit(2)
	}

	if cfg.Help {
		cli.ShowHelp(os.Stdout)

		return
	}

	if cfg.Version {
		fmt.Println(version.GetFullVersion())

		return
	}

	log := logger.NewWithWriter(os.Stderr, zerolog.WarnLevel)

	if err := cli.Run(context.Background(), cfg, os.Stdout, log); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, cli.ErrorStyle(err))
		os.Exit(1)
	}
}
