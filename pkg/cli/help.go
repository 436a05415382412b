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
	"fmt"
	"io"
)

// ShowHelp writes the usage text.
func ShowHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `Usage: assetid <subcommand> [options]

Inspect and seed the host to asset id mapping store.

Subcommands:
  resolve   print the asset id a host was bound to at a timestamp
  map       record that a host was bound to an asset id at a timestamp
  version   print the version

Options:
  -config string     store config file, JSON or YAML (default "/etc/node-identifier/store.yaml")
  -hostname string   observed hostname
  -ip string         observed host IP, used when -hostname is empty
  -ts uint           observation timestamp (default now, in milliseconds)
  -output string     text or json (default "text")

Options for map:
  -asset string      asset id to bind the host to

Examples:
  # Which asset was web-01 at a given time?
  assetid resolve -hostname web-01 -ts 1700000000000

  # Bind 10.0.0.7 to asset-42 from now on
  assetid map -ip 10.0.0.7 -asset asset-42
`)
}
