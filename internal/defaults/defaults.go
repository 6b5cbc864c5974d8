// Package defaults provides the embedded example configuration for the
// gaoagent init subcommand.
package defaults

import _ "embed"

//go:embed gaoagent.example.yaml
var ConfigYAML []byte
