// Package configs provides the embedded configuration templates.
//
// The templates are embedded at build time so that `prophex-match config init`
// works for source builds and binary releases alike. Their keys mirror
// internal/config.Config.
package configs

import _ "embed"

// UserConfigTemplate is written by `prophex-match config init` to
// ~/.config/prophex-match/config.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written by `prophex-match config init --project`
// to .prophex-match.yaml in the working directory.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
