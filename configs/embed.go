// Package configs provides the embedded retrievalctl configuration
// template, bundled into the binary so `retrievalctl config init` works
// the same from a source build, a binary release, or a package manager.
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config.NewConfig())
//  2. User config (~/.config/retrievalctl/config.yaml)
//  3. Project config (.retrievalctl.yaml)
//  4. Environment variables (RETRIEVALCTL_*)
package configs

import _ "embed"

// ConfigTemplate is the starter .retrievalctl.yaml / user config.yaml
// written by `retrievalctl config init`.
//
//go:embed retrievalctl-config.example.yaml
var ConfigTemplate string
