// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

// Model is the unified, format-agnostic representation of a pipeline
// configuration: its settings, its fault rules, and any preloaded batch.
type Model struct {
	Pipeline   Settings
	Rules      []Rule
	Directives []string
}

// Settings holds pipeline-wide options.
type Settings struct {
	TransformTag  string
	Workers       int
	InitialFactor float64
}

// Rule is the format-agnostic representation of a `rule` block.
type Rule struct {
	Marker     string
	Tag        string
	Factor     float64
	Diagnostic string
}

// Default values used when the configuration leaves them out.
const (
	DefaultTransformTag  = "[Optimized]"
	DefaultRuleTag       = "[Auto-Fixed]"
	DefaultMarker        = "fault_risk"
	DefaultFactor        = 1.2
	DefaultInitialFactor = 1.0
)

// Default returns the built-in configuration: one `fault_risk` rule and the
// `[Optimized]` transform tag.
func Default() *Model {
	return &Model{
		Pipeline: Settings{
			TransformTag:  DefaultTransformTag,
			InitialFactor: DefaultInitialFactor,
		},
		Rules: []Rule{{
			Marker: DefaultMarker,
			Tag:    DefaultRuleTag,
			Factor: DefaultFactor,
		}},
	}
}
