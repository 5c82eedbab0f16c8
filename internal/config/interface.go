package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model. vars are exposed to the configuration as
	// user-supplied variables. Loading zero paths yields Default().
	Load(ctx context.Context, vars map[string]string, paths ...string) (*Model, error)
}
