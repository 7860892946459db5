package provider

import "context"

// ConfigLoader defines the interface for loading model configurations.
// It loads a single configuration by name.
type ConfigLoader interface {
	Load(ctx context.Context, name string) (*Config, error)
}
