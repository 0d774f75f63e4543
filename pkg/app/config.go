package app

import (
	"github.com/vango-dev/trellis/internal/config"
	"github.com/vango-dev/trellis/pkg/reconcile"
)

// FromConfig converts a loaded configuration into options. An unknown
// length policy falls back to replacing children; call cfg.Validate to
// reject it instead.
func FromConfig(cfg *config.Config) []Option {
	policy, _ := reconcile.ParsePolicy(cfg.LengthPolicy)
	return []Option{
		WithRootLocator(cfg.Root),
		WithQueueSize(cfg.QueueSize),
		WithCollect(cfg.Collect),
		WithPolicy(policy),
	}
}
