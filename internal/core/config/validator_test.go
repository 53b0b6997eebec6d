package config

import (
	"strings"
	"testing"
	"time"

	"distiller/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "unsupported version",
			mutate:  func(c *Config) { c.Version = 2 },
			wantErr: "unsupported config version",
		},
		{
			name:    "unknown min visibility",
			mutate:  func(c *Config) { c.Distill.MinVisibility = "friends" },
			wantErr: "distill.min_visibility",
		},
		{
			name:    "unknown detail level",
			mutate:  func(c *Config) { c.Distill.DetailLevel = "everything" },
			wantErr: "distill.detail_level",
		},
		{
			name:    "unknown wildcard strategy",
			mutate:  func(c *Config) { c.Distill.WildcardStrategy = "best" },
			wantErr: "distill.wildcard_strategy",
		},
		{
			name:    "too many workers",
			mutate:  func(c *Config) { c.Batch.Workers = 1000 },
			wantErr: "batch.workers",
		},
		{
			name:    "glob in exclude dirs",
			mutate:  func(c *Config) { c.Exclude.Dirs = []string{"gen-*"} },
			wantErr: "plain directory name",
		},
		{
			name:    "broken file glob",
			mutate:  func(c *Config) { c.Exclude.Files = []string{"[abc"} },
			wantErr: "not a valid glob",
		},
		{
			name:    "unknown language",
			mutate:  func(c *Config) { c.Languages = map[string]Language{"cobol": {}} },
			wantErr: "unknown language override",
		},
		{
			name: "extension claimed twice",
			mutate: func(c *Config) {
				c.Languages = map[string]Language{"python": {Extensions: []string{".java"}}}
			},
			wantErr: "languages",
		},
		{
			name:    "debounce too short",
			mutate:  func(c *Config) { c.Watch.Debounce = time.Millisecond },
			wantErr: "watch.debounce",
		},
		{
			name:    "metrics address without port",
			mutate:  func(c *Config) { c.Observability.MetricsAddress = "localhost" },
			wantErr: "observability.metrics_address",
		},
		{
			name:    "service name with spaces",
			mutate:  func(c *Config) { c.Observability.ServiceName = "my service" },
			wantErr: "observability.service_name",
		},
		{
			name:    "one file per input without path",
			mutate:  func(c *Config) { c.Output.OneFilePerInput = true },
			wantErr: "output.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidationError))
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err.Error(), tt.wantErr)
		})
	}
}
