// Package config provides property-based tests for configuration handling.
// Property 1: For any valid Configuration object, serializing it and then
// deserializing should produce an equivalent object.
// Property 2: Environment variables always win over file values for the
// fields they name.
package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"
)

// TestConfigRoundTripProperty tests Property 1: Config round-trip consistency.
// ParseConfig(Serialize(config)) == config
func TestConfigRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("config round-trip preserves data", prop.ForAll(
		func(model string, maxConcurrent int, maxTokens int, onErrorIdx int, cors bool, timeoutSec int) bool {
			cfg := DefaultConfig()
			cfg.API.Model = model
			cfg.API.Timeout = time.Duration(timeoutSec) * time.Second
			cfg.Contextualizer.MaxConcurrent = maxConcurrent
			cfg.Contextualizer.MaxTokens = maxTokens
			cfg.Contextualizer.OnError = []string{OnErrorFallback, OnErrorFail}[onErrorIdx]
			cfg.Server.EnableCORS = cors

			data, err := cfg.Serialize()
			if err != nil {
				return false
			}
			parsed, err := ParseConfig(data)
			if err != nil {
				return false
			}

			return parsed.API.Model == cfg.API.Model &&
				parsed.API.Timeout == cfg.API.Timeout &&
				parsed.Contextualizer.MaxConcurrent == cfg.Contextualizer.MaxConcurrent &&
				parsed.Contextualizer.MaxTokens == cfg.Contextualizer.MaxTokens &&
				parsed.Contextualizer.OnError == cfg.Contextualizer.OnError &&
				parsed.Server.EnableCORS == cfg.Server.EnableCORS
		},
		gen.Identifier(),
		gen.IntRange(1, 64),
		gen.IntRange(1, 4096),
		gen.IntRange(0, 1),
		gen.Bool(),
		gen.IntRange(1, 600),
	))

	properties.TestingRun(t)
}

// TestEnvOverrideProperty tests Property 2: env values win for named fields.
func TestEnvOverrideProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxConcurrent := rapid.IntRange(1, 99).Draw(rt, "maxConcurrent")
		model := rapid.StringMatching(`[a-z][a-z0-9-]{0,20}`).Draw(rt, "model")

		t.Setenv("AB_CTX_MAX_CONCURRENT", strconv.Itoa(maxConcurrent))
		t.Setenv("AB_API_MODEL", model)

		cfg, err := NewLoader().Load()
		if err != nil {
			rt.Fatalf("load failed: %v", err)
		}
		if cfg.Contextualizer.MaxConcurrent != maxConcurrent {
			rt.Fatalf("max_concurrent %d != %d", cfg.Contextualizer.MaxConcurrent, maxConcurrent)
		}
		if cfg.API.Model != model {
			rt.Fatalf("model %q != %q", cfg.API.Model, model)
		}
	})
}
