package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STEPKIT_"

// Load builds the configuration from defaults and the environment.
// Environment variables use the STEPKIT_ prefix; nested keys map by
// section, so STEPKIT_ROUTER_MAX_TOKENS sets router.max_tokens and
// STEPKIT_PROVIDERS_OPENAI_API_KEY sets providers.openai.api_key.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				sensitiveStringHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// transformEnvKey converts an environment variable name (without the
// prefix) to a koanf path: ROUTER_MAX_TOKENS -> router.max_tokens,
// PROVIDERS_OPENAI_API_KEY -> providers.openai.api_key.
func transformEnvKey(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	switch parts[0] {
	case "providers":
		// providers.<name>.<field with underscores>
		if len(parts) < 3 {
			return strings.Join(parts, ".")
		}
		return parts[0] + "." + parts[1] + "." + strings.Join(parts[2:], "_")
	default:
		// <section>.<field with underscores>
		if len(parts) == 1 {
			return parts[0]
		}
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}

// sensitiveStringHook converts plain strings into SensitiveString
// targets during unmarshal.
func sensitiveStringHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	if v, ok := data.(string); ok {
		return SensitiveString(v), nil
	}
	return data, nil
}
