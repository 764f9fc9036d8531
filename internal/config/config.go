package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for agent-batch.
type Config struct {
	API            APIConfig            `yaml:"api"`
	Chunker        ChunkerConfig        `yaml:"chunker"`
	Contextualizer ContextualizerConfig `yaml:"contextualizer"`
	Review         ReviewConfig         `yaml:"review"`
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// APIConfig holds the chat-model provider configuration.
type APIConfig struct {
	Provider   string        `yaml:"provider" env:"AB_API_PROVIDER"`
	Model      string        `yaml:"model" env:"AB_API_MODEL"`
	APIKey     string        `yaml:"api_key" env:"AB_API_KEY"`
	BaseURL    string        `yaml:"base_url,omitempty" env:"AB_API_BASE_URL"`
	APIVersion string        `yaml:"api_version,omitempty" env:"AB_API_VERSION"`
	Timeout    time.Duration `yaml:"timeout" env:"AB_API_TIMEOUT"`

	// 可选采样参数，nil 表示使用服务端默认值
	Temperature *float32 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
}

// ChunkerConfig holds document chunking configuration.
type ChunkerConfig struct {
	MaxChars     int `yaml:"max_chars" env:"AB_CHUNKER_MAX_CHARS"`
	OverlapChars int `yaml:"overlap_chars" env:"AB_CHUNKER_OVERLAP_CHARS"`
}

// ContextualizerConfig holds the chunk-contextualization caller configuration.
type ContextualizerConfig struct {
	MaxConcurrent int    `yaml:"max_concurrent" env:"AB_CTX_MAX_CONCURRENT"`
	MaxTokens     int    `yaml:"max_tokens" env:"AB_CTX_MAX_TOKENS"`
	OnError       string `yaml:"on_error" env:"AB_CTX_ON_ERROR"`
}

// ReviewConfig holds the parallel review caller configuration.
type ReviewConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent" env:"AB_REVIEW_MAX_CONCURRENT"`
	DiffTimeout   time.Duration `yaml:"diff_timeout" env:"AB_REVIEW_DIFF_TIMEOUT"`
	MaxDiffBytes  int           `yaml:"max_diff_bytes" env:"AB_REVIEW_MAX_DIFF_BYTES"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address" env:"AB_SERVER_ADDRESS"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"AB_SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"AB_SERVER_WRITE_TIMEOUT"`
	EnableCORS   bool          `yaml:"enable_cors" env:"AB_SERVER_ENABLE_CORS"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"AB_LOG_LEVEL"`
}

// OnError policy values for ContextualizerConfig.
const (
	OnErrorFallback = "fallback"
	OnErrorFail     = "fail"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Chunker: ChunkerConfig{
			MaxChars:     1200,
			OverlapChars: 0,
		},
		Contextualizer: ContextualizerConfig{
			MaxConcurrent: 10,
			MaxTokens:     200,
			OnError:       OnErrorFallback,
		},
		Review: ReviewConfig{
			MaxConcurrent: 3,
			DiffTimeout:   30 * time.Second,
			MaxDiffBytes:  512 * 1024,
		},
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			EnableCORS:   false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Serialize serializes the configuration to YAML.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a configuration from YAML bytes on top of defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// Load loads configuration with precedence: defaults < YAML file < environment.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("从文件加载配置失败: %w", err)
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	return l.applyEnvToStruct(reflect.ValueOf(cfg).Elem())
}

// applyEnvToStruct recursively applies environment variables to struct fields.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", envTag, fieldType.Name, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("无效的浮点数: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		} else {
			return fmt.Errorf("不支持的切片类型: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}

	return nil
}
