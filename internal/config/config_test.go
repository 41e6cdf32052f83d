package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "0.0.0.0",
		},
		Audio: AudioConfig{
			FallbackSampleRate: 48000,
		},
		Transcription: TranscriptionConfig{
			Endpoint:      "https://api.example.com/transcribe",
			APIKey:        "test-key",
			Timeout:       60,
			MaxRetries:    3,
			MaxConcurrent: 10,
		},
		Analysis: AnalysisConfig{
			APIKey:      "test-key",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     60,
		},
		Storage: StorageConfig{
			Bucket:  "meet-artifacts",
			Region:  "us-east-1",
			Timeout: 30,
		},
		Store: StoreConfig{
			Dir: "./data/meetings",
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
		Pipeline: PipelineConfig{
			TranscribeTimeout: 300,
			AnalyzeTimeout:    120,
			UploadTimeout:     120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "invalid http port",
			mutate:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name:        "empty http address",
			mutate:      func(c *Config) { c.HTTP.Address = "" },
			expectError: true,
			errorMsg:    "address cannot be empty",
		},
		{
			name:        "invalid fallback sample rate",
			mutate:      func(c *Config) { c.Audio.FallbackSampleRate = 100 },
			expectError: true,
			errorMsg:    "fallback_sample_rate",
		},
		{
			name:        "missing transcription endpoint",
			mutate:      func(c *Config) { c.Transcription.Endpoint = "" },
			expectError: true,
			errorMsg:    "endpoint cannot be empty",
		},
		{
			name:        "missing analysis api key",
			mutate:      func(c *Config) { c.Analysis.APIKey = "" },
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
		{
			name:        "invalid analysis temperature",
			mutate:      func(c *Config) { c.Analysis.Temperature = 3.5 },
			expectError: true,
			errorMsg:    "temperature must be between",
		},
		{
			name:        "missing storage bucket",
			mutate:      func(c *Config) { c.Storage.Bucket = "" },
			expectError: true,
			errorMsg:    "bucket cannot be empty",
		},
		{
			name:        "missing store dir",
			mutate:      func(c *Config) { c.Store.Dir = "" },
			expectError: true,
			errorMsg:    "dir cannot be empty",
		},
		{
			name:        "invalid token ttl",
			mutate:      func(c *Config) { c.Auth.TokenTTLHours = 0 },
			expectError: true,
			errorMsg:    "token_ttl_hours",
		},
		{
			name:        "invalid pipeline timeout",
			mutate:      func(c *Config) { c.Pipeline.TranscribeTimeout = 0 },
			expectError: true,
			errorMsg:    "transcribe_timeout",
		},
		{
			name:        "invalid logging level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Expected valid config, got error: %v", err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	content := `
http:
  port: 9090
  address: "127.0.0.1"
audio:
  fallback_sample_rate: 48000
transcription:
  endpoint: "https://api.example.com/transcribe"
  api_key: "secret"
  diarize: true
  timeout: 60
  max_retries: 2
  max_concurrent: 5
analysis:
  api_key: "secret"
  model: "gpt-4o-mini"
  temperature: 0.2
  timeout: 60
storage:
  bucket: "meet-artifacts"
  region: "eu-west-1"
  timeout: 30
store:
  dir: "./data"
auth:
  token_ttl_hours: 12
pipeline:
  transcribe_timeout: 300
  analyze_timeout: 120
  upload_timeout: 120
logging:
  level: "debug"
  format: "text"
  output: "stderr"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", config.HTTP.Port)
	}
	if !config.Transcription.Diarize {
		t.Error("Expected diarize to be true")
	}
	if config.Auth.GetTokenTTL() != 12*time.Hour {
		t.Errorf("Expected 12h token TTL, got %v", config.Auth.GetTokenTTL())
	}
	if config.Pipeline.GetTranscribeTimeout() != 300*time.Second {
		t.Errorf("Unexpected transcribe timeout %v", config.Pipeline.GetTranscribeTimeout())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("http: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
