package config

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	RebookBox RebookBoxConfig `yaml:"rebookbox"`
	Browser   BrowserConfig   `yaml:"browser"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Assistant AssistantConfig `yaml:"assistant"`
	Auth      AuthConfig      `yaml:"auth"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
}

type RebookBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`

	// TrustProxyHeaders rate limits on X-Forwarded-For / X-Real-IP instead of
	// the peer address. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

type BrowserConfig struct {
	LookupURL string `yaml:"lookup_url"`
	Headless  *bool  `yaml:"headless"`

	// Install downloads the playwright driver and chromium at startup.
	Install bool `yaml:"install"`

	OutcomeTimeoutMs    int `yaml:"outcome_timeout_ms"`
	PollIntervalMs      int `yaml:"poll_interval_ms"`
	NavigationTimeoutMs int `yaml:"navigation_timeout_ms"`
	ActionTimeoutMs     int `yaml:"action_timeout_ms"`

	UserAgent      string `yaml:"user_agent"`
	Locale         string `yaml:"locale"`
	Timezone       string `yaml:"timezone"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

// SelectorsConfig overrides fallback chains. A chain left empty keeps the
// built-in one.
type SelectorsConfig struct {
	RecordLocator []string `yaml:"record_locator"`
	FirstName     []string `yaml:"first_name"`
	LastName      []string `yaml:"last_name"`
	DOBMonth      []string `yaml:"dob_month"`
	DOBDay        []string `yaml:"dob_day"`
	DOBYear       []string `yaml:"dob_year"`
	Submit        []string `yaml:"submit"`

	Success []string `yaml:"success"`
	Error   []string `yaml:"error"`

	Rows []string `yaml:"rows"`

	FlightNumber       []string `yaml:"flight_number"`
	Date               []string `yaml:"date"`
	Origin             []string `yaml:"origin"`
	Destination        []string `yaml:"destination"`
	ScheduledDeparture []string `yaml:"scheduled_departure"`
	ScheduledArrival   []string `yaml:"scheduled_arrival"`
	Status             []string `yaml:"status"`
}

type AssistantConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Backend is "openai" (default) or "fake".
	Backend        string `yaml:"backend"`
	APIKey         string `yaml:"api_key"`
	AssistantID    string `yaml:"assistant_id"`
	BaseURL        string `yaml:"base_url"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	MaxWaitSeconds int    `yaml:"max_wait_seconds"`
	Prompt         string `yaml:"prompt"`
}

// IsEnabled is Enabled when set, otherwise true when credentials are present
// or the fake backend is selected.
func (a AssistantConfig) IsEnabled() bool {
	if a.Enabled != nil {
		return *a.Enabled
	}
	return a.Backend == "fake" || (a.APIKey != "" && a.AssistantID != "")
}

type AuthConfig struct {
	Required     *bool  `yaml:"required"`
	SharedSecret string `yaml:"shared_secret"`
}

// IsRequired is Required when set, otherwise true when a secret is configured.
func (a AuthConfig) IsRequired() bool {
	if a.Required != nil {
		return *a.Required
	}
	return a.SharedSecret != ""
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	LookupCompletedTopicName string `yaml:"lookup_completed_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoadConfig reads filename, then applies environment overrides. An empty
// filename yields a config built from the environment alone.
func LoadConfig(filename string) (*Config, error) {
	var config Config
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	config.applyEnv(os.Getenv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Assistant.APIKey, "OPENAI_API_KEY")
	set(&c.Assistant.AssistantID, "ASSISTANT_ID")
	set(&c.Assistant.BaseURL, "OPENAI_BASE_URL")
	set(&c.Auth.SharedSecret, "SHARED_SECRET")
}

func (c *Config) Validate() error {
	if c.Auth.IsRequired() && c.Auth.SharedSecret == "" {
		return fmt.Errorf("auth.required is set but no shared secret is configured")
	}
	switch c.Assistant.Backend {
	case "", "openai", "fake":
	default:
		return fmt.Errorf("unknown assistant backend %q", c.Assistant.Backend)
	}
	if c.RebookBox.RateLimitPerMinute < 0 {
		return fmt.Errorf("rebookbox.rate_limit_per_minute must not be negative")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", r.Host, port)
}

func (k KafkaConfig) Brokers() []string {
	if k.Host == "" {
		return nil
	}
	port := k.Port
	if port == 0 {
		port = 9092
	}
	return []string{fmt.Sprintf("%s:%d", k.Host, port)}
}
