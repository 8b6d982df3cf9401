package config

import (
	"log"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ReporterAgentName is the A2A agent name advertised by "jirareporter a2a".
	ReporterAgentName = "JiraReporterAgent"

	// DefaultAgentPort is the port the A2A reporter agent listens on by default.
	DefaultAgentPort = "8080"
)

// Config holds the application configuration. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	// Server configuration
	ServerPort int
	ServerHost string
	Transport  string // "stdio", "sse" or "http"

	// Agent configuration
	AgentName    string
	AgentVersion string
	AgentURL     string

	// Jira configuration
	JiraBaseURL     string
	JiraUsername    string
	JiraAPIToken    string
	JiraAPIVersion  string // "2" (Server/DC) or "3" (Cloud)
	JiraAuthType    string // "basic" or "bearer"
	JiraHTTPTimeout time.Duration

	// Report pipeline
	ReportWorkers int

	// Authentication for the A2A endpoint
	AuthType  string // "jwt", "apikey" or ""
	JWTSecret string
	APIKey    string

	// LLM configuration
	LLMEnabled     bool
	LLMProvider    string // "openai", "azure", "anthropic", "ollama"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     int // in seconds
	LLMTemperature float64

	// Logging
	LogLevel  string
	LogFormat string // "json" or "console"
}

var v = newViper()

// GetViper returns the process-wide viper instance so commands can bind flags to it.
func GetViper() *viper.Viper {
	return v
}

func newViper() *viper.Viper {
	nv := viper.New()
	setDefaults(nv)
	bindEnv(nv)
	return nv
}

func setDefaults(nv *viper.Viper) {
	nv.SetDefault("server_port", 8080)
	nv.SetDefault("server_host", "localhost")
	nv.SetDefault("transport", "stdio")

	nv.SetDefault("agent_name", ReporterAgentName)
	nv.SetDefault("agent_version", "1.0.0")
	nv.SetDefault("agent_url", "http://localhost:"+DefaultAgentPort)

	nv.SetDefault("jira_api_version", "3")
	nv.SetDefault("jira_auth_type", "basic")
	nv.SetDefault("jira_http_timeout", 30*time.Second)

	nv.SetDefault("report_workers", 4)

	nv.SetDefault("auth_type", "apikey")

	nv.SetDefault("llm_enabled", false)
	nv.SetDefault("llm_provider", "openai")
	nv.SetDefault("llm_model", "gpt-4")
	nv.SetDefault("llm_max_tokens", 300)
	nv.SetDefault("llm_timeout", 30)
	nv.SetDefault("llm_temperature", 0.0)

	nv.SetDefault("log_level", "info")
	nv.SetDefault("log_format", "json")
}

func bindEnv(nv *viper.Viper) {
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	nv.AutomaticEnv()
	// JIRA_BASE_URL is what earlier deployments used.
	_ = nv.BindEnv("jira_url", "JIRA_URL", "JIRA_BASE_URL")
	_ = nv.BindEnv("jira_username", "JIRA_USERNAME", "JIRA_EMAIL")
}

// LoadDotEnv loads environment variables from a .env file, looking in the
// working directory and up to two parents.
func LoadDotEnv() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded configuration from %s file", path)
			return
		}
	}
	log.Println("No .env file found or error loading it. Using environment variables or defaults.")
}

// ReadConfigFile merges an optional config file (yaml, toml, json) into the
// process-wide viper instance.
func ReadConfigFile(path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	return nil
}

// NewConfig creates a new configuration from the process-wide viper instance.
func NewConfig() *Config {
	return FromViper(v)
}

// FromViper builds a Config from the given viper instance.
func FromViper(nv *viper.Viper) *Config {
	return &Config{
		ServerPort: nv.GetInt("server_port"),
		ServerHost: nv.GetString("server_host"),
		Transport:  strings.ToLower(nv.GetString("transport")),

		AgentName:    nv.GetString("agent_name"),
		AgentVersion: nv.GetString("agent_version"),
		AgentURL:     nv.GetString("agent_url"),

		JiraBaseURL:     strings.TrimRight(nv.GetString("jira_url"), "/"),
		JiraUsername:    nv.GetString("jira_username"),
		JiraAPIToken:    nv.GetString("jira_api_token"),
		JiraAPIVersion:  nv.GetString("jira_api_version"),
		JiraAuthType:    strings.ToLower(nv.GetString("jira_auth_type")),
		JiraHTTPTimeout: nv.GetDuration("jira_http_timeout"),

		ReportWorkers: nv.GetInt("report_workers"),

		AuthType:  strings.ToLower(nv.GetString("auth_type")),
		JWTSecret: nv.GetString("jwt_secret"),
		APIKey:    nv.GetString("api_key"),

		LLMEnabled:     nv.GetBool("llm_enabled"),
		LLMProvider:    strings.ToLower(nv.GetString("llm_provider")),
		LLMModel:       nv.GetString("llm_model"),
		LLMAPIKey:      nv.GetString("llm_api_key"),
		LLMServiceURL:  nv.GetString("llm_service_url"),
		LLMMaxTokens:   nv.GetInt("llm_max_tokens"),
		LLMTimeout:     nv.GetInt("llm_timeout"),
		LLMTemperature: nv.GetFloat64("llm_temperature"),

		LogLevel:  nv.GetString("log_level"),
		LogFormat: nv.GetString("log_format"),
	}
}

// Validate checks the settings the Jira client cannot work without.
func (c *Config) Validate() error {
	var missing []string
	if c.JiraBaseURL == "" {
		missing = append(missing, "JIRA_URL")
	}
	if c.JiraAPIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if c.JiraAuthType != "bearer" && c.JiraUsername == "" {
		missing = append(missing, "JIRA_USERNAME")
	}
	if len(missing) > 0 {
		return errors.Errorf("%s must be set in environment or .env file", strings.Join(missing, ", "))
	}

	switch c.JiraAPIVersion {
	case "2", "3":
	default:
		return errors.Errorf("unsupported JIRA_API_VERSION %q (want 2 or 3)", c.JiraAPIVersion)
	}
	switch c.JiraAuthType {
	case "basic", "bearer":
	default:
		return errors.Errorf("unsupported JIRA_AUTH_TYPE %q (want basic or bearer)", c.JiraAuthType)
	}
	if c.ReportWorkers < 1 {
		return errors.Errorf("REPORT_WORKERS must be at least 1, got %d", c.ReportWorkers)
	}
	return nil
}
