package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	BackendRemote    = "remote"
	BackendSimulated = "simulated"

	ContractStructured = "structured"
	ContractLegacy     = "legacy"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

var ErrMissingAnalysisBaseURL = errors.New("ANALYSIS_BASE_URL is required when ANALYSIS_BACKEND=remote")

type Config struct {
	Port        string
	LogLevel    string
	LogEncoding string

	AnalysisBackend         string
	AnalysisBaseURL         string
	AnalysisRequestContract string
	AnalysisTimeoutSecs     int
	SimulationDelayMillis   int
	SimulationSeed          uint64
	MaxUploadBytes          int64

	SessionStore   string
	SessionTTLMins int
	RedisURL       string

	CORSAllowedOrigins []string
	TelegramBotToken   string

	TUIChartDir    string
	SSHHost        string
	SSHPort        int
	SSHHostKeyPath string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
	MCPMaxBodyBytes       int64

	OTELEndpoint string
}

func Load() *Config {
	cfg := &Config{
		AnalysisBaseURL:  strings.TrimRight(strings.TrimSpace(os.Getenv("ANALYSIS_BASE_URL")), "/"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		OTELEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.LogEncoding = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_ENCODING")))
	if cfg.LogEncoding != "json" && cfg.LogEncoding != "console" {
		if cfg.LogEncoding != "" {
			log.Printf("Warning: unsupported LOG_ENCODING=%q, defaulting to json", cfg.LogEncoding)
		}
		cfg.LogEncoding = "json"
	}

	cfg.AnalysisBackend = strings.ToLower(strings.TrimSpace(os.Getenv("ANALYSIS_BACKEND")))
	if cfg.AnalysisBackend == "" {
		cfg.AnalysisBackend = BackendRemote
	}
	if cfg.AnalysisBackend != BackendRemote && cfg.AnalysisBackend != BackendSimulated {
		log.Printf("Warning: unsupported ANALYSIS_BACKEND=%q, defaulting to remote", cfg.AnalysisBackend)
		cfg.AnalysisBackend = BackendRemote
	}
	if cfg.AnalysisBackend == BackendRemote && cfg.AnalysisBaseURL == "" {
		log.Println("Warning: ANALYSIS_BASE_URL not set, the remote analysis backend cannot start")
	}

	cfg.AnalysisRequestContract = strings.ToLower(strings.TrimSpace(os.Getenv("ANALYSIS_REQUEST_CONTRACT")))
	if cfg.AnalysisRequestContract == "" {
		cfg.AnalysisRequestContract = ContractStructured
	}
	if cfg.AnalysisRequestContract != ContractStructured && cfg.AnalysisRequestContract != ContractLegacy {
		log.Printf("Warning: unsupported ANALYSIS_REQUEST_CONTRACT=%q, defaulting to structured", cfg.AnalysisRequestContract)
		cfg.AnalysisRequestContract = ContractStructured
	}

	cfg.AnalysisTimeoutSecs = 0
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AnalysisTimeoutSecs = n
		}
	}

	cfg.SimulationDelayMillis = 3000
	if v := strings.TrimSpace(os.Getenv("SIMULATION_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SimulationDelayMillis = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("SIMULATION_SEED")); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.SimulationSeed = n
		} else {
			log.Printf("Warning: invalid SIMULATION_SEED=%q, using a random seed", v)
		}
	}

	cfg.MaxUploadBytes = 10 << 20
	if v := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(os.Getenv("SESSION_STORE")))
	if cfg.SessionStore == "" {
		cfg.SessionStore = SessionStoreMemory
	}
	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStoreRedis {
		log.Printf("Warning: unsupported SESSION_STORE=%q, defaulting to memory", cfg.SessionStore)
		cfg.SessionStore = SessionStoreMemory
	}

	cfg.SessionTTLMins = 60
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLMins = n
		}
	}

	if cfg.RedisURL == "" {
		if cfg.SessionStore == SessionStoreRedis {
			log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		}
		cfg.RedisURL = "localhost:6379"
	}

	cfg.CORSAllowedOrigins = parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.TUIChartDir = strings.TrimSpace(os.Getenv("TUI_CHART_DIR"))
	if cfg.TUIChartDir == "" {
		cfg.TUIChartDir = "."
	}

	cfg.SSHHost = strings.TrimSpace(os.Getenv("SSH_HOST"))
	if cfg.SSHHost == "" {
		cfg.SSHHost = "0.0.0.0"
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/candle_lens_ed25519"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 30
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	cfg.MCPMaxBodyBytes = 16 << 20
	if v := strings.TrimSpace(os.Getenv("MCP_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MCPMaxBodyBytes = n
		}
	}

	return cfg
}

// Validate reports configuration that must stop a process from starting.
func (c *Config) Validate() error {
	if c.AnalysisBackend == BackendRemote && c.AnalysisBaseURL == "" {
		return ErrMissingAnalysisBaseURL
	}
	return nil
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
