package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linen/internal/logger"
)

const (
	TransportWebSocket = "websocket"
	TransportRedis     = "redis"
	TransportNone      = "none"
)

// loadEnv читает .env только вне production (в контейнере/prod конфиг только из env).
func loadEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		f, err := os.Open(filepath.Join(dir, ".env"))
		if err == nil {
			loadEnvFrom(f)
			f.Close()
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func loadEnvFrom(f *os.File) {
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" {
			continue
		}
		if len(val) >= 2 && (val[0] == '"' && val[len(val)-1] == '"' || val[0] == '\'' && val[len(val)-1] == '\'') {
			val = val[1 : len(val)-1]
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// UserConfig: текущий пользователь. Права вычисляет сервер, сюда они приходят готовыми.
type UserConfig struct {
	ID          string `yaml:"id"`
	AuthsID     string `yaml:"auths_id"`
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name"`
	Manage      bool   `yaml:"manage"`
}

// Config: настройки клиента канала.
// Приоритет: переменные окружения > YAML-файл > значения по умолчанию.
type Config struct {
	// Локальный сервер для UI
	ServerAddr   string        `yaml:"server_addr"`
	ReadTimeout  time.Duration `yaml:"-"`
	WriteTimeout time.Duration `yaml:"-"`
	IdleTimeout  time.Duration `yaml:"-"`

	// Сервер сообщества
	APIBaseURL   string  `yaml:"api_base_url"`
	Token        string  `yaml:"token"`
	CommunityID  string  `yaml:"community_id"`
	ChannelID    string  `yaml:"channel_id"`
	ChannelName  string  `yaml:"channel_name"`
	RequestRate  float64 `yaml:"request_rate"`
	RequestBurst int     `yaml:"request_burst"`

	// Realtime
	RealtimeTransport string `yaml:"realtime_transport"`
	RealtimeURL       string `yaml:"realtime_url"`
	RedisURL          string `yaml:"redis_url"`
	InboxSize         int    `yaml:"inbox_size"`

	SendDebounce time.Duration `yaml:"-"`
	MaxFileSize  int64         `yaml:"max_file_size"`

	User UserConfig `yaml:"user"`

	// PushServiceURL: URL микросервиса пуш-уведомлений. Пустой URL отключает пуши.
	PushServiceURL string `yaml:"push_service_url"`

	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
	MaxWSConnections   int    `yaml:"max_ws_connections"`
	// SidecarSecret: если задан, запросы не с loopback должны нести X-Sidecar-Secret.
	SidecarSecret string `yaml:"sidecar_secret"`

	LogLevel string `yaml:"log_level"`
}

// yamlConfig: промежуточная структура для парсинга YAML (длительности в целых единицах).
type yamlConfig struct {
	Config         `yaml:",inline"`
	ReadTimeout    int `yaml:"read_timeout"`
	WriteTimeout   int `yaml:"write_timeout"`
	IdleTimeout    int `yaml:"idle_timeout"`
	SendDebounceMS int `yaml:"send_debounce_ms"`
}

func defaults() yamlConfig {
	return yamlConfig{
		Config: Config{
			ServerAddr:         "127.0.0.1:8090",
			APIBaseURL:         "http://localhost:4000",
			RealtimeTransport:  TransportWebSocket,
			RealtimeURL:        "ws://localhost:4000/socket/websocket",
			RedisURL:           "redis://localhost:6379",
			InboxSize:          256,
			MaxFileSize:        1 << 20,
			RequestRate:        10,
			RequestBurst:       20,
			CORSAllowedOrigins: "*",
			MaxWSConnections:   16,
			LogLevel:           "info",
		},
		ReadTimeout:    15,
		WriteTimeout:   15,
		IdleTimeout:    60,
		SendDebounceMS: 100,
	}
}

// Load загружает конфигурацию: .env, затем CONFIG_PATH или config/channel.yaml, затем env.
func Load() *Config {
	loadEnv()
	return LoadFrom(os.Getenv("CONFIG_PATH"), "config/channel.yaml")
}

// LoadFrom читает первый существующий YAML из paths и накладывает переменные окружения.
func LoadFrom(paths ...string) *Config {
	yc := defaults()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &yc); err != nil {
			logger.Errorf("config: ошибка парсинга %s: %v (используются значения по умолчанию)", path, err)
			yc = defaults()
		} else {
			logger.Infof("config: загружен %s", path)
		}
		break
	}

	cfg := yc.Config
	cfg.ServerAddr = envStr("SERVER_ADDR", cfg.ServerAddr)
	cfg.ReadTimeout = time.Duration(envInt("READ_TIMEOUT", yc.ReadTimeout)) * time.Second
	cfg.WriteTimeout = time.Duration(envInt("WRITE_TIMEOUT", yc.WriteTimeout)) * time.Second
	cfg.IdleTimeout = time.Duration(envInt("IDLE_TIMEOUT", yc.IdleTimeout)) * time.Second
	cfg.APIBaseURL = envStr("API_BASE_URL", cfg.APIBaseURL)
	cfg.Token = envStr("API_TOKEN", cfg.Token)
	cfg.CommunityID = envStr("COMMUNITY_ID", cfg.CommunityID)
	cfg.ChannelID = envStr("CHANNEL_ID", cfg.ChannelID)
	cfg.ChannelName = envStr("CHANNEL_NAME", cfg.ChannelName)
	cfg.RequestRate = envFloat("REQUEST_RATE", cfg.RequestRate)
	cfg.RequestBurst = envInt("REQUEST_BURST", cfg.RequestBurst)
	cfg.RealtimeTransport = strings.ToLower(envStr("REALTIME_TRANSPORT", cfg.RealtimeTransport))
	cfg.RealtimeURL = envStr("REALTIME_URL", cfg.RealtimeURL)
	cfg.RedisURL = envStr("REDIS_URL", cfg.RedisURL)
	cfg.InboxSize = envInt("INBOX_SIZE", cfg.InboxSize)
	cfg.SendDebounce = time.Duration(envInt("SEND_DEBOUNCE_MS", yc.SendDebounceMS)) * time.Millisecond
	cfg.MaxFileSize = int64(envInt("MAX_FILE_SIZE", int(cfg.MaxFileSize)))
	cfg.User.ID = envStr("USER_ID", cfg.User.ID)
	cfg.User.AuthsID = envStr("USER_AUTHS_ID", cfg.User.AuthsID)
	cfg.User.Username = envStr("USER_USERNAME", cfg.User.Username)
	cfg.User.DisplayName = envStr("USER_DISPLAY_NAME", cfg.User.DisplayName)
	cfg.User.Manage = envBool("USER_MANAGE", cfg.User.Manage)
	cfg.PushServiceURL = envStr("PUSH_SERVICE_URL", cfg.PushServiceURL)
	cfg.CORSAllowedOrigins = envStr("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.MaxWSConnections = envInt("MAX_WS_CONNECTIONS", cfg.MaxWSConnections)
	cfg.SidecarSecret = envStr("SIDECAR_SECRET", cfg.SidecarSecret)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)

	if os.Getenv("APP_ENV") == "production" && (cfg.CORSAllowedOrigins == "" || cfg.CORSAllowedOrigins == "*") {
		logger.Errorf("config: в production задайте CORS_ALLOWED_ORIGINS (явный список origins, не *)")
	}
	return &cfg
}

// Validate проверяет то, без чего клиент канала не запускается.
func (c *Config) Validate() error {
	var errs []error
	if c.ChannelID == "" {
		errs = append(errs, errors.New("channel_id is required"))
	}
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api_base_url is required"))
	}
	switch c.RealtimeTransport {
	case TransportWebSocket:
		if c.RealtimeURL == "" {
			errs = append(errs, errors.New("realtime_url is required for websocket transport"))
		}
	case TransportRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required for redis transport"))
		}
	case TransportNone:
	default:
		errs = append(errs, fmt.Errorf("unknown realtime_transport %q", c.RealtimeTransport))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("max_file_size must be positive"))
	}
	return errors.Join(errs...)
}

// envStr возвращает значение переменной окружения или fallback.
func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt возвращает числовое значение переменной окружения или fallback.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
