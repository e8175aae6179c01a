package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Store       StoreConfig
	Room        RoomConfig
	Cookie      CookieConfig
	Cors        CorsConfig
	Logger      LoggerConfig
	Jaeger      JaegerConfig
	Sentry      SentryConfig
	RateLimiter RateLimiterConfig
}

type ServerConfig struct {
	InternalPort string
	ExternalPort string
	RunMode      string
	Domain       string
	FrontEndURL  string
}

type LoggerConfig struct {
	FilePath   string
	Encoding   string
	Level      string
	Logger     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type RedisConfig struct {
	Host               string
	Port               string
	Password           string
	Db                 int
	DialTimeout        time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleCheckFrequency time.Duration
	PoolSize           int
	PoolTimeout        time.Duration
}

type StoreConfig struct {
	Driver          string
	CleanupInterval time.Duration
}

type RoomConfig struct {
	TTL             time.Duration
	InviteTTL       time.Duration
	MaxParticipants int
	SweepInterval   time.Duration
}

type CookieConfig struct {
	Name   string
	Domain string
	MaxAge int
}

type CorsConfig struct {
	AllowOrigins string
}

type JaegerConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
}

type SentryConfig struct {
	Dsn            string
	Debug          bool
	SendDefaultPII bool
}

type RateLimiterConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// GetConfig loads the configuration selected by APP_ENV. An explicit path,
// when given, wins over the environment-based lookup.
func GetConfig(path string) *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	var (
		v   *viper.Viper
		err error
	)
	if path != "" {
		v, err = LoadConfigFile(path)
	} else {
		v, err = LoadConfig(getConfigPath(os.Getenv("APP_ENV")), "yml")
	}
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.ExternalPort = envPort
		log.Printf("Set external port from environment -> %s", cfg.Server.ExternalPort)
	} else {
		log.Printf("Using external port from config -> %s", cfg.Server.ExternalPort)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	cfg := Default()
	err := v.Unmarshal(cfg)
	if err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)

	v.AddConfigPath(".")                        // Current directory
	v.AddConfigPath("./config")                 // ./config
	v.AddConfigPath("./infrastructure/config")  // ./infrastructure/config
	v.AddConfigPath("../config")                // ../config
	v.AddConfigPath("../infrastructure/config") // ../infrastructure/config (from cmd)
	v.AddConfigPath("../../config")             // ../../config

	if wd, err := os.Getwd(); err == nil {
		v.AddConfigPath(filepath.Join(wd, "config"))
		v.AddConfigPath(filepath.Join(wd, "infrastructure", "config"))
	}

	return readConfig(v)
}

// LoadConfigFile reads a single config file by path.
func LoadConfigFile(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return readConfig(v)
}

func readConfig(v *viper.Viper) (*viper.Viper, error) {
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		log.Printf("Unable to read config: %v", err)
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())
	return v, nil
}

func getConfigPath(env string) string {
	switch env {
	case "docker":
		return "config-docker"
	case "production":
		return "config-production"
	default:
		return "config-development"
	}
}

// Default returns the values used for anything the config file leaves out.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			InternalPort: "8080",
			ExternalPort: "8080",
			RunMode:      "debug",
			Domain:       "localhost",
		},
		Store: StoreConfig{
			Driver:          StoreDriverRedis,
			CleanupInterval: time.Minute,
		},
		Room: RoomConfig{
			TTL:             10 * time.Minute,
			InviteTTL:       5 * time.Minute,
			MaxParticipants: 2,
			SweepInterval:   time.Minute,
		},
		Cookie: CookieConfig{
			Name:   "x-auth-token",
			MaxAge: 600,
		},
		Logger: LoggerConfig{
			Encoding: "console",
			Level:    "info",
		},
		RateLimiter: RateLimiterConfig{
			Enabled: true,
			Limit:   60,
			Window:  time.Minute,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.InternalPort == "" {
		return errors.New("server.internalPort is required")
	}
	if c.Server.ExternalPort == "" {
		return errors.New("server.externalPort is required")
	}
	if c.Server.Domain == "" {
		return errors.New("server.domain is required")
	}

	switch c.Store.Driver {
	case StoreDriverRedis:
		if c.Redis.Host == "" {
			return errors.New("redis.host is required")
		}
		if c.Redis.Port == "" {
			return errors.New("redis.port is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", StoreDriverRedis, StoreDriverMemory, c.Store.Driver)
	}

	if c.Room.TTL <= 0 {
		return errors.New("room.ttl must be positive")
	}
	if c.Room.InviteTTL <= 0 {
		return errors.New("room.inviteTtl must be positive")
	}
	if c.Room.MaxParticipants < 1 {
		return errors.New("room.maxParticipants must be at least 1")
	}
	if c.Cookie.Name == "" {
		return errors.New("cookie.name is required")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.RunMode == "debug" || c.Server.RunMode == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.RunMode == "release" || c.Server.RunMode == "production"
}

func (c *Config) UsesRedis() bool {
	return c.Store.Driver == StoreDriverRedis
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%s", c.Server.InternalPort)
}

func (c *Config) GetFrontEndURL() string {
	return c.Server.FrontEndURL
}
