package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		AppName  string

		SecretKey        string
		DefaultFromEmail string
		ContactEmail     string // contact form recipient

		SendgridApiKey string
		RollbarToken   string

		Server   ServerConfig
		Backend  BackendConfig
		Sessions SessionConfig
		Notifs   NotifConfig
	}

	ServerConfig struct {
		Host string
		Addr string
	}

	// BackendConfig points at the school's REST API.
	BackendConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	SessionConfig struct {
		// Store is one of "inmem", "redis", "postgres".
		Store       string
		TTL         time.Duration
		CookieAge   time.Duration
		RedisAddr   string
		RedisDB     int
		DatabaseURL string
	}

	NotifConfig struct {
		PollInterval time.Duration
	}
)

func (c Config) FromEmailAddress() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

func (c Config) ContactAddress() mail.Address {
	return mail.Address{Name: c.AppName + " Office", Address: c.ContactEmail}
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "CSAM Portal")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "h2(r!x)#*c2(#yg4h^$cegm2emy-poq5-wer)enb$+57=dz&uox")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("contactEmail", "office@localhost")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("backendBaseURL", "http://localhost:5000/api")
	conf.SetDefault("backendTimeout", 15*time.Second)
	conf.SetDefault("sessionStore", "inmem")
	conf.SetDefault("sessionTTL", 7*24*time.Hour)
	conf.SetDefault("sessionCookieAge", 7*24*time.Hour)
	conf.SetDefault("redisAddr", "localhost:6379")
	conf.SetDefault("redisDB", 0)
	conf.SetDefault("databaseURL", "")
	conf.SetDefault("notifPollInterval", 30*time.Second)

	env := os.Getenv("ENV")
	testMode := false
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         testMode,
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		ContactEmail:     conf.GetString("contactEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host: conf.GetString("serverHost"),
			Addr: conf.GetString("serverAddr"),
		},
		Backend: BackendConfig{
			BaseURL: conf.GetString("backendBaseURL"),
			Timeout: conf.GetDuration("backendTimeout"),
		},
		Sessions: SessionConfig{
			Store:       conf.GetString("sessionStore"),
			TTL:         conf.GetDuration("sessionTTL"),
			CookieAge:   conf.GetDuration("sessionCookieAge"),
			RedisAddr:   conf.GetString("redisAddr"),
			RedisDB:     conf.GetInt("redisDB"),
			DatabaseURL: conf.GetString("databaseURL"),
		},
		Notifs: NotifConfig{
			PollInterval: conf.GetDuration("notifPollInterval"),
		},
	}
}
