package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		Build        string
		AppName      string
		SecretKey    string
		RollbarToken string

		Auth struct {
			Required bool
		}
		Server struct {
			Host            string
			Address         string
			DebugHost       string
			DisableReqLogs  bool
			ShutdownTimeout time.Duration
		}
		Backend struct {
			BaseURL string
			Timeout time.Duration
		}
		Redis struct {
			Addr     string
			Password string
			DB       int
		}
		Cache struct {
			TTL time.Duration
		}
		Database struct {
			Engine     string
			Host       string
			Port       string
			Name       string // history is kept in memory when empty
			User       string
			Password   string
			DisableTLS bool
		}
		Images struct {
			MaxPerField  int
			FetchRemote  bool
			FetchTimeout time.Duration
			MaxBytes     int64
		}
		PDF struct {
			FontPath string
		}
	}
)

// NewConfig reads the configuration from the environment.
// Variables are prefixed with the environment name, eg. `PROD_SERVER_ADDRESS`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.Auth.Required = v.GetBool("auth.required")

	conf.Server.Host = v.GetString("server.host")
	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.DisableReqLogs = v.GetBool("server.disableReqLogs")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")

	conf.Backend.BaseURL = strings.TrimRight(v.GetString("backend.baseURL"), "/")
	conf.Backend.Timeout = v.GetDuration("backend.timeout")

	conf.Redis.Addr = v.GetString("redis.addr")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")
	conf.Cache.TTL = v.GetDuration("cache.ttl")

	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")

	conf.Images.MaxPerField = v.GetInt("images.maxPerField")
	conf.Images.FetchRemote = v.GetBool("images.fetchRemote")
	conf.Images.FetchTimeout = v.GetDuration("images.fetchTimeout")
	conf.Images.MaxBytes = v.GetInt64("images.maxBytes")

	conf.PDF.FontPath = v.GetString("pdf.fontPath")
	return conf
}

// DatabaseAddress returns the database host:port.
func (conf *Config) DatabaseAddress() string {
	return net.JoinHostPort(conf.Database.Host, conf.Database.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Drona")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("auth.required", false)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("backend.baseURL", "http://localhost:5000/api")
	v.SetDefault("backend.timeout", 15*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("images.maxPerField", 20)
	v.SetDefault("images.fetchRemote", true)
	v.SetDefault("images.fetchTimeout", 5*time.Second)
	v.SetDefault("images.maxBytes", int64(5<<20))

	v.SetDefault("pdf.fontPath", "")
}
