package core

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	appfs "github.com/trezcool/scaffold/fs"
)

type (
	ServerConfig struct {
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
		CookieName      string
		CookieStore     string // securecookie | jwt
		CookieSecure    bool
	}

	SessionConfig struct {
		// Timeout is the session validity window (sessionTimeoutMs).
		Timeout time.Duration
		// TokenVersion is bumped to invalidate every outstanding session at once.
		TokenVersion int
	}

	AuthConfig struct {
		Verifier string // placeholder | bcrypt
	}

	DatabaseConfig struct {
		Engine   string // dummy | redis
		SeedFile string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	// Config is built once at startup and handed to every component that needs it.
	Config struct {
		Env          string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		Build        string
		RollbarToken string
		WorkDir      string
		ConfigFile   string // optional file holding `navigation`; watched for changes

		Server   ServerConfig
		Session  SessionConfig
		Auth     AuthConfig
		Database DatabaseConfig
		Redis    RedisConfig

		v *viper.Viper
	}
)

// Viper exposes the raw settings tree (e.g. the `navigation` literal).
func (conf *Config) Viper() *viper.Viper { return conf.v }

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Scaffold")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("configFile", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.cookieName", "scaffold-session")
	v.SetDefault("server.cookieStore", "securecookie")
	v.SetDefault("server.cookieSecure", false)

	v.SetDefault("session.timeoutMs", int64(24*time.Hour/time.Millisecond))
	v.SetDefault("session.tokenVersion", 1)

	v.SetDefault("auth.verifier", "placeholder")

	v.SetDefault("database.engine", "dummy")
	v.SetDefault("database.seedFile", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "scaffold")
}

// NewConfig loads the settings from defaults, `config/.env.<env>` (if it exists), the environment
// and an optional config file (CONFIG_FILE). The default navigation ships embedded in appfs.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()
	_ = v.BindEnv("configFile", "CONFIG_FILE")

	if err := readNavigation(v); err != nil {
		return nil, err
	}
	return buildConfig(v, env, workDir)
}

// readNavigation loads CONFIG_FILE when set. The embedded navigation is the default
// for a config file without a `navigation` key.
func readNavigation(v *viper.Viper) error {
	data, err := appfs.FS.ReadFile("seed/navigation.yaml")
	if err != nil {
		return errors.Wrap(err, "reading default navigation")
	}
	defaults := viper.New()
	defaults.SetConfigType("yaml")
	if err = defaults.ReadConfig(bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, "parsing default navigation")
	}
	v.SetDefault("navigation", defaults.Get("navigation"))

	if path := v.GetString("configFile"); path != "" {
		v.SetConfigFile(path)
		return errors.Wrap(v.ReadInConfig(), "reading config file")
	}
	return nil
}

func buildConfig(v *viper.Viper, env, workDir string) (*Config, error) {
	conf := &Config{
		Env:          env,
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      workDir,
		ConfigFile:   v.GetString("configFile"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			CookieName:      v.GetString("server.cookieName"),
			CookieStore:     strings.ToLower(v.GetString("server.cookieStore")),
			CookieSecure:    v.GetBool("server.cookieSecure"),
		},
		Session: SessionConfig{
			Timeout:      time.Duration(v.GetInt64("session.timeoutMs")) * time.Millisecond,
			TokenVersion: v.GetInt("session.tokenVersion"),
		},
		Auth:     AuthConfig{Verifier: strings.ToLower(v.GetString("auth.verifier"))},
		Database: DatabaseConfig{Engine: strings.ToLower(v.GetString("database.engine")), SeedFile: v.GetString("database.seedFile")},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		v: v,
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (conf *Config) validate() error {
	if conf.Session.Timeout <= 0 {
		return NewValidationError(errors.New("session.timeoutMs must be a positive integer"))
	}
	switch conf.Server.CookieStore {
	case "securecookie", "jwt":
	default:
		return NewValidationError(errors.Errorf("unknown server.cookieStore %q", conf.Server.CookieStore))
	}
	switch conf.Auth.Verifier {
	case "placeholder", "bcrypt":
	default:
		return NewValidationError(errors.Errorf("unknown auth.verifier %q", conf.Auth.Verifier))
	}
	switch conf.Database.Engine {
	case "dummy", "redis":
	default:
		return NewValidationError(errors.Errorf("unknown database.engine %q", conf.Database.Engine))
	}
	if conf.SecretKey == "" {
		return NewValidationError(errors.New("secretKey is required"))
	}
	return nil
}
