package commands

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/errors"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	configFile  = "config.toml"
	genesisFile = "genesis.json"
	dataDir     = "data"
	envPrefix   = "HTLCD"
)

// Config is the content of <home>/config.toml. Every key can be overridden
// with an HTLCD_ prefixed environment variable, ie. HTLCD_LOG_LEVEL.
type Config struct {
	Bech32Prefix string `mapstructure:"bech32_prefix"`
	LogLevel     string `mapstructure:"log_level"`
	DBBackend    string `mapstructure:"db_backend"`
	DBName       string `mapstructure:"db_name"`
	CacheSize    int    `mapstructure:"cache_size"`
}

// DefaultConfig returns the configuration used for missing keys.
func DefaultConfig() Config {
	return Config{
		Bech32Prefix: app.DefaultPrefix,
		LogLevel:     "info",
		DBBackend:    "goleveldb",
		DBName:       "htlc",
		CacheSize:    10000,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Bech32Prefix == "" {
		return errors.Wrap(errors.ErrEmpty, "bech32_prefix")
	}
	if c.DBName == "" {
		return errors.Wrap(errors.ErrEmpty, "db_name")
	}
	if c.CacheSize <= 0 {
		return errors.Wrapf(errors.ErrInput, "cache_size %d", c.CacheSize)
	}
	switch c.DBBackend {
	case "goleveldb", "memdb":
	default:
		return errors.Wrapf(errors.ErrInput, "unsupported db_backend %q", c.DBBackend)
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return nil
}

// LoadConfig reads <home>/config.toml into v and returns the resulting
// configuration. A missing file means defaults.
func LoadConfig(v *viper.Viper, home string) (Config, error) {
	def := DefaultConfig()
	v.SetDefault("bech32_prefix", def.Bech32Prefix)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("db_backend", def.DBBackend)
	v.SetDefault("db_name", def.DBName)
	v.SetDefault("cache_size", def.CacheSize)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(home, configFile)
	switch _, err := os.Stat(path); {
	case os.IsNotExist(err):
	case err != nil:
		return Config{}, errors.Wrap(errors.ErrInput, err.Error())
	default:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(errors.ErrInput, "%s: %s", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var configTemplate = template.Must(template.New("config").Parse(`# htlcd configuration

# human readable part of bech32 addresses
bech32_prefix = "{{ .Bech32Prefix }}"

# debug, info, error or none
log_level = "{{ .LogLevel }}"

# goleveldb or memdb
db_backend = "{{ .DBBackend }}"
db_name = "{{ .DBName }}"
cache_size = {{ .CacheSize }}
`))

// WriteConfig writes cfg to <home>/config.toml unless the file exists.
func WriteConfig(home string, cfg Config) (bool, error) {
	path := filepath.Join(home, configFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return false, errors.Wrap(errors.ErrHuman, err.Error())
	}
	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return false, errors.Wrap(errors.ErrInput, err.Error())
	}
	return true, nil
}

// newLogger returns a tendermint logger writing to w, filtered by level.
func newLogger(w io.Writer, level string) (log.Logger, error) {
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(w)).With("module", "htlcd")
	return log.NewFilter(logger, opt), nil
}
