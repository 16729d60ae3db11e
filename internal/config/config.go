// Package config reads dappctl settings through viper.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	dappbind "github.com/branched-services/go-dappbind"
)

// EnvPrefix prefixes environment overrides, e.g. DAPPCTL_RPCNODE.
const EnvPrefix = "DAPPCTL"

// Session backends.
const (
	SessionFile  = "file"
	SessionRedis = "redis"
)

// Config is the resolved dappctl configuration.
type Config struct {
	ChainID   uint64
	RPCNode   string
	Endpoints map[uint64]string
	Keystore  string
	Password  string
	Contracts string
	Timeout   time.Duration

	Session Session
	Log     Log
}

// Session selects where the chosen wallet is remembered.
type Session struct {
	Backend string
	Path    string
	Redis   Redis
}

// Redis holds the redis session store settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Log holds logger settings.
type Log struct {
	Level string
	File  string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("chainId", dappbind.DefaultChainID)
	v.SetDefault("rpcNode", dappbind.DefaultRPCNode)
	v.SetDefault("keystore", "~/.dappctl/keystore")
	v.SetDefault("contracts", "~/.dappctl/contracts.yaml")
	v.SetDefault("session.backend", SessionFile)
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("log.level", "warn")
}

// BindEnv makes every key overridable from DAPPCTL_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves a Config from v, expanding ~ in paths.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ChainID:   v.GetUint64("chainId"),
		RPCNode:   v.GetString("rpcNode"),
		Password:  v.GetString("password"),
		Timeout:   v.GetDuration("timeout"),
		Endpoints: make(map[uint64]string),
		Session: Session{
			Backend: strings.ToLower(v.GetString("session.backend")),
			Redis: Redis{
				Addr:     v.GetString("session.redis.addr"),
				Password: v.GetString("session.redis.password"),
				DB:       v.GetInt("session.redis.db"),
			},
		},
		Log: Log{
			Level: v.GetString("log.level"),
		},
	}

	for key, url := range v.GetStringMapString("endpoints") {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("endpoints: chain id %q is not a number", key)
		}
		cfg.Endpoints[id] = url
	}

	switch cfg.Session.Backend {
	case SessionFile, SessionRedis:
	default:
		return nil, fmt.Errorf("session.backend: unknown backend %q", cfg.Session.Backend)
	}

	var err error
	if cfg.Keystore, err = expand(v.GetString("keystore")); err != nil {
		return nil, err
	}
	if cfg.Contracts, err = expand(v.GetString("contracts")); err != nil {
		return nil, err
	}
	if cfg.Session.Path, err = expand(v.GetString("session.path")); err != nil {
		return nil, err
	}
	if cfg.Log.File, err = expand(v.GetString("log.file")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return homedir.Expand(path)
}

// Options converts the config into dappbind options.
func (c *Config) Options() []dappbind.Option {
	return []dappbind.Option{
		dappbind.WithRPCNode(c.RPCNode),
		dappbind.WithDefaultChainID(c.ChainID),
		dappbind.WithEndpoints(c.Endpoints),
		dappbind.WithCallTimeout(c.Timeout),
	}
}
