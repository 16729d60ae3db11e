package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	dappbind "github.com/branched-services/go-dappbind"
	"github.com/branched-services/go-dappbind/internal/config"
	"github.com/branched-services/go-dappbind/internal/logging"
	"github.com/branched-services/go-dappbind/internal/registry"
	"github.com/branched-services/go-dappbind/internal/session"
	"github.com/branched-services/go-dappbind/internal/wallet"
)

// app holds what a single dappctl invocation needs.
type app struct {
	v       *viper.Viper
	cfgFile string

	// Overridable in tests.
	prompter wallet.Prompter
	dial     dappbind.Dialer

	cfg      *config.Config
	logger   *zap.Logger
	conn     *dappbind.ConnectionManager
	binder   *dappbind.Binder
	registry *registry.Registry
	closers  []func() error
}

func newApp() *app {
	return &app{v: viper.New()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "dappctl",
		Short: "Call smart contracts from the command line",
		Long: `dappctl binds deployed contracts by address and ABI and invokes their
methods, either read-only through a JSON-RPC node or signed with a keystore wallet.

Contracts are looked up by name in a YAML registry (see --contracts).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.dappctl.yaml)")
	flags.String("rpc-node", "", "JSON-RPC endpoint for read-only calls")
	flags.Uint64("chain-id", 0, "chain to connect wallets to")
	flags.String("contracts", "", "contract registry file")
	flags.String("keystore", "", "directory of keystore v3 wallet files")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Duration("timeout", 0, "per-call timeout, e.g. 30s")
	for key, name := range map[string]string{
		"rpcNode":   "rpc-node",
		"chainId":   "chain-id",
		"contracts": "contracts",
		"keystore":  "keystore",
		"log.level": "log-level",
		"timeout":   "timeout",
	} {
		cobra.CheckErr(a.v.BindPFlag(key, flags.Lookup(name)))
	}

	root.AddCommand(
		newCallCmd(a),
		newMethodsCmd(a),
		newConnectCmd(a),
		newDisconnectCmd(a),
	)
	return root
}

// initConfig reads in config file and ENV variables if set.
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".dappctl")
		a.v.SetConfigType("yaml")
	}
	config.SetDefaults(a.v)
	config.BindEnv(a.v)

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) init(ctx context.Context) error {
	if err := a.initConfig(); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	if a.logger, err = logging.New(logCfg); err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		_ = a.logger.Sync()
		return nil
	})
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("Using config file", zap.String("path", used))
	}

	sessions, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}

	prompter := a.prompter
	if prompter == nil {
		prompter = wallet.NewTerminalPrompter(cfg.Password)
	}
	selector := wallet.NewKeystoreSelector(cfg.Keystore, prompter, a.logger).WithEndpoints(cfg.Endpoints)

	opts := append(cfg.Options(),
		dappbind.WithLogger(a.logger),
		dappbind.WithSessionStore(sessions),
		dappbind.WithWalletSelector(selector),
	)
	if a.dial != nil {
		opts = append(opts, dappbind.WithDialer(a.dial))
	}
	a.conn = dappbind.NewConnectionManager(opts...)
	a.binder = dappbind.NewBinder(a.conn, opts...)
	a.closers = append(a.closers, func() error {
		a.binder.Close()
		return nil
	})
	return nil
}

func (a *app) sessionStore(ctx context.Context) (dappbind.SessionStore, error) {
	switch a.cfg.Session.Backend {
	case config.SessionRedis:
		r := a.cfg.Session.Redis
		store, err := session.NewRedisStore(ctx, session.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		store, err := session.NewFileStore(a.cfg.Session.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			fmt.Fprintln(os.Stderr, "close:", err)
		}
	}
	a.closers = nil
}

// contracts loads the registry on first use.
func (a *app) contracts() (*registry.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	reg, err := registry.Load(a.cfg.Contracts)
	if err != nil {
		return nil, fmt.Errorf("load contract registry: %w", err)
	}
	a.registry = reg
	return reg, nil
}
