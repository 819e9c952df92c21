// Package cli wires the bangd commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bangd/config"
	"bangd/logging"
	"bangd/registry"
	"bangd/remote"
	"bangd/snapshot"
)

const appName = "bangd"

// app holds what commands share. The registry and remote store are opened
// on first use so that commands like version stay cheap.
type app struct {
	version string
	cfgPath string

	cfg    config.Config
	log    *zap.Logger
	reg    *registry.Registry
	remote *remote.Store
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	rootCmd := &cobra.Command{
		Use:           appName,
		Version:       version,
		Short:         "bangd - self-hosted !bang search redirector",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.config/bangd/config.yaml)")

	rootCmd.AddCommand(
		a.serveCmd(),
		a.resolveCmd(),
		a.searchCmd(),
		a.listCmd(),
		a.addCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.defaultCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.syncCmd(),
		a.pickCmd(),
		a.mcpCmd(),
		a.versionCmd(),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// registry opens the local snapshot and, when configured, the remote store.
func (a *app) registry() (*registry.Registry, error) {
	if a.reg != nil {
		return a.reg, nil
	}

	opts := []registry.Option{registry.WithLogger(a.log)}
	if a.cfg.Remote.DSN != "" {
		rs, err := remote.Open(a.cfg.Remote.DSN)
		if err != nil {
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		a.remote = rs
		opts = append(opts, registry.WithRemote(rs))
	}

	file := snapshot.NewFile(a.cfg.Snapshot.Path, a.log)
	a.reg = registry.New(file, a.cfg.DefaultBang, opts...)
	return a.reg, nil
}

func (a *app) close() error {
	var err error
	if a.remote != nil {
		err = a.remote.Close()
		a.remote = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, a.version)
			return nil
		},
	}
}
