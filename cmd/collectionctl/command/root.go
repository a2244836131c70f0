/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package command implements the collectionctl command line.
package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/suparena/collectionstore"
	"github.com/suparena/collectionstore/config"
	"github.com/suparena/collectionstore/logger"
)

// Commandline holds the state shared by every subcommand.
type Commandline struct {
	configPath string
	collection string
	logLevel   string

	// loader overrides the configured backend; used by tests.
	loader collectionstore.Loader

	log    *logger.LogData
	handle *collectionstore.ClientHandle
	coll   *collectionstore.Collection
}

// Execute runs collectionctl with os.Args.
func Execute() {
	cl := &Commandline{}
	if err := cl.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (cl *Commandline) NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collectionctl",
		Short: "collectionctl - inspect and edit document collections",
		Long: `collectionctl - inspect and edit document collections.

The backend is chosen by the config file and COLLECTIONSTORE_* environment
variables, e.g. COLLECTIONSTORE_BACKEND=sqlite COLLECTIONSTORE_SQLITE_PATH=./docs.db.
`,
		SilenceUsage:       true,
		PersistentPreRunE:  cl.connect,
		PersistentPostRunE: cl.disconnect,
	}

	cmd.PersistentFlags().StringVarP(&cl.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVarP(&cl.collection, "collection", "C", "users", "collection path")
	cmd.PersistentFlags().StringVar(&cl.logLevel, "log-level", "", "overrides log.level from the config")

	cmd.AddCommand(
		cl.getCmd(),
		cl.listCmd(),
		cl.countCmd(),
		cl.latestCmd(),
		cl.putCmd(),
		cl.patchCmd(),
		cl.setFieldCmd(),
		cl.arrayAddCmd(),
		cl.arrayRemoveCmd(),
		cl.deleteCmd(),
		cl.purgeCmd(),
		versionCmd(),
	)
	return cmd
}

func (cl *Commandline) connect(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(cl.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if cl.logLevel != "" {
		level = cl.logLevel
	}
	cl.log, err = logger.New().
		FromBuffer(cmd.ErrOrStderr()).
		WithLevel(level).
		Console(cfg.Log.Format == "console").
		Make()
	if err != nil {
		return err
	}

	if cl.loader != nil {
		cl.handle = collectionstore.NewClientHandle(cl.loader, collectionstore.WithHandleLogger(cl.log.Logger))
	} else {
		cl.handle = collectionstore.NewHandleFromConfig(cfg, cl.log.Logger)
	}

	cl.coll, err = collectionstore.NewCollection(cl.collection,
		collectionstore.WithHandle(cl.handle),
		collectionstore.WithLogger(cl.log.Logger),
	)
	return err
}

func (cl *Commandline) disconnect(cmd *cobra.Command, args []string) error {
	if cl.handle != nil {
		if err := cl.handle.Close(); err != nil {
			return err
		}
	}
	if cl.log != nil {
		return cl.log.Close()
	}
	return nil
}

func (cl *Commandline) logger() zerolog.Logger {
	if cl.log == nil {
		return zerolog.Nop()
	}
	return cl.log.Logger
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, collectionstore.GetVersionInfo())
		},
	}
}
