package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfg = viper.New()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ownvm",
		Short: "Single-step interpreter and heap-graph debugger for the ownership execution core",
	}

	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("include-temporaries", false, "show compiler-introduced temporary locals in rendered graphs")

	cfg.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	cfg.BindPFlag("include-temporaries", root.PersistentFlags().Lookup("include-temporaries"))
	cfg.SetEnvPrefix("OWNVM")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	root.AddCommand(newRunCmd())
	root.AddCommand(newGraphCmd())
	return root
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
