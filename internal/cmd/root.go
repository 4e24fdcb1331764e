package cmd

import (
	"fmt"

	"github.com/faize-ai/dplaunch/internal/config"
	"github.com/faize-ai/dplaunch/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

// Debug prints a message if debug mode is enabled
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dplaunch",
	Short: "dplaunch - start DirectPlay lobbyable games with dprun",
	Long: `dplaunch starts DirectPlay lobbyable games through dprun.exe, running it
under wine on hosts other than Windows.

Host a session:
  dplaunch host --player Alice --application {5BFDB060-06A4-11D0-9C4F-00A0C905425E} \
    --address INet=127.0.0.1

Join a session:
  dplaunch join {11111111-2222-3333-4444-555555555555} --player Bob --application ...

Relay DirectPlay messages through the local callback server:
  dplaunch host --relay --player Alice --application ...

Inspect past launches:
  dplaunch ps
  dplaunch prune`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dplaunch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads --config if given, the default config file otherwise.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	logCfg := cfg.Logging
	if debug {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}
