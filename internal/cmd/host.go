package cmd

import (
	"fmt"

	"github.com/faize-ai/dplaunch/internal/guid"
	"github.com/faize-ai/dplaunch/internal/session"
	"github.com/spf13/cobra"
)

var (
	hostOpts    sessionOptions
	hostSession string
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Host a DirectPlay session",
	Long: `Start dprun in host mode. Without --session, dprun generates a random
session GUID.

Examples:
  dplaunch host --player Alice --application {5BFDB060-06A4-11D0-9C4F-00A0C905425E}
  dplaunch host --session {11111111-2222-3333-4444-555555555555} --address INet=0.0.0.0 ...
  dplaunch host --relay --address INetPort=i:2300 ...`,
	Args: cobra.NoArgs,
	RunE: runHost,
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().StringVar(&hostSession, "session", "", "session GUID to host (default random)")
	addSessionFlags(hostCmd, &hostOpts)
}

func runHost(cmd *cobra.Command, args []string) error {
	b := session.NewBuilder()
	if hostSession == "" {
		b.Host(nil)
	} else {
		id, err := guid.Parse(hostSession)
		if err != nil {
			return fmt.Errorf("invalid --session: %w", err)
		}
		b.Host(&id)
	}
	return runSession(cmd, b, &hostOpts)
}
