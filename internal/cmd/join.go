package cmd

import (
	"fmt"

	"github.com/faize-ai/dplaunch/internal/guid"
	"github.com/faize-ai/dplaunch/internal/session"
	"github.com/spf13/cobra"
)

var joinOpts sessionOptions

var joinCmd = &cobra.Command{
	Use:   "join SESSION-GUID",
	Short: "Join a DirectPlay session",
	Long: `Start dprun in join mode, connecting to the session with the given GUID.

Example:
  dplaunch join {11111111-2222-3333-4444-555555555555} --player Bob \
    --application {5BFDB060-06A4-11D0-9C4F-00A0C905425E} --address INet=192.168.1.10`,
	Args: cobra.ExactArgs(1),
	RunE: runJoin,
}

func init() {
	rootCmd.AddCommand(joinCmd)
	addSessionFlags(joinCmd, &joinOpts)
}

func runJoin(cmd *cobra.Command, args []string) error {
	id, err := guid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session GUID: %w", err)
	}
	return runSession(cmd, session.NewBuilder().Join(id), &joinOpts)
}
