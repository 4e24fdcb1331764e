package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/faize-ai/dplaunch/internal/session"
	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List dprun sessions",
	Long:  `List the dprun sessions started by dplaunch with their status and outcome.`,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}

	return listSessions(cmd.OutOrStdout(), store)
}

func listSessions(out io.Writer, store *session.Store) error {
	records, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(records) == 0 {
		_, _ = fmt.Fprintf(out, "No sessions recorded in %s.\n", store.Dir())
		return nil
	}

	writeRecords(out, records)
	return nil
}

func writeRecords(out io.Writer, records []*session.Record) {
	// Create tabwriter for aligned output
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMODE\tPLAYER\tAPPLICATION\tSTATUS\tEXIT\tSTARTED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-----------\t------\t----\t-------")

	for _, r := range records {
		started := r.StartedAt.Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Mode,
			r.Player,
			r.Application,
			r.Status,
			exitSummary(r),
			started,
		)
	}

	_ = w.Flush()
}

func exitSummary(r *session.Record) string {
	if r.Status != session.StatusStopped {
		return "-"
	}
	if r.ExitCode == nil {
		return r.ExitReason
	}
	return r.ExitReason + " (" + strconv.Itoa(*r.ExitCode) + ")"
}
