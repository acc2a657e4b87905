package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/control"
	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/infra/storage"
)

func (a *app) journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect executions that exhausted their retries",
	}
	cmd.AddCommand(a.journalListCmd(), a.journalPruneCmd(), a.journalResolveCmd())
	return cmd
}

func (a *app) openJournal(cmd *cobra.Command) (storage.FailedExecutionRepository, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a.initLogging(cmd, cfg)

	repo, err := control.OpenJournal(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, failure.New(failure.Configuration, "journal backend is disabled")
	}
	return repo, nil
}

func (a *app) journalListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openJournal(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = repo.Close()
			}()

			records, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tOPERATION\tKIND\tATTEMPTS\tSTATUS\tCREATED\tERROR")
			for _, r := range records {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					r.ID, r.Operation, r.Kind, r.Attempts, r.Status,
					r.CreatedAt.Format(time.RFC3339), oneLine(r.Error))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to show, 0 for all")
	return cmd
}

func (a *app) journalPruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal records older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return failure.New(failure.Validation, "--older-than must be positive")
			}
			repo, err := a.openJournal(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = repo.Close()
			}()

			n, err := repo.DeleteOlderThan(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "age threshold")
	return cmd
}

func (a *app) journalResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a journal record as handled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openJournal(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = repo.Close()
			}()

			if err := repo.MarkResolved(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s\n", args[0])
			return nil
		},
	}
}

const errorWidth = 80

// oneLine flattens s and truncates it to errorWidth runes.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= errorWidth {
		return s
	}
	return string([]rune(s)[:errorWidth-3]) + "..."
}
