package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/core/failure"
)

func (a *app) delaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delays [policy]",
		Short: "Print the backoff schedule of a policy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			section := cfg.Retry
			if len(args) == 1 {
				if _, ok := cfg.Policies[args[0]]; !ok {
					return failure.New(failure.Configuration, "unknown policy %q", args[0])
				}
				section = cfg.PolicyFor(args[0])
			}
			p, err := section.Policy()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "RETRY\tDELAY\tMIN\tMAX")
			for i, d := range p.Schedule() {
				lo, hi := d, d
				if p.Jitter {
					lo = time.Duration(float64(d) * p.JitterLow)
					hi = time.Duration(float64(d) * p.JitterHigh)
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, d, lo, hi)
			}
			return w.Flush()
		},
	}
}
