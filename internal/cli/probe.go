package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/control"
	"github.com/vietddude/resilience/internal/core/failure"
	"github.com/vietddude/resilience/internal/core/validate"
	"github.com/vietddude/resilience/internal/core/worker"
	"github.com/vietddude/resilience/internal/infra/classify"
)

func (a *app) probeCmd() *cobra.Command {
	var (
		policy  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe <url>...",
		Short: "GET each URL under a retry policy and report the outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				if _, err := validate.URL(raw, "url"); err != nil {
					return err
				}
			}

			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			a.initLogging(cmd, cfg)

			rt, err := control.New(cmd.Context(), cfg, a.logs, control.Options{Debug: a.debug})
			if err != nil {
				return err
			}
			defer func() {
				_ = rt.Stop(context.Background())
			}()

			opts, err := rt.Options(policy)
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: timeout}
			statuses := make([]int, len(args))
			outcomes := make([]error, len(args))
			indices := make([]int, len(args))
			for i := range indices {
				indices[i] = i
			}

			err = worker.ForEach(cmd.Context(), cfg.Pool.MaxConcurrency, indices, func(ctx context.Context, i int) error {
				statuses[i], outcomes[i] = get(ctx, client, args[i])
				return outcomes[i]
			}, opts...)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, "URL\tSTATUS\tKIND\tRESULT")
			for i, url := range args {
				result := "ok"
				if outcomes[i] != nil {
					result = outcomes[i].Error()
				}
				_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", url, statuses[i], kindColumn(outcomes[i]), result)
			}
			if ferr := w.Flush(); ferr != nil {
				return ferr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "probe", "named retry policy")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	return cmd
}

func get(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, failure.Wrap(failure.Validation, err, "invalid url %q", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, classify.Classify(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if fe := classify.HTTPResponse(resp); fe != nil {
		return resp.StatusCode, fe
	}
	return resp.StatusCode, nil
}

func kindColumn(err error) string {
	if err == nil {
		return "-"
	}
	return failure.Label(err)
}
