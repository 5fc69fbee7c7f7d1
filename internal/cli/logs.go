package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aitool/sleuth/internal/aggregate"
	"github.com/aitool/sleuth/internal/backend"
	"github.com/aitool/sleuth/internal/output"
)

type logsOptions struct {
	level  string
	tag    string
	from   string
	to     string
	all    bool
	format string
}

func newLogsCommand(r *root) *cobra.Command {
	var opts logsOptions
	cmd := &cobra.Command{
		Use:   "logs <file-id>...",
		Short: "Print parsed log rows from one or more files, merged by time",
		Long: `Print parsed log rows from the given files merged into one
timestamp-ordered stream. Files that are not parsed yet are skipped.

Examples:
  sleuth logs 3f2a... --level error
  sleuth logs 3f2a... 9c1d... --tag ActivityManager --from "2024-03-01 10:00" --all
  sleuth logs 3f2a... --output json | jq .message`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.runLogs(cmd, args, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.level, "level", "", "severity: error, warn, info, debug (or E/W/I/D)")
	flags.StringVar(&opts.tag, "tag", "", "exact tag")
	flags.StringVar(&opts.from, "from", "", "earliest timestamp, e.g. 2024-03-01T10:00:00")
	flags.StringVar(&opts.to, "to", "", "latest timestamp")
	flags.BoolVar(&opts.all, "all", false, "keep loading pages until every file is exhausted")
	flags.StringVarP(&opts.format, "output", "o", "text", "output format: text, json")
	return cmd
}

func (r *root) runLogs(cmd *cobra.Command, ids []string, opts logsOptions) error {
	filter, err := aggregate.ParseFilter(opts.level, opts.tag, opts.from, opts.to)
	if err != nil {
		return err
	}
	renderer, err := output.New(opts.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	svc, err := r.services()
	if err != nil {
		return err
	}

	session, failures := aggregate.Collect(cmd.Context(), svc.Fetcher, ids, filter, opts.all)

	stderr := cmd.ErrOrStderr()
	if skipped := session.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(stderr, "skipped %s\n", aggregate.DescribeSkipped(skipped))
	}
	for _, f := range failures {
		fmt.Fprintf(stderr, "%s: %s\n", f.FileID, backend.Describe(f.Err))
	}

	for _, row := range session.Rows() {
		if err := renderer.Row(row); err != nil {
			return err
		}
	}

	if session.HasMore() {
		fmt.Fprintf(stderr, "%d rows shown, more available (use --all)\n", session.Len())
	}
	if session.Len() == 0 && len(failures) > 0 {
		return fmt.Errorf("no rows loaded: %d request(s) failed", len(failures))
	}
	return nil
}
