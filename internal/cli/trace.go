package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reactive-graph/reactive-graph-sub007/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Owner     string
	Behaviour string
	After     int64
	Limit     int
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Records []journal.Record `json:"records"`
	Stats   TraceStats       `json:"stats"`
}

// TraceStats counts the returned records.
type TraceStats struct {
	Total      int `json:"total"`
	Errors     int `json:"errors"`
	Owners     int `json:"owners"`
	Behaviours int `json:"behaviours"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled behaviour transitions",
		Long: `Read the transition journal written by "rgraph run" and print the
transitions in sequence order.

Examples:
  rgraph trace --db ./rgraph.db
  rgraph trace --db ./rgraph.db --behaviour math::sqrt --limit 20
  rgraph trace --db ./rgraph.db --owner 0190a6d2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (required)")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "only transitions of this instance")
	cmd.Flags().StringVar(&opts.Behaviour, "behaviour", "", "only transitions of this behaviour type")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only transitions after this sequence number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of transitions (0 = all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	// Opening a missing file would create an empty journal.
	if _, err := os.Stat(opts.Database); err != nil {
		msg := fmt.Sprintf("journal not found: %s", opts.Database)
		_ = f.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeJournal, "failed to open journal", err.Error())
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	records, err := j.Read(cmd.Context(), journal.Filter{
		Owner:     opts.Owner,
		Behaviour: opts.Behaviour,
		AfterSeq:  opts.After,
		Limit:     opts.Limit,
	})
	if err != nil {
		_ = f.Error(ErrCodeJournal, "failed to read journal", err.Error())
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}
	if records == nil {
		records = []journal.Record{}
	}

	res := TraceResult{Records: records, Stats: traceStats(records)}
	if f.JSON() {
		return f.Success(res)
	}
	writeTraceText(f, res)
	return nil
}

func traceStats(records []journal.Record) TraceStats {
	owners := make(map[string]struct{})
	behaviours := make(map[string]struct{})
	st := TraceStats{Total: len(records)}
	for _, r := range records {
		owners[r.Owner] = struct{}{}
		behaviours[r.Behaviour] = struct{}{}
		if r.Outcome == journal.OutcomeError {
			st.Errors++
		}
	}
	st.Owners = len(owners)
	st.Behaviours = len(behaviours)
	return st
}

func writeTraceText(f *OutputFormatter, res TraceResult) {
	if res.Stats.Total == 0 {
		fmt.Fprintln(f.Writer, "No transitions recorded.")
		return
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tOWNER\tBEHAVIOUR\tFROM\tTARGET\tRESULT\tCODE")
	for _, r := range res.Records {
		code := r.Code
		if code == "" {
			code = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Seq, r.Owner, r.Behaviour, r.From, r.Target, r.Result, code)
	}
	_ = tw.Flush()
	fmt.Fprintf(f.Writer, "\n%d transitions, %d errors, %d owners, %d behaviours\n",
		res.Stats.Total, res.Stats.Errors, res.Stats.Owners, res.Stats.Behaviours)
}
