package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"circle-media/backend/internal/engine"
)

// ReconcileOptions holds flags for the reconcile command
type ReconcileOptions struct {
	*RootOptions
	UserID string
	All    bool
}

// NewReconcileCommand creates the reconcile command
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair follow symmetry",
		Long: `Rebuild following sets from followers sets.

A follow that failed half way leaves the target's followers updated and the
actor's following stale. Reconcile treats followers as the source of truth
and rewrites the other side.

Examples:
  circlectl reconcile --user 3f2a...
  circlectl reconcile --all --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id to reconcile")
	cmd.Flags().BoolVar(&opts.All, "all", false, "reconcile every user")
	cmd.MarkFlagsMutuallyExclusive("user", "all")
	cmd.MarkFlagsOneRequired("user", "all")

	return cmd
}

func runReconcile(opts *ReconcileOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	return opts.withEngine(ctx, func(e *engine.Engine) error {
		var reports []*engine.ReconcileReport
		if opts.All {
			all, err := e.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			reports = all
		} else {
			report, err := e.ReconcileFollows(ctx, opts.UserID)
			if err != nil {
				return err
			}
			if report.Changed() {
				reports = append(reports, report)
			}
		}

		if opts.Format == "json" {
			if reports == nil {
				reports = []*engine.ReconcileReport{}
			}
			return writeJSON(cmd, reports)
		}

		out := cmd.OutOrStdout()
		if len(reports) == 0 {
			fmt.Fprintln(out, "Follow graph consistent, nothing to repair")
			return nil
		}
		for _, r := range reports {
			fmt.Fprintf(out, "%s:\n", r.UserID)
			printIDs(out, "following added", r.FollowingAdded)
			printIDs(out, "following removed", r.FollowingRemoved)
			printIDs(out, "followers dropped", r.FollowersDropped)
			printIDs(out, "followers repaired", r.RepairedUsers)
		}
		fmt.Fprintf(out, "Repaired %d user(s)\n", len(reports))
		return nil
	})
}

func printIDs(out io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s: %s\n", label, strings.Join(ids, ", "))
}
