package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"todo_webapp/internal/checklist"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	env *env
}

// close is called after Execute so it also runs when a command fails.
func (o *rootOptions) close() {
	if o.env != nil {
		o.env.close()
		o.env = nil
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "checklist",
		Short: "Deployment readiness checklist",
		Long: `Inspect and update the deployment checklist.

Available subcommands:
  status - Show progress by category and the deployment gate
  run    - Run automated checks (all, or the given items)
  mark   - Mark items complete
  unmark - Mark items incomplete
  reset  - Clear every item`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			opts.env = e
			return nil
		},
	}

	root.AddCommand(
		newStatusCmd(opts),
		newRunCmd(opts),
		newMarkCmd(opts, "mark", true),
		newMarkCmd(opts, "unmark", false),
		newResetCmd(opts),
	)
	return root
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON   bool
		category string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show checklist progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := opts.env.engine
			state, stats := e.Stats(cmd.Context())
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"state": state, "stats": stats})
			}

			found := category == ""
			for _, group := range e.Catalog().ByCategory() {
				if category != "" && group.Category.ID != category {
					continue
				}
				found = true
				printGroup(out, group, state)
			}
			if !found {
				return fmt.Errorf("unknown category %q", category)
			}
			printStats(out, stats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print state and stats as JSON")
	cmd.Flags().StringVar(&category, "category", "", "only show one category")
	return cmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [item-id...]",
		Short: "Run automated checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := opts.env.engine
			ctx := cmd.Context()

			var (
				results []checklist.CheckResult
				state   checklist.State
			)
			if len(args) == 0 {
				results, state = e.RunAllChecks(ctx)
			} else {
				for _, id := range args {
					res, s, err := e.RunAutomatedCheck(ctx, id)
					if err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					results = append(results, res)
					state = s
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range results {
				mark := "PASS"
				if !r.Passed {
					mark = "FAIL"
					failed++
				}
				fmt.Fprintf(out, "%s  %s", mark, r.ItemID)
				if r.Error != "" {
					fmt.Fprintf(out, "  (%s)", r.Error)
				}
				fmt.Fprintln(out)
			}
			printStats(out, checklist.ComputeStats(e.Catalog(), state))
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
}

func newMarkCmd(opts *rootOptions, use string, completed bool) *cobra.Command {
	short := "Mark items complete"
	if !completed {
		short = "Mark items incomplete"
	}
	return &cobra.Command{
		Use:   use + " <item-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := opts.env.engine
			var state checklist.State
			for _, id := range args {
				s, err := e.Update(cmd.Context(), id, completed)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				state = s
			}
			printStats(cmd.OutOrStdout(), checklist.ComputeStats(e.Catalog(), state))
			return nil
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear every checklist item",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := opts.env.engine
			state := e.Reset(cmd.Context())
			printStats(cmd.OutOrStdout(), checklist.ComputeStats(e.Catalog(), state))
			return nil
		},
	}
}

func printGroup(out io.Writer, group checklist.CategoryItems, state checklist.State) {
	done := 0
	for _, it := range group.Items {
		if state.Items[it.ID] {
			done++
		}
	}
	fmt.Fprintf(out, "%s %s (%d/%d)\n", group.Category.Icon, group.Category.Name, done, len(group.Items))
	for _, it := range group.Items {
		box := "[ ]"
		if state.Items[it.ID] {
			box = "[x]"
		}
		var tags []string
		if it.Critical {
			tags = append(tags, "critical")
		}
		if it.HasCheck() {
			tags = append(tags, "auto")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = "  (" + strings.Join(tags, ", ") + ")"
		}
		fmt.Fprintf(out, "  %s %-28s %s%s\n", box, it.ID, it.Title, suffix)
	}
	fmt.Fprintln(out)
}

func printStats(out io.Writer, st checklist.Stats) {
	gate := "NOT READY"
	if st.IsReadyForDeployment {
		gate = "READY"
	}
	fmt.Fprintf(out, "%d/%d complete (%d%%), critical %d/%d (%d%%): %s\n",
		st.CompletedItems, st.TotalItems, st.CompletionPercentage,
		st.CompletedCriticalItems, st.CriticalItems, st.CriticalCompletionPercentage, gate)
}
