package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vyvo/trafficlight/pkg/registry"
)

// junctionView is what get and list print for each junction.
type junctionView struct {
	JunctionID string  `json:"junction_id" yaml:"junction_id"`
	Status     string  `json:"status" yaml:"status"`
	TimeLeft   float64 `json:"time_left" yaml:"time_left"`
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <junction_id>",
		Short: "Show the status of one junction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			j, err := opts.client().GetJunction(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get %s: %w", args[0], err)
			}
			return render(cmd.OutOrStdout(), opts.output, junctionView{JunctionID: args[0], Status: j.Status, TimeLeft: j.TimeLeft})
		},
	}
}

func newSetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <junction_id> <status> <time_left>",
		Short: "Create or replace a junction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeLeft, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("time_left must be a number: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			if err := opts.client().UpdateJunction(ctx, args[0], registry.Junction{Status: args[1], TimeLeft: timeLeft}); err != nil {
				return fmt.Errorf("set %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every junction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			all, err := opts.client().ListJunctions(ctx)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			ids := make([]string, 0, len(all))
			for id := range all {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			views := make([]junctionView, 0, len(ids))
			for _, id := range ids {
				j := all[id]
				views = append(views, junctionView{JunctionID: id, Status: j.Status, TimeLeft: j.TimeLeft})
			}
			return render(cmd.OutOrStdout(), opts.output, views)
		},
	}
}
