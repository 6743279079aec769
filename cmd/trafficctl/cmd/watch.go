package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyvo/trafficlight/pkg/feed"
)

type eventView struct {
	ID         string    `json:"id" yaml:"id"`
	JunctionID string    `json:"junction_id" yaml:"junction_id"`
	Status     string    `json:"status" yaml:"status"`
	TimeLeft   float64   `json:"time_left" yaml:"time_left"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

func newWatchCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow junction updates as they are accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			seen := 0
			err := opts.client().Watch(ctx, func(e feed.Event) error {
				if err := render(cmd.OutOrStdout(), opts.output, eventView{
					ID:         e.ID,
					JunctionID: e.JunctionID,
					Status:     e.Status,
					TimeLeft:   e.TimeLeft,
					UpdatedAt:  e.UpdatedAt,
				}); err != nil {
					return err
				}
				seen++
				if limit > 0 && seen >= limit {
					cancel()
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "count", "n", 0, "exit after this many updates (0 follows forever)")
	return cmd
}
