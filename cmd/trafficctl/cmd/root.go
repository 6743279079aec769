package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyvo/trafficlight/pkg/client"
)

const defaultServer = "http://localhost:5000"

type options struct {
	server  string
	output  string
	timeout time.Duration
}

func (o *options) client() *client.Client {
	return client.New(o.server)
}

// NewRootCommand assembles the trafficctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "trafficctl",
		Short: "Inspect and update traffic light junctions",
		Long: `trafficctl talks to a trafficlight service.

Commands:
  get    - show one junction
  set    - create or replace a junction
  list   - show every junction
  watch  - follow updates as they are accepted`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "json" && opts.output != "yaml" {
				return fmt.Errorf("unsupported output format %q", opts.output)
			}
			return nil
		},
	}

	server := os.Getenv("TRAFFICCTL_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "trafficlight base URL (env TRAFFICCTL_SERVER)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newGetCommand(opts),
		newSetCommand(opts),
		newListCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}
