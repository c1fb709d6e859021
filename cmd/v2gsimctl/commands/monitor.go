package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// pollInterval is how often monitor re-fetches the session list. The
// introspection endpoint has no streaming equivalent of the teacher's
// WatchSessionEvents RPC (that relied on ConnectRPC server streaming,
// dropped along with the rest of the admin surface), so monitor polls
// instead -- acceptable for V2G sessions, which live for seconds to
// minutes rather than the long-lived BFD peers the original streamed.
const pollInterval = 2 * time.Second

func monitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll and print live V2G sessions until interrupted",
		Long:  "Repeatedly lists sessions from the v2gsimd daemon until interrupted (Ctrl+C).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(pollInterval)
			defer ticker.Stop()

			for {
				views, err := client.listSessions(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("list sessions: %w", err)
				}

				out, err := formatSessions(views, outputFormat)
				if err != nil {
					return fmt.Errorf("format sessions: %w", err)
				}
				fmt.Printf("--- %s ---\n%s", time.Now().Format(time.RFC3339), out)

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	return cmd
}
