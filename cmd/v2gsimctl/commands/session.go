package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errPeerRequired is returned when a command needing a peer address was
// invoked without one.
var errPeerRequired = errors.New("peer address argument is required")

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect V2G sessions",
	}

	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionShowCmd())

	return cmd
}

// --- session list ---

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all live V2G sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := client.listSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out, err := formatSessions(views, outputFormat)
			if err != nil {
				return fmt.Errorf("format sessions: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}

// --- session show ---

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <peer-address>",
		Short: "Show details of one V2G session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errPeerRequired
			}

			view, err := client.getSession(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, errSessionNotFound) {
					return fmt.Errorf("session %s: %w", args[0], err)
				}
				return fmt.Errorf("get session: %w", err)
			}

			out, err := formatSession(view, outputFormat)
			if err != nil {
				return fmt.Errorf("format session: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}
