package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentgate-dev/agentgate/internal/config"
	"github.com/agentgate-dev/agentgate/pkg/session"
)

// NewSessionsCmd creates the sessions command group
func NewSessionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and maintain stored sessions",
	}

	cmd.AddCommand(newSessionsListCmd(configPath))
	cmd.AddCommand(newSessionsCleanupCmd(configPath))

	return cmd
}

func newSessionsListCmd(configPath *string) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			_, store, err := openStore(cfg)
			if err != nil {
				return err
			}
			mgr := session.NewManager(store, cfg.Sessions.Timeout, buildLogger(cfg))

			sessions, err := mgr.UserSessions(cmd.Context(), userID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tPROJECT\tLAST USED\tMESSAGES\tCOST")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\n",
					s.SessionID, s.ProjectPath, s.LastUsed.Format("2006-01-02 15:04:05"), s.MessageCount, s.TotalCost)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user ID to list sessions for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newSessionsCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete sessions idle past the configured timeout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			_, store, err := openStore(cfg)
			if err != nil {
				return err
			}
			mgr := session.NewManager(store, cfg.Sessions.Timeout, buildLogger(cfg))

			removed, err := mgr.CleanupExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("removed %d expired sessions\n", removed)
			return nil
		},
	}
}
