package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentgate-dev/agentgate/internal/config"
	"github.com/agentgate-dev/agentgate/pkg/boundary"
	"github.com/agentgate-dev/agentgate/pkg/gateway"
	"github.com/agentgate-dev/agentgate/pkg/session"
	"github.com/agentgate-dev/agentgate/pkg/validator"
)

// NewRunCmd creates the run command
func NewRunCmd(configPath *string) *cobra.Command {
	var (
		workingDir string
		userID     int64
		sessionID  string
		forceNew   bool
		timeout    time.Duration
		showStats  bool
	)

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Execute one prompt through the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := buildLogger(cfg)

			if workingDir == "" {
				workingDir, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			roots, err := boundary.NewRoots(append(cfg.Security.ApprovedDirectories, workingDir)...)
			if err != nil {
				return err
			}
			v := validator.New(cfg.ValidatorPolicy(), roots, validator.NewState(), log)

			_, store, err := openStore(cfg)
			if err != nil {
				return err
			}
			mgr := session.NewManager(store, cfg.Sessions.Timeout, log)

			engine, err := gateway.NewProcEngine(gateway.ProcEngineConfig{Timeout: timeout}, log)
			if err != nil {
				return err
			}

			gw := gateway.New(engine, mgr, v, nil, log)

			resp, err := gw.Run(cmd.Context(), gateway.Request{
				Prompt:           args[0],
				UserID:           userID,
				WorkingDirectory: workingDir,
				SessionID:        sessionID,
				ForceNew:         forceNew,
				OnStream: func(ev gateway.StreamEvent) {
					if ev.Type == "assistant" && ev.Content != "" {
						fmt.Println(ev.Content)
					}
				},
			})
			if err != nil {
				return err
			}

			if resp.IsError {
				fmt.Fprintf(os.Stderr, "error (%s): %s\n", resp.ErrorType, resp.Content)
			}
			if showStats {
				fmt.Printf("\nsession: %s  cost: $%.4f  turns: %d  duration: %dms\n",
					resp.SessionID, resp.Cost, resp.NumTurns, resp.DurationMS)
				for name, count := range v.State().Snapshot().ByTool {
					fmt.Printf("  %s: %d\n", name, count)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workingDir, "dir", "d", "", "working directory (default: current directory)")
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID owning the session")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to resume")
	cmd.Flags().BoolVar(&forceNew, "new", false, "force a fresh session")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "engine execution timeout")
	cmd.Flags().BoolVar(&showStats, "show-stats", false, "print cost and tool usage after the run")

	return cmd
}
