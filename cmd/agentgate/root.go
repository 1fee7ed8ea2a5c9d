package main

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentgate-dev/agentgate/internal/config"
	"github.com/agentgate-dev/agentgate/pkg/apperrors"
	"github.com/agentgate-dev/agentgate/pkg/session"
)

// NewRootCmd creates the root agentgate command
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "agentgate",
		Short: "Tool-security gateway for coding agents",
		Long: `agentgate validates agent tool calls against a security policy and
manages the lifecycle of agent sessions.

Available subcommands:
  run         Execute one prompt through the gateway
  sessions    Inspect and maintain stored sessions

Examples:
  agentgate run "add tests for the parser" --dir /work/project --user 42
  agentgate sessions list --user 42
  agentgate sessions cleanup`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	cmd.AddCommand(NewRunCmd(&configPath))
	cmd.AddCommand(NewSessionsCmd(&configPath))

	return cmd
}

func buildLogger(cfg *config.Config) logr.Logger {
	var zl *zap.Logger
	var err error
	if cfg.Logging.Development {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		zl = zap.NewNop()
	}
	return zapr.NewLogger(zl)
}

func openStore(cfg *config.Config) (*gorm.DB, session.Store, error) {
	var db *gorm.DB
	var err error
	switch cfg.Database.Driver {
	case "postgres":
		db, err = session.OpenPostgres(cfg.Database.DSN)
	default:
		db, err = session.OpenSQLite(cfg.Database.Path)
	}
	if err != nil {
		return nil, nil, apperrors.New(apperrors.ErrCodeStoreFailure, "failed to open session database", err)
	}
	store, err := session.NewGormStore(db)
	if err != nil {
		return nil, nil, err
	}
	return db, store, nil
}
