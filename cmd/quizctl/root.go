package main

import (
	"sync"

	"clipquiz/internal/config"
	"clipquiz/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type commandContext struct {
	verbose *bool

	once   sync.Once
	config *config.Config
	err    error
}

// ensureConfig loads configuration once and points the logger at stderr so
// stdout stays reserved for command output.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			c.err = err
			return
		}
		cfg.Logger.Output = "stderr"
		if c.verbose == nil || !*c.verbose {
			cfg.Logger.Level = "warn"
		}
		if err := logger.Initialize(cfg.Logger); err != nil {
			c.err = err
			return
		}
		c.config = cfg
	})
	return c.config, c.err
}

func (c *commandContext) logger() *zap.Logger {
	return logger.Get()
}

func newRootCommand() *cobra.Command {
	var verbose bool
	ctx := &commandContext{verbose: &verbose}

	rootCmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "ClipQuiz operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warn")

	rootCmd.AddCommand(newModelCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
