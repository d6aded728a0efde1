package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"clipquiz/internal/adapter/transcriber"

	"github.com/spf13/cobra"
)

func newModelCommand(ctx *commandContext) *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the speech-to-text model",
	}
	modelCmd.AddCommand(newModelDownloadCommand(ctx))
	modelCmd.AddCommand(newModelStatusCommand(ctx))
	return modelCmd
}

func newModelDownloadCommand(ctx *commandContext) *cobra.Command {
	var model string
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the whisper model into the model directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tcfg := cfg.Transcriber
			if model != "" {
				tcfg.Model = model
			}

			start := time.Now()
			path, err := transcriber.NewProvisioner(tcfg, ctx.logger().Named("provision")).Download(cmd.Context(), force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s ready at %s (%s)\n", tcfg.Model, path, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model size ("+strings.Join(transcriber.KnownModels, ", ")+")")
	cmd.Flags().BoolVar(&force, "force", false, "Download even if a valid copy exists")
	return cmd
}

func newModelStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the configured model can be loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			model := transcriber.NewModel(cfg.Transcriber)
			_, loadErr := model.Load()
			health := model.Health()

			if asJSON {
				if err := writeJSON(cmd, health); err != nil {
					return err
				}
			} else {
				rows := [][]string{
					{"Model", health.Model},
					{"Path", health.Path},
					{"Loaded", strconv.FormatBool(health.ModelLoaded)},
				}
				if health.Message != "" {
					rows = append(rows, []string{"Message", health.Message})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			}
			if loadErr != nil {
				return fmt.Errorf("model unavailable, run `quizctl model download`: %w", loadErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}
