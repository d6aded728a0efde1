package main

import (
	"fmt"
	"strconv"
	"strings"

	"clipquiz/internal/app"
	"clipquiz/internal/domain"
	"clipquiz/internal/service"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const cliUserID = "quizctl"

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "generate <url>",
		Short: "Generate a quiz from a video without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json":
			default:
				return fmt.Errorf("unknown format %q (use table or json)", format)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			pipeline, err := app.BuildPipeline(cmd.Context(), cfg, ctx.logger())
			if err != nil {
				return err
			}
			draft, err := service.RunWithRetry(cmd.Context(), pipeline, cliUserID, args[0], cfg.Pipeline.Retry, ctx.logger())
			if err != nil {
				return err
			}

			if format == "json" {
				return writeJSON(cmd, draft)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderDraft(draft, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}

// renderDraft prints the title block followed by one row per question. The
// correct option is marked with an asterisk.
func renderDraft(draft *domain.QuizDraft, colorize bool) string {
	var b strings.Builder
	title := draft.Title
	if colorize {
		title = text.Bold.Sprint(title)
	}
	b.WriteString(title)
	b.WriteString("\n")
	if draft.Description != "" {
		b.WriteString(draft.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	rows := make([][]string, 0, len(draft.Questions))
	for i, q := range draft.Questions {
		options := make([]string, len(q.Options))
		for j, opt := range q.Options {
			marker := " "
			if opt == q.Answer {
				marker = "*"
			}
			options[j] = fmt.Sprintf("%s %c) %s", marker, 'A'+j, opt)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), q.QuestionTitle, strings.Join(options, "\n")})
	}
	b.WriteString(renderTable([]string{"#", "Question", "Options"}, rows, []columnAlignment{alignRight}))
	b.WriteString("\n")
	return b.String()
}
