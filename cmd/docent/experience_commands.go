package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"docent/internal/ipc"
)

func newExperienceCommand(ctx *commandContext) *cobra.Command {
	experienceCmd := &cobra.Command{
		Use:     "experience",
		Aliases: []string{"exp"},
		Short:   "Manage experience definitions",
	}

	experienceCmd.AddCommand(newExperienceListCommand(ctx))
	experienceCmd.AddCommand(newExperienceShowCommand(ctx))
	experienceCmd.AddCommand(newExperienceImportCommand(ctx))
	experienceCmd.AddCommand(newExperienceValidateCommand(ctx))
	experienceCmd.AddCommand(newExperiencePublishCommand(ctx))

	return experienceCmd
}

func newExperienceListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored experiences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExperienceList()
				if err != nil {
					return fmt.Errorf("list experiences: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(resp.Experiences) == 0 {
					fmt.Fprintln(out, "No experiences stored")
					return nil
				}
				rows := make([][]string, 0, len(resp.Experiences))
				for _, exp := range resp.Experiences {
					rows = append(rows, []string{
						exp.ID,
						exp.Title,
						strconv.Itoa(len(exp.Steps)),
						outcomeLabel(exp.OutcomeType),
						yesNo(exp.Published),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{
						{header: "ID"},
						{header: "Title"},
						{header: "Steps", right: true},
						{header: "Outcome"},
						{header: "Published"},
					},
					rows,
				))
				return nil
			})
		},
	}
}

func newExperienceShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one experience with its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExperienceShow(args[0])
				if err != nil {
					return fmt.Errorf("show experience: %w", err)
				}
				exp := resp.Experience
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				publishKind := statusWarn
				if exp.Published {
					publishKind = statusOK
				}
				statusSection{
					title: exp.Title,
					lines: []statusLine{
						{"ID", statusInfo, exp.ID},
						{"Outcome", statusInfo, outcomeLabel(exp.OutcomeType)},
						{"Published", publishKind, yesNo(exp.Published)},
					},
				}.render(out, colorize)
				fmt.Fprintln(out)

				rows := make([][]string, 0, len(exp.Steps))
				for i, step := range exp.Steps {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						step.ID,
						stepTypeLabel(step.Type),
						step.Title,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{
						{header: "#", right: true},
						{header: "Step"},
						{header: "Type"},
						{header: "Title"},
					},
					rows,
				))
				return nil
			})
		},
	}
}

func newExperienceImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import an experience definition from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			definition, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read definition: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExperienceImport(definition)
				if err != nil {
					return fmt.Errorf("import experience: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported experience %s\n", resp.ID)
				return nil
			})
		},
	}
}

func newExperienceValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>",
		Short: "Validate an experience's outcome configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExperienceValidate(args[0])
				if err != nil {
					return fmt.Errorf("validate experience: %w", err)
				}
				out := cmd.OutOrStdout()
				if resp.Valid {
					fmt.Fprintln(out, "Outcome configuration valid")
					return nil
				}
				fmt.Fprintln(out, renderValidationTable(resp.Errors))
				return fmt.Errorf("outcome configuration has %d error(s)", len(resp.Errors))
			})
		},
	}
}

func newExperiencePublishCommand(ctx *commandContext) *cobra.Command {
	var unpublish bool

	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish an experience so guests can start sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExperiencePublish(args[0], !unpublish)
				if err != nil {
					return fmt.Errorf("publish experience: %w", err)
				}
				out := cmd.OutOrStdout()
				if unpublish {
					fmt.Fprintf(out, "Experience %s unpublished\n", args[0])
					return nil
				}
				if resp.Published {
					fmt.Fprintf(out, "Experience %s published\n", args[0])
					return nil
				}
				fmt.Fprintln(out, renderValidationTable(resp.Errors))
				return fmt.Errorf("publish refused: outcome configuration has %d error(s)", len(resp.Errors))
			})
		},
	}

	cmd.Flags().BoolVar(&unpublish, "unpublish", false, "Withdraw the experience instead")
	return cmd
}

func renderValidationTable(issues []ipc.ValidationIssue) string {
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{issue.Field, issue.Message, issue.StepID})
	}
	return renderTable(
		[]column{{header: "Field"}, {header: "Problem"}, {header: "Step"}},
		rows,
	)
}

var titleCaser = cases.Title(language.Und)

// stepTypeLabel renders a step type like "input.yesNo" as "Input / Yes No".
func stepTypeLabel(raw string) string {
	parts := strings.Split(raw, ".")
	for i, part := range parts {
		words := splitCamel(part)
		parts[i] = titleCaser.String(strings.Join(words, " "))
	}
	return strings.Join(parts, " / ")
}

func outcomeLabel(raw string) string {
	if raw == "" {
		return "Survey"
	}
	return stepTypeLabel(raw)
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}
