package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/respondent-registry-api/internal/browser"
	"github.com/noah-isme/respondent-registry-api/internal/editor"
	"github.com/noah-isme/respondent-registry-api/internal/export"
	"github.com/noah-isme/respondent-registry-api/internal/service"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

type session struct {
	store   browser.Store
	variant validation.Variant
	close   func() error
}

type opener func(ctx context.Context) (*session, error)

func newRootCmd(open opener, logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "respondentctl",
		Short:        "Manage survey respondent records",
		SilenceUsage: true,
	}

	withBrowser := func(cmd *cobra.Command, fn func(*browser.Browser) error) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = s.close() }()

		b := browser.New(s.store, s.variant, logger)
		if err := b.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load respondents: %w", err)
		}
		return fn(b)
	}

	root.AddCommand(
		newListCmd(withBrowser),
		newExportCmd(withBrowser),
		newAddCmd(withBrowser),
		newEditCmd(withBrowser),
		newDeleteCmd(withBrowser),
	)
	return root
}

type browserRunner func(cmd *cobra.Command, fn func(*browser.Browser) error) error

type viewFlags struct {
	search string
	sort   string
	order  string
}

func (v *viewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&v.search, "search", "s", "", "case-insensitive filter on name and phone")
	cmd.Flags().StringVar(&v.sort, "sort", "", "column to sort by")
	cmd.Flags().StringVar(&v.order, "order", "asc", "sort direction (asc or desc)")
}

func (v *viewFlags) apply(b *browser.Browser) error {
	column, err := browser.ParseColumn(v.sort)
	if err != nil {
		return err
	}
	direction, err := browser.ParseDirection(v.order)
	if err != nil {
		return err
	}
	b.SetFilter(v.search)
	if column != "" {
		b.SetSort(column, direction)
	}
	return nil
}

func newListCmd(run browserRunner) *cobra.Command {
	var view viewFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List respondents with age and BMI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(b *browser.Browser) error {
				if err := view.apply(b); err != nil {
					return err
				}
				return printTable(cmd.OutOrStdout(), b)
			})
		},
	}
	view.bind(cmd)
	return cmd
}

func printTable(out io.Writer, b *browser.Browser) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tPHONE\tBMI\tCREATED AT")
	rows := b.Rows()
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.2f\t%s\n", row.ID, row.Name, row.Age, row.Phone, row.BMI, row.CreatedAt)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d of %d respondents\n", len(rows), b.Total())
	return err
}

func newExportCmd(run browserRunner) *cobra.Command {
	var (
		view   viewFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered and sorted view to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return run(cmd, func(b *browser.Browser) error {
				if err := view.apply(b); err != nil {
					return err
				}

				var buf bytes.Buffer
				filename, err := b.Export(&buf, parsed)
				if err != nil {
					return err
				}
				target := output
				if target == "" {
					target = filename
				}
				if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "exported %d respondents to %s\n", len(b.Rows()), target)
				return nil
			})
		},
	}
	view.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatCSV), "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default respondents_<date>.<ext>)")
	return cmd
}

func newAddCmd(run browserRunner) *cobra.Command {
	var fields map[string]string
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a respondent",
		Example: "respondentctl add --field name=Alice --field dob=2000-01-01 --field phone=+6281234567890 --field email=alice@example.com --field height=170 --field weight=70",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(b *browser.Browser) error {
				return submit(cmd, b.Create(cmd.Context()), fields)
			})
		},
	}
	cmd.Flags().StringToStringVar(&fields, "field", nil, "field=value pairs")
	return cmd
}

func newEditCmd(run browserRunner) *cobra.Command {
	var fields map[string]string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update fields of an existing respondent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(b *browser.Browser) error {
				session, ok := b.Edit(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("%s: %s", args[0], service.MessageNotFound)
				}
				return submit(cmd, session, fields)
			})
		},
	}
	cmd.Flags().StringToStringVar(&fields, "field", nil, "field=value pairs")
	return cmd
}

func submit(cmd *cobra.Command, session *editor.Editor, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := session.Set(key, fields[key]); err != nil {
			return err
		}
	}

	outcome, err := session.Submit(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, outcome.Message)
	for _, violation := range outcome.Violations {
		fmt.Fprintf(out, "  %s: %s\n", violation.Field, violation.Message)
	}
	if !outcome.Success {
		return errors.New(strings.TrimSuffix(outcome.Message, "."))
	}
	if outcome.Record != nil {
		fmt.Fprintf(out, "id=%s age=%d bmi=%.2f\n", outcome.Record.ID, outcome.Record.Age, outcome.Record.BMI)
	}
	return nil
}

func newDeleteCmd(run browserRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a respondent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(b *browser.Browser) error {
				err := b.Delete(cmd.Context(), args[0])
				fmt.Fprintln(cmd.OutOrStdout(), service.Result(service.OperationDelete, err).Message)
				return err
			})
		},
	}
}
