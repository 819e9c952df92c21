package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"bangd/bang"
)

func printRecords(w io.Writer, records []bang.Record, scores []int) {
	headers := []string{"BANG", "NAME", "DOMAIN"}
	if scores != nil {
		headers = append(headers, "SCORE")
	}
	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for i, r := range records {
		row := []string{"!" + r.Key, r.Name, r.Domain}
		if scores != nil {
			row = append(row, strconv.Itoa(scores[i]))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.String())
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all bangs in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			records := reg.Records()
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bangs configured.")
				return nil
			}
			printRecords(cmd.OutOrStdout(), records, nil)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add [key] [name] [url] [domain]",
		Short: "Add a bang; the url uses {{{s}}} where the query goes",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			rec := bang.Record{Key: args[0], Name: args[1], URL: args[2], Category: category}
			if len(args) == 4 {
				rec.Domain = args[3]
			}
			added, err := reg.Add(cmd.Context(), rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added !%s (%s)\n", added.Key, added.Domain)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "optional category")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var key, name, url, domain string

	cmd := &cobra.Command{
		Use:   "edit [key]",
		Short: "Change fields of the first bang with key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			rec, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("!%s: %w", strings.TrimPrefix(args[0], "!"), bang.ErrNotFound)
			}

			flags := cmd.Flags()
			if flags.Changed("key") {
				rec.Key = key
			}
			if flags.Changed("name") {
				rec.Name = name
			}
			if flags.Changed("url") {
				rec.URL = url
				if !flags.Changed("domain") {
					rec.Domain = ""
				}
			}
			if flags.Changed("domain") {
				rec.Domain = domain
			}

			updated, err := reg.Update(cmd.Context(), rec.ID, rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated !%s\n", updated.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "new key")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&url, "url", "", "new url template")
	cmd.Flags().StringVar(&domain, "domain", "", "new domain")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [key]",
		Short: "Remove the first bang with key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			rec, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("!%s: %w", strings.TrimPrefix(args[0], "!"), bang.ErrNotFound)
			}
			if _, err := reg.Delete(cmd.Context(), rec.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed !%s\n", rec.Key)
			return nil
		},
	}
}

func (a *app) defaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default [key]",
		Short: "Show or set the default search engine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := reg.SetDefault(args[0]); err != nil {
					return err
				}
			}
			key := reg.Default()
			if rec, ok := reg.Find(key); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "!%s\t%s\n", rec.Key, rec.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "!%s\t(missing)\n", key)
			}
			return nil
		},
	}
}
