package cli

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bangd/bang"
	"bangd/tui"
)

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [query...]",
		Short: "Print the URL a query redirects to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			res, err := reg.Resolve(strings.Join(args, " "))
			if err != nil {
				if errors.Is(err, bang.ErrUnresolved) {
					if s := reg.Suggest(res.Candidate); len(s) > 0 {
						return fmt.Errorf("%w; did you mean !%s?", err, strings.Join(s, ", !"))
					}
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [terms and filters...]",
		Short: "Rank bangs, e.g. search gh domain:github",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			_, scored := reg.Search(strings.Join(args, " "))
			if len(scored) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching bangs.")
				return nil
			}
			records := make([]bang.Record, len(scored))
			scores := make([]int, len(scored))
			for i, s := range scored {
				records[i], scores[i] = s.Record, s.Score
			}
			printRecords(cmd.OutOrStdout(), records, scores)
			return nil
		},
	}
}

func (a *app) pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick a bang interactively and print the resulting URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.New(reg.Records(), reg.Resolve),
				tea.WithContext(cmd.Context()),
				tea.WithOutput(cmd.ErrOrStderr()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if res, ok := final.(tui.Model).Chosen(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			}
			return nil
		},
	}
}
