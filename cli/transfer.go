package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bangd/transfer"
)

func (a *app) importCmd() *cobra.Command {
	var format string
	var replace bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import bangs from a JSON or YAML file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			f := transfer.FormatForPath(args[0])
			if format != "" {
				if f, err = transfer.ParseFormat(format); err != nil {
					return err
				}
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}

			doc, err := transfer.Import(in, f)
			if err != nil {
				return err
			}
			stats, err := reg.Import(cmd.Context(), doc.Bangs, replace)
			if err != nil {
				return err
			}
			if doc.Default != "" {
				if err := reg.SetDefault(doc.Default); err != nil {
					a.log.Sugar().Warnf("imported default !%s ignored: %v", doc.Default, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new, %d updated bangs\n", stats.Added, stats.Updated)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from file extension)")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace all bangs instead of merging by key")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bangs as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			f := transfer.FormatJSON
			if output != "" {
				f = transfer.FormatForPath(output)
			}
			if format != "" {
				if f, err = transfer.ParseFormat(format); err != nil {
					return err
				}
			}

			doc := transfer.Document{Bangs: reg.Records(), Default: reg.Default()}
			if output == "" {
				return transfer.Export(cmd.OutOrStdout(), doc, f)
			}

			file, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := transfer.Export(file, doc, f); err != nil {
				file.Close()
				return err
			}
			return file.Close()
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
