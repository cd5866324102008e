package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitspec/pkg/layout"
	"github.com/ssargent/bitspec/pkg/schemafile"
)

// schemaCmd groups the schema subcommands
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect layout schemas",
}

var schemaValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check schema files",
	Long: `Parse every given schema file and print its layout. Errors carry the
line of the offending node.

Example:
  bitspec schema validate schemas/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			l, err := schemafile.Load(path)
			if err != nil {
				return err
			}
			cmd.Printf("%s: ok\n", path)
			printLayout(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded layouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if a.layouts.Len() == 0 {
			cmd.Printf("No layouts loaded from %s\n", a.cfg.SchemaDir)
			return nil
		}
		for _, name := range a.layouts.Names() {
			l, err := a.layoutArg(name)
			if err != nil {
				return err
			}
			printLayout(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func printLayout(w io.Writer, l *layout.Layout) {
	fmt.Fprintf(w, "%s (%s)\n", l.Name(), l.FingerprintHex()[:16])
	for _, f := range l.Fields() {
		fmt.Fprintf(w, "  %s: %s\n", f.Name, f.Codec)
	}
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaValidateCmd)
	schemaCmd.AddCommand(schemaListCmd)
}
