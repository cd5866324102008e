package cmd

import (
	"github.com/spf13/cobra"
)

// defaultsCmd represents the defaults command
var defaultsCmd = &cobra.Command{
	Use:   "defaults <layout>",
	Short: "Print a record filled with default values",
	Long: `Print the default record of a layout, a starting point for a record
file to pass to encode.

Example:
  bitspec defaults sensor --format yaml > reading.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		l, err := a.layoutArg(args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return writeRecords(cmd.OutOrStdout(), l, format, l.Defaults())
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
	defaultsCmd.Flags().StringP("format", "f", "json", "Output format: json, yaml, cbor or text")
}
