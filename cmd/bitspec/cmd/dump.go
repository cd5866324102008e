package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/bitspec/pkg/dump"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <layout>",
	Short: "Show which bits each field consumed",
	Long: `Decode a buffer and print, for every field, the bit groups read for it
and the decoded value. Fields decoded before a failure are still printed.

Example:
  bitspec dump sensor --hex a2 --color`,
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
		buf, err := readBuffer(cmd)
		if err != nil {
			return err
		}
		color, _ := cmd.Flags().GetBool("color")
		return dump.Fprint(cmd.OutOrStdout(), l, buf, dump.Options{Color: color})
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	addBufferInputFlags(dumpCmd)
	dumpCmd.Flags().Bool("color", false, "Alternate colours between bit groups")
}
