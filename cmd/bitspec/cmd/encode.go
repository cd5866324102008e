package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/bitspec/pkg/recordlog"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <layout>",
	Short: "Encode a record",
	Long: `Encode a JSON, YAML or CBOR record with a layout and print the buffer.

Hex output carries the padding as a :N suffix when the content does not end
on a byte boundary, which decode --hex accepts back.

Examples:
  echo '{"id": 5, "count": 0, "samples": []}' | bitspec encode sensor
  bitspec encode sensor --in reading.yaml --input-format yaml --out bits
  bitspec encode sensor --in reading.json --log ./data/sensor.log`,
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

		data, err := readInput(cmd)
		if err != nil {
			return err
		}
		inFormat, _ := cmd.Flags().GetString("input-format")
		rec, err := parseRecord(data, inFormat)
		if err != nil {
			return err
		}

		buf, err := l.Encode(rec)
		if err != nil {
			return err
		}

		if logPath, _ := cmd.Flags().GetString("log"); logPath != "" {
			w, err := recordlog.NewWriter(recordlog.Config{Path: logPath})
			if err != nil {
				return fmt.Errorf("failed to open log: %w", err)
			}
			offset, err := w.Append(buf)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to append to log: %w", err)
			}
			a.log.Info("record appended",
				zap.String("layout", l.Name()),
				zap.String("log", logPath),
				zap.Int64("offset", offset),
			)
		}

		out, _ := cmd.Flags().GetString("out")
		return writeBuffer(cmd.OutOrStdout(), buf, out)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().String("in", "", "Input file (default stdin)")
	encodeCmd.Flags().String("input-format", "json", "Record format: json, yaml or cbor")
	encodeCmd.Flags().String("out", "hex", "Output encoding: hex, bits, raw or frame")
	encodeCmd.Flags().String("log", "", "Also append the buffer to this record log")
}
