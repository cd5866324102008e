package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitspec/pkg/layout"
	"github.com/ssargent/bitspec/pkg/recordlog"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <layout>",
	Short: "Decode a buffer",
	Long: `Decode a buffer with a layout and print the record.

With --log every frame of a record log is decoded, in file order.

Examples:
  bitspec decode sensor --hex a0:1
  bitspec decode sensor --in packet.bin --input-format raw --padding 3 --format yaml
  bitspec decode sensor --log ./data/sensor.log --format cbor > records.cbor`,
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

		if logPath, _ := cmd.Flags().GetString("log"); logPath != "" {
			recs, err := decodeLog(l, logPath, a.cfg.Limits.MaxBufferBytes)
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), l, format, recs...)
		}

		buf, err := readBuffer(cmd)
		if err != nil {
			return err
		}
		rec, err := l.Decode(buf)
		if err != nil {
			return err
		}
		return writeRecords(cmd.OutOrStdout(), l, format, rec)
	},
}

// decodeLog decodes every frame of the log at path
func decodeLog(l *layout.Layout, path string, maxFrame int) ([]*layout.Record, error) {
	r, err := recordlog.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer r.Close()
	if maxFrame > 0 {
		r.SetMaxFrameSize(maxFrame)
	}

	var recs []*layout.Record
	for {
		offset := r.Offset()
		buf, err := r.Next()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return recs, fmt.Errorf("log offset %d: %w", offset, err)
		}
		rec, err := l.Decode(buf)
		if err != nil {
			return recs, fmt.Errorf("log offset %d: %w", offset, err)
		}
		recs = append(recs, rec)
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	addBufferInputFlags(decodeCmd)
	decodeCmd.Flags().StringP("format", "f", "json", "Output format: json, yaml, cbor or text")
	decodeCmd.Flags().String("log", "", "Decode every frame of this record log")
}
