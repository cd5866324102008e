package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/bitspec/pkg/recordlog"
)

// recoverCmd represents the recover command
var recoverCmd = &cobra.Command{
	Use:   "recover <log>",
	Short: "Truncate a record log after its last valid frame",
	Long: `Scan a record log, validating every frame checksum, and cut off a torn
or damaged tail left by an interrupted write.

Example:
  bitspec recover ./data/sensor.log`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		res, err := recordlog.Recover(args[0])
		if err != nil {
			return err
		}
		a.log.Info("record log recovered",
			zap.String("log", args[0]),
			zap.Int64("frames", res.FramesValidated),
			zap.Bool("truncated", res.Truncated),
			zap.Duration("duration", res.RecoveryTime),
		)
		cmd.Printf("Validated %d frames\n", res.FramesValidated)
		if res.Truncated {
			cmd.Printf("Truncated %d bytes (%d -> %d)\n",
				res.FileSizeBefore-res.FileSizeAfter, res.FileSizeBefore, res.FileSizeAfter)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
