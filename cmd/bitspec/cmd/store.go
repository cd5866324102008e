package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/bitspec/pkg/storage"
)

// openStore opens the record store under the data directory
func openStore(a *app) (*storage.Store, error) {
	path := filepath.Join(a.cfg.DataDir, "records")
	return getContainer().GetStoreOpener()(path, storage.Options{
		MaxBufferBytes: a.cfg.Limits.MaxBufferBytes,
		Logger:         a.log,
	})
}

// withStore runs fn against an open store and closes it afterwards
func withStore(cmd *cobra.Command, fn func(a *app, st *storage.Store) error) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(a)
	if err != nil {
		return err
	}
	if err := fn(a, st); err != nil {
		st.Close()
		return err
	}
	return st.Close()
}

// storeCmd groups the record store subcommands
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored records",
	Long: `Put, get, list and delete records kept in the data directory. Records
are stored encoded, together with the fingerprint of their layout.`,
}

var storePutCmd = &cobra.Command{
	Use:   "put <layout>",
	Short: "Encode and store a record",
	Long: `Encode a record and store it under a new id.

Example:
  bitspec store put sensor --in reading.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(a *app, st *storage.Store) error {
			l, err := a.layoutArg(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("input-format")
			rec, err := parseRecord(data, format)
			if err != nil {
				return err
			}
			id, err := st.Put(l, rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		})
	},
}

var storeGetCmd = &cobra.Command{
	Use:   "get <layout> <id>",
	Short: "Get a stored record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(a *app, st *storage.Store) error {
			l, err := a.layoutArg(args[0])
			if err != nil {
				return err
			}
			id, err := ksuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", args[1], err)
			}
			rec, err := st.Get(l, id)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeRecords(cmd.OutOrStdout(), l, format, rec)
		})
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list <layout>",
	Short: "List record ids of a layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(a *app, st *storage.Store) error {
			ids, err := st.List(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id.String())
			}
			return nil
		})
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <layout> <id>",
	Short: "Delete a stored record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(a *app, st *storage.Store) error {
			id, err := ksuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", args[1], err)
			}
			if err := st.Delete(args[0], id); err != nil {
				return err
			}
			cmd.Printf("Deleted %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storePutCmd, storeGetCmd, storeListCmd, storeDeleteCmd)

	storePutCmd.Flags().String("in", "", "Input file (default stdin)")
	storePutCmd.Flags().String("input-format", "json", "Record format: json, yaml or cbor")
	storeGetCmd.Flags().StringP("format", "f", "json", "Output format: json, yaml, cbor or text")
}
