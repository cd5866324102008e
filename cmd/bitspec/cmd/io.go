package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/dump"
	"github.com/ssargent/bitspec/pkg/layout"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cmd: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("cmd: CBOR decoder initialization failed: " + err.Error())
	}
}

// readInput reads the file named by --in, or stdin for "" and "-"
func readInput(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("in")
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// parseRecord reads a json, yaml or cbor record
func parseRecord(data []byte, format string) (*layout.Record, error) {
	rec := layout.NewRecord()
	switch format {
	case "json":
		if err := json.Unmarshal(data, rec); err != nil {
			return nil, fmt.Errorf("invalid JSON record: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, rec); err != nil {
			return nil, fmt.Errorf("invalid YAML record: %w", err)
		}
	case "cbor":
		var m map[string]any
		if err := cborDec.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid CBOR record: %w", err)
		}
		for _, name := range sortedKeys(m) {
			rec.Set(name, m[name])
		}
	default:
		return nil, fmt.Errorf("unknown record format %q", format)
	}
	return rec, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeRecords writes recs as json, yaml, cbor or text. Several JSON
// records are written one per line, several YAML records as a multi-document
// stream and several CBOR records as a CBOR sequence.
func writeRecords(w io.Writer, l *layout.Layout, format string, recs ...*layout.Record) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		if len(recs) == 1 {
			enc.SetIndent("", "  ")
		}
		for _, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return enc.Close()
	case "cbor":
		enc := cborEnc.NewEncoder(w)
		for _, rec := range recs {
			if err := enc.Encode(rec.Map()); err != nil {
				return err
			}
		}
	case "text":
		for i, rec := range recs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := dump.FprintRecord(w, l, rec); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// parseHex reads "a0" or "a0:1", where the number after the colon is the
// padding
func parseHex(s string) (bitio.Buffer, error) {
	s = strings.TrimSpace(s)
	padding := 0
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		p, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return bitio.Buffer{}, fmt.Errorf("invalid padding %q", s[i+1:])
		}
		s, padding = s[:i], p
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return bitio.Buffer{}, fmt.Errorf("invalid hex data: %w", err)
	}
	return bitio.NewBuffer(data, padding)
}

func formatHex(buf bitio.Buffer) string {
	s := hex.EncodeToString(buf.Bytes())
	if buf.Padding() > 0 {
		s += ":" + strconv.Itoa(buf.Padding())
	}
	return s
}

// readBuffer reads the buffer to decode from --hex, or from the input in
// the --input-format encoding
func readBuffer(cmd *cobra.Command) (bitio.Buffer, error) {
	if h, _ := cmd.Flags().GetString("hex"); h != "" {
		return parseHex(h)
	}
	data, err := readInput(cmd)
	if err != nil {
		return bitio.Buffer{}, err
	}
	format, _ := cmd.Flags().GetString("input-format")
	switch format {
	case "hex":
		return parseHex(string(data))
	case "raw":
		padding, _ := cmd.Flags().GetInt("padding")
		return bitio.NewBuffer(data, padding)
	case "frame":
		var buf bitio.Buffer
		if err := buf.UnmarshalBinary(data); err != nil {
			return bitio.Buffer{}, err
		}
		return buf, nil
	}
	return bitio.Buffer{}, fmt.Errorf("unknown buffer format %q", format)
}

// writeBuffer writes buf as hex, bits, raw bytes or a checksummed frame
func writeBuffer(w io.Writer, buf bitio.Buffer, format string) error {
	switch format {
	case "hex":
		_, err := fmt.Fprintln(w, formatHex(buf))
		return err
	case "bits":
		_, err := fmt.Fprintln(w, buf.String())
		return err
	case "raw":
		_, err := w.Write(buf.Bytes())
		return err
	case "frame":
		frame, err := buf.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(frame)
		return err
	}
	return fmt.Errorf("unknown buffer format %q", format)
}

func addBufferInputFlags(c *cobra.Command) {
	c.Flags().String("hex", "", "Buffer as hex, with an optional :padding suffix (e.g. a0:1)")
	c.Flags().String("in", "", "Input file (default stdin)")
	c.Flags().String("input-format", "hex", "Input encoding: hex, raw or frame")
	c.Flags().Int("padding", 0, "Padding bits in the last byte of raw input")
}
