package api

import (
	"github.com/ssargent/bitspec/pkg/layout"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind         string
	Port         int
	APIKey       string // Empty disables the X-API-Key check
	MaxBodyBytes int64  // Request body limit, 0 for 1 MiB
}

// FieldInfo describes one layout field
type FieldInfo struct {
	Name  string `json:"name"`
	Codec string `json:"codec"`
	Type  string `json:"type"`
}

// LayoutInfo describes a layout
type LayoutInfo struct {
	Name        string      `json:"name"`
	Fingerprint string      `json:"fingerprint"`
	Fields      []FieldInfo `json:"fields"`
}

func describe(l *layout.Layout) LayoutInfo {
	info := LayoutInfo{Name: l.Name(), Fingerprint: l.FingerprintHex()}
	for _, f := range l.Fields() {
		info.Fields = append(info.Fields, FieldInfo{
			Name:  f.Name,
			Codec: f.Codec.String(),
			Type:  f.Type().String(),
		})
	}
	return info
}

// BufferPayload carries an encoded buffer as hex plus its padding
type BufferPayload struct {
	Hex     string `json:"hex"`
	Padding int    `json:"padding"`
	Bits    int    `json:"bits,omitempty"`
	Binary  string `json:"binary,omitempty"`
}

// DumpField is one line of a bit dump
type DumpField struct {
	Name   string   `json:"name"`
	Value  any      `json:"value"`
	Groups []string `json:"groups"`
	Bits   int      `json:"bits"`
}

// DumpResponse is the result of a dump, including the fields decoded before
// a failure
type DumpResponse struct {
	Fields []DumpField `json:"fields"`
	Error  string      `json:"error,omitempty"`
}

// StoredRecord is a record and its storage id
type StoredRecord struct {
	ID     string         `json:"id"`
	Record *layout.Record `json:"record,omitempty"`
}
