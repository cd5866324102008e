package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
	"github.com/ssargent/bitspec/pkg/dump"
	"github.com/ssargent/bitspec/pkg/layout"
	"github.com/ssargent/bitspec/pkg/storage"
)

const contentTypeOctetStream = "application/octet-stream"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]any{
		"status":  "healthy",
		"layouts": s.layouts.Len(),
	})
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	names := s.layouts.Names()
	infos := make([]LayoutInfo, 0, len(names))
	for _, name := range names {
		if l, ok := s.layouts.Get(name); ok {
			infos = append(infos, describe(l))
		}
	}
	sendSuccess(w, infos)
}

// layoutFor resolves the {name} parameter, writing a 404 if it is unknown
func (s *Server) layoutFor(w http.ResponseWriter, r *http.Request) (*layout.Layout, bool) {
	name := chi.URLParam(r, "name")
	l, ok := s.layouts.Get(name)
	if !ok {
		sendError(w, fmt.Sprintf("Unknown layout %q", name), http.StatusNotFound)
		return nil, false
	}
	return l, true
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	sendSuccess(w, describe(l))
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	sendSuccess(w, l.Defaults())
}

// readBody reads the request body up to the configured limit
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (s *Server) readRecord(w http.ResponseWriter, r *http.Request) (*layout.Record, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}
	var rec layout.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		sendError(w, fmt.Sprintf("Invalid JSON record: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return &rec, true
}

// readBuffer accepts either raw bytes with a padding query parameter or a
// JSON BufferPayload
func (s *Server) readBuffer(w http.ResponseWriter, r *http.Request) (bitio.Buffer, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return bitio.Buffer{}, false
	}

	var (
		data    []byte
		padding int
	)
	if r.Header.Get("Content-Type") == contentTypeOctetStream {
		data = body
		if p := r.URL.Query().Get("padding"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				sendError(w, "Invalid padding parameter", http.StatusBadRequest)
				return bitio.Buffer{}, false
			}
			padding = n
		}
	} else {
		var payload BufferPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			sendError(w, fmt.Sprintf("Invalid JSON buffer: %v", err), http.StatusBadRequest)
			return bitio.Buffer{}, false
		}
		decoded, err := hex.DecodeString(payload.Hex)
		if err != nil {
			sendError(w, "Invalid hex data", http.StatusBadRequest)
			return bitio.Buffer{}, false
		}
		data, padding = decoded, payload.Padding
	}

	buf, err := bitio.NewBuffer(data, padding)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return bitio.Buffer{}, false
	}
	return buf, true
}

func payloadOf(buf bitio.Buffer) BufferPayload {
	return BufferPayload{
		Hex:     hex.EncodeToString(buf.Bytes()),
		Padding: buf.Padding(),
		Bits:    buf.BitLen(),
		Binary:  buf.String(),
	}
}

// sendCodecError maps a failed codec pass to 422
func (s *Server) sendCodecError(w http.ResponseWriter, l *layout.Layout, op string, err error) {
	s.log.Debug("codec pass failed",
		zap.String("layout", l.Name()),
		zap.String("operation", op),
		zap.Error(err),
	)
	sendError(w, err.Error(), http.StatusUnprocessableEntity)
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	rec, ok := s.readRecord(w, r)
	if !ok {
		return
	}

	start := time.Now()
	buf, err := l.Encode(rec)
	s.metrics.RecordCodecOperation(l.Name(), "encode", buf.BitLen(), err, time.Since(start))
	if err != nil {
		s.sendCodecError(w, l, "encode", err)
		return
	}

	if r.Header.Get("Accept") == contentTypeOctetStream {
		w.Header().Set("Content-Type", contentTypeOctetStream)
		w.Header().Set("X-Bitspec-Padding", strconv.Itoa(buf.Padding()))
		_, _ = w.Write(buf.Bytes())
		return
	}
	sendSuccess(w, payloadOf(buf))
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	buf, ok := s.readBuffer(w, r)
	if !ok {
		return
	}

	start := time.Now()
	rec, err := l.Decode(buf)
	s.metrics.RecordCodecOperation(l.Name(), "decode", buf.BitLen(), err, time.Since(start))
	if err != nil {
		s.sendCodecError(w, l, "decode", err)
		return
	}
	sendSuccess(w, rec)
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	buf, ok := s.readBuffer(w, r)
	if !ok {
		return
	}

	traces, err := dump.Trace(l, buf)
	resp := DumpResponse{Fields: make([]DumpField, 0, len(traces))}
	for _, t := range traces {
		groups := make([]string, len(t.Groups))
		for i, g := range t.Groups {
			groups[i] = g.String()
		}
		resp.Fields = append(resp.Fields, DumpField{
			Name:   t.Name,
			Value:  codec.Plain(t.Value),
			Groups: groups,
			Bits:   t.Bits,
		})
	}
	if err != nil {
		resp.Error = err.Error()
		sendJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	sendSuccess(w, resp)
}

// requireStore writes a 503 when no store is configured
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		sendError(w, "Record storage is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) recordID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// sendStoreError maps storage failures to HTTP statuses
func (s *Server) sendStoreError(w http.ResponseWriter, l *layout.Layout, err error) {
	var fieldErr *layout.FieldError
	switch {
	case errors.As(err, &fieldErr), errors.Is(err, codec.ErrTrailingData):
		s.sendCodecError(w, l, "store", err)
	case errors.Is(err, storage.ErrBufferTooLarge):
		sendError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, storage.ErrNotFound):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrFingerprintMismatch):
		sendError(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error("store operation failed", zap.String("layout", l.Name()), zap.Error(err))
		sendError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	rec, ok := s.readRecord(w, r)
	if !ok {
		return
	}

	id, err := s.store.Put(l, rec)
	if err != nil {
		s.sendStoreError(w, l, err)
		return
	}
	sendJSON(w, http.StatusCreated, StoredRecord{ID: id.String()})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	ids, err := s.store.List(l.Name())
	if err != nil {
		s.sendStoreError(w, l, err)
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sendSuccess(w, out)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	id, ok := s.recordID(w, r)
	if !ok {
		return
	}
	rec, err := s.store.Get(l, id)
	if err != nil {
		s.sendStoreError(w, l, err)
		return
	}
	sendSuccess(w, StoredRecord{ID: id.String(), Record: rec})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	l, ok := s.layoutFor(w, r)
	if !ok {
		return
	}
	id, ok := s.recordID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(l.Name(), id); err != nil {
		s.sendStoreError(w, l, err)
		return
	}
	sendSuccess(w, map[string]string{"deleted": id.String()})
}
