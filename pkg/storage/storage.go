// Package storage keeps encoded records in pebble, keyed by layout name and
// a time-ordered ksuid.
package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/layout"
)

var (
	// ErrNotFound is returned for ids with no stored record.
	ErrNotFound = errors.New("record not found")
	// ErrFingerprintMismatch is returned when a record was stored with a
	// layout that encodes differently from the one used to read it.
	ErrFingerprintMismatch = errors.New("layout fingerprint mismatch")
	// ErrBufferTooLarge is returned by writes over Options.MaxBufferBytes.
	ErrBufferTooLarge = errors.New("buffer too large")
)

const fingerprintSize = 32

// Options configures Open.
type Options struct {
	// FS overrides the filesystem, vfs.NewMem() in tests.
	FS vfs.FS
	// Sync makes every write durable before returning.
	Sync bool
	// MaxBufferBytes rejects larger buffers on Put. Zero means no limit.
	MaxBufferBytes int
	Logger         *zap.Logger
}

// Store is a pebble-backed record store. It is safe for concurrent use.
type Store struct {
	db    *pebble.DB
	write *pebble.WriteOptions
	max   int
	log   *zap.Logger
}

// Open opens or creates the store at path.
func Open(path string, opts Options) (*Store, error) {
	popts := &pebble.Options{}
	if opts.FS != nil {
		popts.FS = opts.FS
	}
	db, err := pebble.Open(path, popts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Store{db: db, write: pebble.NoSync, max: opts.MaxBufferBytes, log: opts.Logger}
	if opts.Sync {
		s.write = pebble.Sync
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

func recordKey(layoutName string, id ksuid.KSUID) []byte {
	key := append([]byte(layoutName), 0)
	return append(key, id.Bytes()...)
}

// Put encodes rec with l and stores it under a new id.
func (s *Store) Put(l *layout.Layout, rec *layout.Record) (ksuid.KSUID, error) {
	buf, err := l.Encode(rec)
	if err != nil {
		return ksuid.Nil, err
	}
	return s.PutBuffer(l, buf)
}

// PutBuffer stores an already encoded buffer under a new id. The buffer is
// decoded first so only records l can read back are stored.
func (s *Store) PutBuffer(l *layout.Layout, buf bitio.Buffer) (ksuid.KSUID, error) {
	if _, err := l.Decode(buf); err != nil {
		return ksuid.Nil, err
	}
	id := ksuid.New()
	if err := s.set(l, id, buf); err != nil {
		return ksuid.Nil, err
	}
	s.log.Debug("stored record",
		zap.String("layout", l.Name()),
		zap.Stringer("id", id),
		zap.Int("bits", buf.BitLen()),
	)
	return id, nil
}

// Update replaces the record stored under id.
func (s *Store) Update(l *layout.Layout, id ksuid.KSUID, rec *layout.Record) error {
	buf, err := l.Encode(rec)
	if err != nil {
		return err
	}
	if _, err := s.GetBuffer(l, id); err != nil {
		return err
	}
	return s.set(l, id, buf)
}

func (s *Store) set(l *layout.Layout, id ksuid.KSUID, buf bitio.Buffer) error {
	if s.max > 0 && buf.Len() > s.max {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrBufferTooLarge, buf.Len(), s.max)
	}
	frame, err := buf.MarshalBinary()
	if err != nil {
		return err
	}
	fp := l.Fingerprint()
	value := make([]byte, 0, fingerprintSize+len(frame))
	value = append(value, fp[:]...)
	value = append(value, frame...)

	if err := s.db.Set(recordKey(l.Name(), id), value, s.write); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// GetBuffer returns the stored buffer after checking it was written with a
// layout matching l.
func (s *Store) GetBuffer(l *layout.Layout, id ksuid.KSUID) (bitio.Buffer, error) {
	data, closer, err := s.db.Get(recordKey(l.Name(), id))
	if errors.Is(err, pebble.ErrNotFound) {
		return bitio.Buffer{}, fmt.Errorf("%w: %s/%s", ErrNotFound, l.Name(), id)
	}
	if err != nil {
		return bitio.Buffer{}, fmt.Errorf("failed to read record: %w", err)
	}
	defer closer.Close()

	if len(data) < fingerprintSize {
		return bitio.Buffer{}, fmt.Errorf("%w: short value for %s", bitio.ErrCorruptData, id)
	}
	fp := l.Fingerprint()
	if !bytes.Equal(data[:fingerprintSize], fp[:]) {
		return bitio.Buffer{}, fmt.Errorf("%w: %s/%s", ErrFingerprintMismatch, l.Name(), id)
	}

	// UnmarshalBinary copies, data is only valid until closer.Close.
	var buf bitio.Buffer
	if err := buf.UnmarshalBinary(data[fingerprintSize:]); err != nil {
		return bitio.Buffer{}, err
	}
	return buf, nil
}

// Get returns the decoded record stored under id.
func (s *Store) Get(l *layout.Layout, id ksuid.KSUID) (*layout.Record, error) {
	buf, err := s.GetBuffer(l, id)
	if err != nil {
		return nil, err
	}
	return l.Decode(buf)
}

// Delete removes the record stored under id. Deleting a missing id is not
// an error.
func (s *Store) Delete(layoutName string, id ksuid.KSUID) error {
	if err := s.db.Delete(recordKey(layoutName, id), s.write); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// List returns the ids stored for layoutName, oldest first.
func (s *Store) List(layoutName string) ([]ksuid.KSUID, error) {
	prefix := append([]byte(layoutName), 0)
	upper := append([]byte(layoutName), 1)

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key()[len(prefix):])
		if err != nil {
			return nil, fmt.Errorf("%w: bad key: %v", bitio.ErrCorruptData, err)
		}
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
