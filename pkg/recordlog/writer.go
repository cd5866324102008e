// Package recordlog is an append-only file of framed bit buffers.
//
// Each entry is a bitio frame, [CRC32][Padding][Size][Data], so a log can be
// scanned front to back without an index and a torn tail is detected by its
// checksum.
package recordlog

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// Config holds configuration for the log writer
type Config struct {
	Path          string        // Path to the log file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size, 0 for the bufio default
}

// Writer appends frames to a log file. It is safe for concurrent use.
type Writer struct {
	file       *os.File
	writer     *bufio.Writer
	fsyncTimer *time.Timer
	config     Config
	mutex      sync.Mutex
	offset     int64 // Current write offset
}

// NewWriter opens config.Path for appending, creating it if needed
func NewWriter(config Config) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	// Seek to end for append behavior
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, err
	}

	size := config.BufferSize
	if size <= 0 {
		size = 4096
	}
	w := &Writer{
		file:   file,
		writer: bufio.NewWriterSize(file, size),
		config: config,
		offset: end,
	}

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			_ = w.sync()
		})
	}

	return w, nil
}

// Append writes buf as one frame and returns the offset the frame starts at
func (w *Writer) Append(buf bitio.Buffer) (int64, error) {
	frame, err := buf.MarshalBinary()
	if err != nil {
		return 0, err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err := w.writer.Write(frame)
	if err != nil {
		return 0, err
	}
	offset := w.offset
	w.offset += int64(n)

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return offset, nil
}

// Sync flushes buffered frames and fsyncs the file
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close syncs and closes the log
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the log size including buffered frames
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *Writer) Path() string {
	return w.config.Path
}
