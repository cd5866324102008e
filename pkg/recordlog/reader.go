package recordlog

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// Reader reads frames from a log file sequentially or by offset.
type Reader struct {
	file    *os.File
	reader  *bufio.Reader
	offset  int64
	maxSize int
}

// NewReader opens the log at path for reading from the start
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    file,
		reader:  bufio.NewReader(file),
		maxSize: bitio.DefaultMaxFrameSize,
	}, nil
}

// SetMaxFrameSize bounds the payload of frames read afterwards
func (r *Reader) SetMaxFrameSize(n int) {
	r.maxSize = n
}

// Next returns the next frame. It returns io.EOF at a clean end of the log
// and an error wrapping bitio.ErrCorruptData for a torn or damaged frame.
func (r *Reader) Next() (bitio.Buffer, error) {
	buf, err := bitio.ReadFrame(r.reader, r.maxSize)
	if err != nil {
		return bitio.Buffer{}, err
	}
	r.offset += int64(buf.FrameSize())
	return buf, nil
}

// ReadAt returns the frame starting at offset without moving the
// sequential position
func (r *Reader) ReadAt(offset int64) (bitio.Buffer, error) {
	section := io.NewSectionReader(r.file, offset, 1<<62)
	buf, err := bitio.ReadFrame(section, r.maxSize)
	if errors.Is(err, io.EOF) {
		return bitio.Buffer{}, io.ErrUnexpectedEOF
	}
	return buf, err
}

// Seek sets the sequential read offset
func (r *Reader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.reader = bufio.NewReader(r.file) // Recreate reader to clear buffer
	r.offset = offset
	return nil
}

// Offset returns the offset of the next frame
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the log file
func (r *Reader) Close() error {
	return r.file.Close()
}

// RecoveryResult describes a Recover pass
type RecoveryResult struct {
	FramesValidated int64
	Truncated       bool
	FileSizeBefore  int64
	FileSizeAfter   int64
	RecoveryTime    time.Duration
}

// Recover validates every frame of the log at path and truncates the file
// after the last valid frame. A missing file is not an error.
func Recover(path string) (*RecoveryResult, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &RecoveryResult{RecoveryTime: time.Since(start)}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &RecoveryResult{FileSizeBefore: info.Size(), FileSizeAfter: info.Size()}

	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	var corrupt bool
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, bitio.ErrCorruptData) {
			corrupt = true
			break
		}
		if err != nil {
			r.Close()
			return nil, err
		}
		result.FramesValidated++
	}
	valid := r.Offset()
	r.Close()

	if corrupt {
		if err := os.Truncate(path, valid); err != nil {
			return nil, err
		}
		result.Truncated = true
		result.FileSizeAfter = valid
	}
	result.RecoveryTime = time.Since(start)
	return result, nil
}
