package bitio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// FrameHeaderSize is the size of the frame header: CRC32(4) + Padding(1) + Size(4).
const FrameHeaderSize = 9

// DefaultMaxFrameSize bounds the payload accepted by ReadFrame.
const DefaultMaxFrameSize = 64 << 20

// FrameSize returns the encoded size of b.
func (b Buffer) FrameSize() int {
	return FrameHeaderSize + len(b.data)
}

// MarshalBinary encodes b as [CRC32(4)][Padding(1)][Size(4)][Data].
func (b Buffer) MarshalBinary() ([]byte, error) {
	if uint64(len(b.data)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("buffer too large to frame: %d bytes", len(b.data))
	}
	out := make([]byte, b.FrameSize())
	out[4] = b.padding
	binary.LittleEndian.PutUint32(out[5:], uint32(len(b.data)))
	copy(out[FrameHeaderSize:], b.data)
	binary.LittleEndian.PutUint32(out[0:], crc32.ChecksumIEEE(out[4:]))
	return out, nil
}

// UnmarshalBinary decodes a frame produced by MarshalBinary. The frame must
// occupy all of data.
func (b *Buffer) UnmarshalBinary(data []byte) error {
	if len(data) < FrameHeaderSize {
		return fmt.Errorf("%w: frame too short for header: %d bytes", ErrCorruptData, len(data))
	}
	size := binary.LittleEndian.Uint32(data[5:9])
	if uint64(len(data)-FrameHeaderSize) != uint64(size) {
		return fmt.Errorf("%w: frame size %d, payload %d bytes", ErrCorruptData, size, len(data)-FrameHeaderSize)
	}
	return b.decodeFrame(data)
}

func (b *Buffer) decodeFrame(frame []byte) error {
	want := binary.LittleEndian.Uint32(frame[0:4])
	if got := crc32.ChecksumIEEE(frame[4:]); got != want {
		return fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorruptData, got, want)
	}
	buf, err := NewBuffer(frame[FrameHeaderSize:], int(frame[4]))
	if err != nil {
		return err
	}
	*b = buf
	return nil
}

// ReadFrame reads one frame from r. It returns io.EOF if r is exhausted
// before the first header byte, and ErrCorruptData for torn or damaged
// frames. maxSize <= 0 selects DefaultMaxFrameSize.
func ReadFrame(r io.Reader, maxSize int) (Buffer, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}

	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return Buffer{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Buffer{}, fmt.Errorf("%w: truncated frame header", ErrCorruptData)
		}
		return Buffer{}, err
	}

	size := binary.LittleEndian.Uint32(header[5:9])
	if uint64(size) > uint64(maxSize) {
		return Buffer{}, fmt.Errorf("%w: frame size %d exceeds limit %d", ErrCorruptData, size, maxSize)
	}

	frame := make([]byte, FrameHeaderSize+int(size))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[FrameHeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Buffer{}, fmt.Errorf("%w: truncated frame payload", ErrCorruptData)
		}
		return Buffer{}, err
	}

	var b Buffer
	if err := b.decodeFrame(frame); err != nil {
		return Buffer{}, err
	}
	return b, nil
}
