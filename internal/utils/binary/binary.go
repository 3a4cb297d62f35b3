// internal/utils/binary/binary.go
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	Uint8Size  = 1
	Uint64Size = 8
	Key32Size  = solana.PublicKeyLength
)

var (
	// ErrShortBuffer is returned when a read would run past the end of the buffer.
	ErrShortBuffer = errors.New("short buffer")

	// ErrBufferOverflow is returned when a write would run past the end of a
	// pre-sized buffer. It always indicates a programming error.
	ErrBufferOverflow = errors.New("buffer overflow")
)

func need(data []byte, offset, size int) error {
	if offset < 0 || offset+size > len(data) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, size, offset, len(data))
	}
	return nil
}

// GetUint8 reads a byte at *offset and advances the offset.
func GetUint8(src []byte, dst *uint8, offset *int) error {
	if err := need(src, *offset, Uint8Size); err != nil {
		return err
	}
	*dst = src[*offset]
	*offset += Uint8Size
	return nil
}

// GetUint64 reads a little-endian uint64 at *offset and advances the offset.
func GetUint64(src []byte, dst *uint64, offset *int) error {
	if err := need(src, *offset, Uint64Size); err != nil {
		return err
	}
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += Uint64Size
	return nil
}

// GetKey32 reads a raw 32-byte public key at *offset and advances the offset.
func GetKey32(src []byte, dst *solana.PublicKey, offset *int) error {
	if err := need(src, *offset, Key32Size); err != nil {
		return err
	}
	copy(dst[:], src[*offset:*offset+Key32Size])
	*offset += Key32Size
	return nil
}

// PutUint8 writes a byte at *offset and advances the offset.
func PutUint8(dst []byte, v uint8, offset *int) error {
	if err := need(dst, *offset, Uint8Size); err != nil {
		return fmt.Errorf("%w: %v", ErrBufferOverflow, err)
	}
	dst[*offset] = v
	*offset += Uint8Size
	return nil
}

// PutUint64 writes a little-endian uint64 at *offset and advances the offset.
func PutUint64(dst []byte, v uint64, offset *int) error {
	if err := need(dst, *offset, Uint64Size); err != nil {
		return fmt.Errorf("%w: %v", ErrBufferOverflow, err)
	}
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += Uint64Size
	return nil
}

// PutKey32 writes the raw 32 bytes of key at *offset and advances the offset.
func PutKey32(dst []byte, key solana.PublicKey, offset *int) error {
	if err := need(dst, *offset, Key32Size); err != nil {
		return fmt.Errorf("%w: %v", ErrBufferOverflow, err)
	}
	copy(dst[*offset:], key[:])
	*offset += Key32Size
	return nil
}

// PutBytes copies raw bytes (e.g. a discriminator) at *offset and advances the offset.
func PutBytes(dst []byte, v []byte, offset *int) error {
	if err := need(dst, *offset, len(v)); err != nil {
		return fmt.Errorf("%w: %v", ErrBufferOverflow, err)
	}
	copy(dst[*offset:], v)
	*offset += len(v)
	return nil
}
