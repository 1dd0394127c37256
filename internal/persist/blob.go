package persist

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrChecksum     = errors.New("save blob checksum mismatch")
	ErrNotABlob     = errors.New("not a save blob")
	ErrInvalidSlot  = errors.New("invalid save slot name")
	ErrSlotNotFound = errors.New("save slot not found")
)

// Blob layout: magic | version | zstd(payload) | blake2b-256(everything before).
var blobMagic = []byte("ASAV")

const (
	blobVersion  = 1
	checksumSize = blake2b.Size256
	maxPayload   = 256 << 20
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayload))
)

// EncodeBlob compresses a serialized level and seals it with a checksum.
func EncodeBlob(payload []byte) []byte {
	out := make([]byte, 0, len(payload)/2+len(blobMagic)+1+checksumSize)
	out = append(out, blobMagic...)
	out = append(out, blobVersion)
	out = encoder.EncodeAll(payload, out)
	sum := blake2b.Sum256(out)
	return append(out, sum[:]...)
}

// DecodeBlob verifies and decompresses a blob made by EncodeBlob.
func DecodeBlob(blob []byte) ([]byte, error) {
	head := len(blobMagic) + 1
	if len(blob) < head+checksumSize || !bytes.Equal(blob[:len(blobMagic)], blobMagic) {
		return nil, ErrNotABlob
	}
	if v := blob[len(blobMagic)]; v != blobVersion {
		return nil, fmt.Errorf("blob version %d: %w", v, ErrNotABlob)
	}
	body, trailer := blob[:len(blob)-checksumSize], blob[len(blob)-checksumSize:]
	sum := blake2b.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return nil, ErrChecksum
	}
	payload, err := decoder.DecodeAll(body[head:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress blob: %w", err)
	}
	return payload, nil
}
