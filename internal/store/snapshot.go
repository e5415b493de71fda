package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"codevision/internal/graph"
)

const snapshotEncoding = "zstd+json"

// snapshotCodec pairs an encoder and decoder. EncodeAll and DecodeAll are
// safe for concurrent use.
type snapshotCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newSnapshotCodec(opts ...zstd.EOption) (*snapshotCodec, error) {
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create snapshot decoder: %w", err)
	}
	return &snapshotCodec{encoder: enc, decoder: dec}, nil
}

var (
	codecOnce   sync.Once
	sharedCodec *snapshotCodec
	codecErr    error
)

func defaultCodec() (*snapshotCodec, error) {
	codecOnce.Do(func() {
		sharedCodec, codecErr = newSnapshotCodec(zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return sharedCodec, codecErr
}

func encodeSnapshot(m *graph.Model) (data []byte, rawSize int, err error) {
	codec, err := defaultCodec()
	if err != nil {
		return nil, 0, err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return codec.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/4)), len(raw), nil
}

func decodeSnapshot(data []byte, rawSize int) (*graph.Model, error) {
	codec, err := defaultCodec()
	if err != nil {
		return nil, err
	}
	raw, err := codec.decoder.DecodeAll(data, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	m := graph.New()
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return m, nil
}
