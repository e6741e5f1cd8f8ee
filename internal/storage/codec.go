package storage

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var ErrUnknownCompression = errors.New("storage: unknown compression")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder(w io.Writer) (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		enc := v.(*zstd.Encoder)
		enc.Reset(w)
		return enc, nil
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
}

func getZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		dec := v.(*zstd.Decoder)
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return dec, nil
	}
	return zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
}

// trajectoryFile maps a codec name to the trajectory file name.
func trajectoryFile(codec string) (string, error) {
	switch codec {
	case "", "none":
		return "trajectory.csv", nil
	case "zstd":
		return "trajectory.csv.zst", nil
	case "lz4":
		return "trajectory.csv.lz4", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompression, codec)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type pooledZstdWriter struct{ *zstd.Encoder }

func (w pooledZstdWriter) Close() error {
	err := w.Encoder.Close()
	zstdEncoderPool.Put(w.Encoder)
	return err
}

// compressWriter wraps w with the named codec. Closing the returned writer
// flushes the codec but does not close w.
func compressWriter(w io.Writer, codec string) (io.WriteCloser, error) {
	switch codec {
	case "", "none":
		return nopWriteCloser{w}, nil
	case "zstd":
		enc, err := getZstdEncoder(w)
		if err != nil {
			return nil, err
		}
		return pooledZstdWriter{enc}, nil
	case "lz4":
		return lz4.NewWriter(w), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, codec)
}

// decompressReader wraps r with the named codec. The release func returns
// pooled state and must be called once reading is done.
func decompressReader(r io.Reader, codec string) (io.Reader, func(), error) {
	switch codec {
	case "", "none":
		return r, func() {}, nil
	case "zstd":
		dec, err := getZstdDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() { zstdDecoderPool.Put(dec) }, nil
	case "lz4":
		return lz4.NewReader(r), func() {}, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCompression, codec)
}
