package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies a stream codec by file extension.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// DetectCompression picks the codec from the last extension of p.
func DetectCompression(p string) Compression {
	switch strings.ToLower(path.Ext(p)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	}
	return CompressionNone
}

func withDecompression(f core.Fetcher, p string) core.Fetcher {
	c := DetectCompression(p)
	if c == CompressionNone {
		return f
	}
	return &decompressingFetcher{Fetcher: f, codec: c}
}

// decompressingFetcher wraps another fetcher's stream in a decoder.
type decompressingFetcher struct {
	core.Fetcher
	codec Compression
}

func (d *decompressingFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	rc, err := d.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	switch d.codec {
	case CompressionGzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%w: gzip: %w", core.ErrInvalidCSV, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%w: zstd: %w", core.ErrInvalidCSV, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	}
	return rc, nil
}

// stackedCloser closes the decoder before the underlying stream.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
