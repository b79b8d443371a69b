package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/himanishpuri/fpstore/pkg/acousticdna"
	"github.com/klauspost/compress/zstd"
)

// exportFingerprints writes every stored row as a "hash,song_id,offset"
// line through a zstd encoder. It returns the number of rows written.
func exportFingerprints(ctx context.Context, svc acousticdna.Service, w io.Writer, level zstd.EncoderLevel) (int64, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	if err != nil {
		return 0, fmt.Errorf("create zstd encoder: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	var n int64
	buf := make([]byte, 0, 64)
	for fp, err := range svc.Dump(ctx) {
		if err != nil {
			enc.Close()
			return n, err
		}
		buf = buf[:0]
		buf = append(buf, fp.Hash.String()...)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, uint64(fp.SongID), 10)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, uint64(fp.Offset), 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			enc.Close()
			return n, fmt.Errorf("write row: %w", err)
		}
		n++
	}

	if err := bw.Flush(); err != nil {
		enc.Close()
		return n, fmt.Errorf("flush: %w", err)
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("close zstd encoder: %w", err)
	}
	return n, nil
}

func parseLevel(name string) (zstd.EncoderLevel, error) {
	switch name {
	case "fastest":
		return zstd.SpeedFastest, nil
	case "", "default":
		return zstd.SpeedDefault, nil
	case "better":
		return zstd.SpeedBetterCompression, nil
	case "best":
		return zstd.SpeedBestCompression, nil
	default:
		return 0, fmt.Errorf("unknown compression level %q (fastest, default, better, best)", name)
	}
}
