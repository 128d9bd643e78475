package downloader

import (
	"io"

	"github.com/brogergvhs/mangasee/internal/chapters"
)

// Batches splits recs into consecutive groups of at most limit chapters.
// A limit below 1 puts everything in one batch.
func Batches(recs []chapters.Record, limit int) [][]chapters.Record {
	if len(recs) == 0 {
		return nil
	}
	if limit < 1 || limit > len(recs) {
		limit = len(recs)
	}

	out := make([][]chapters.Record, 0, (len(recs)+limit-1)/limit)
	for start := 0; start < len(recs); start += limit {
		end := min(start+limit, len(recs))
		out = append(out, recs[start:end])
	}

	return out
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(done int64)) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		nr, er := src.Read(buf)

		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])

			if nw > 0 {
				total += int64(nw)
				if progress != nil {
					progress(total)
				}
			}

			if ew != nil {
				return total, ew
			}

			if nr != nw {
				return total, io.ErrShortWrite
			}
		}

		if er != nil {
			if er == io.EOF {
				break
			}
			return total, er
		}
	}

	return total, nil
}
