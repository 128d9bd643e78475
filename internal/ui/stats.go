package ui

import "sync/atomic"

type Stats struct {
	TotalPages    atomic.Int64
	SkippedPages  atomic.Int64
	TotalBytes    atomic.Int64
	TotalChapters atomic.Int64
}
