package enum

import (
	"context"
)

// Enumerator discovers files to scan.
type Enumerator interface {
	// Enumerate yields the path of every eligible file. The callback may be
	// invoked from several goroutines at once.
	Enumerate(ctx context.Context, callback func(path string) error) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks yields symbolic links to files.
	FollowSymlinks bool

	// IncludeBinary yields files with NUL bytes in their first 8 KiB.
	IncludeBinary bool

	// Concurrency bounds the number of callbacks running at once
	// (0 = number of CPUs).
	Concurrency int
}
