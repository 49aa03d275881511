package enum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"golang.org/x/sync/errgroup"
)

const binarySniffSize = 8192

// FilesystemEnumerator enumerates files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Walk returns the eligible file paths under Root in lexical order.
// A Root that is a regular file yields just that file.
func (e *FilesystemEnumerator) Walk(ctx context.Context) ([]string, error) {
	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(e.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	var files []string
	err := filepath.Walk(e.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != e.config.Root && !e.config.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			if ignore != nil && path != e.config.Root && e.ignored(ignore, path+string(filepath.Separator)) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		if e.config.MaxFileSize > 0 && info.Size() > e.config.MaxFileSize {
			return nil
		}

		if ignore != nil && e.ignored(ignore, path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Enumerate walks the filesystem and yields file paths.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Sniff files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback func(path string) error) error {
	files, err := e.Walk(ctx)
	if err != nil {
		return err
	}

	numWorkers := e.config.Concurrency
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan string, numWorkers*2)

	// Feed paths to workers
	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numWorkers; i++ {
		g.Go(func() error {
			for path := range pathsCh {
				if err := e.processFile(ctx, path, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

// processFile skips binary files and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, path string, callback func(path string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !e.config.IncludeBinary {
		binary, err := sniffBinary(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if binary {
			return nil
		}
	}

	return callback(path)
}

func (e *FilesystemEnumerator) ignored(ignore *gitignore.GitIgnore, path string) bool {
	relPath, err := filepath.Rel(e.config.Root, path)
	if err != nil {
		return false
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		relPath += "/"
	}
	return ignore.MatchesPath(filepath.ToSlash(relPath))
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

func sniffBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, binarySniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return isBinary(head[:n]), nil
}

// isBinary detects if content is binary by checking first 8KB for null bytes.
func isBinary(content []byte) bool {
	checkSize := len(content)
	if checkSize > binarySniffSize {
		checkSize = binarySniffSize
	}
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
