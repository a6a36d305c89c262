package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/JonMunkholm/detarget/internal/core"
)

// FileSource reads a local file.
type FileSource struct {
	Path string
}

// Fetch opens the file.
func (f *FileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", core.ErrResourceNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrFetchFailed, err)
	}
	return file, nil
}

// Locator returns the file path.
func (f *FileSource) Locator() string {
	return f.Path
}
