package imaging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// File is one selected input.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// BytesFile wraps in-memory content.
func BytesFile(name string, data []byte) File {
	return File{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

// PathFile opens path lazily.
func PathFile(path string) File {
	return File{Name: filepath.Base(path), Open: func() (io.ReadCloser, error) {
		return os.Open(path)
	}}
}

// Batch holds per-file outcomes in selection order. Images only contains
// successes; Errors only failures.
type Batch struct {
	Images []Image
	Errors []*DecodeError
}

// ProcessBatch compresses files independently with at most workers running
// at once. A cancelled context marks the files not yet started as failed.
func ProcessBatch(ctx context.Context, files []File, opts Options, workers int) Batch {
	if workers <= 0 {
		workers = 1
	}
	type outcome struct {
		img Image
		err *DecodeError
	}
	outcomes := make([]outcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			img, err := compressFile(gctx, file, opts)
			if err != nil {
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					decodeErr = &DecodeError{Name: file.Name, Err: err}
				}
				outcomes[i] = outcome{err: decodeErr}
				return nil
			}
			outcomes[i] = outcome{img: img}
			return nil
		})
	}
	_ = g.Wait()

	var batch Batch
	for _, o := range outcomes {
		if o.err != nil {
			batch.Errors = append(batch.Errors, o.err)
			continue
		}
		batch.Images = append(batch.Images, o.img)
	}
	return batch
}

func compressFile(ctx context.Context, file File, opts Options) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, &DecodeError{Name: file.Name, Err: err}
	}
	if file.Open == nil {
		return Image{}, &DecodeError{Name: file.Name, Err: errors.New("no content")}
	}
	rc, err := file.Open()
	if err != nil {
		return Image{}, &DecodeError{Name: file.Name, Err: err}
	}
	defer rc.Close()
	return Compress(file.Name, rc, opts)
}
