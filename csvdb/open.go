package csvdb

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// GzipSuffix marks datasets which are transparently decompressed by
// Open.
const GzipSuffix = ".gz"

type gzipFile struct {
	*gzip.Reader

	file afero.File
}

func (g gzipFile) Close() error {
	g.Reader.Close() // nolint: errcheck

	return g.file.Close()
}

// Open opens a dataset file from the given filesystem. If the name ends
// with .gz, a returned reader produces decompressed content.
func Open(fs afero.Fs, path string) (io.ReadCloser, error) {
	fp, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open a file %s: %w", path, err)
	}

	if !strings.HasSuffix(strings.ToLower(path), GzipSuffix) {
		return fp, nil
	}

	gzipReader, err := gzip.NewReader(bufio.NewReader(fp))
	if err != nil {
		fp.Close()

		return nil, fmt.Errorf("incorrect gzip archive %s: %w", path, err)
	}

	return gzipFile{
		Reader: gzipReader,
		file:   fp,
	}, nil
}
