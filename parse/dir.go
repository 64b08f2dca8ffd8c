package parse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"busmap.dev/busmap/storage"
)

// ParseDir loads a static feed from a directory of loose .txt files,
// the layout agencies tend to publish for download-and-unpack use.
func ParseDir(writer storage.FeedWriter, dir string) (*storage.FeedMetadata, error) {
	file := map[string]io.ReadCloser{}
	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	for _, name := range feedFiles {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("missing %s: %w", name, err)
		}
		file[name] = f
	}

	return parseFiles(writer, file)
}
