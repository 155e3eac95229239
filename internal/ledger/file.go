package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// FileStore keeps one key per line in a plain text file.
type FileStore struct {
	path string
}

// NewFileStore returns a store at path. The file is created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ReadAll implements Store.
func (f *FileStore) ReadAll(_ context.Context) (Set, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(Set), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	s := make(Set)
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		s.Add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return s, nil
}

// AppendLine implements Store. The line is written with a single append
// write and synced. If a previous write was torn and left the file without
// a trailing newline, one is written first so that entry stays separate.
func (f *FileStore) AppendLine(_ context.Context, line string) error {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}

	buf := make([]byte, 0, len(line)+2)
	torn, err := missingTrailingNewline(file)
	if err != nil {
		file.Close()
		return err
	}
	if torn {
		buf = append(buf, '\n')
	}
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := file.Write(buf); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync %s: %w", f.path, err)
	}
	return file.Close()
}

func missingTrailingNewline(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", file.Name(), err)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read tail %s: %w", file.Name(), err)
	}
	return last[0] != '\n', nil
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }
