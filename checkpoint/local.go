package checkpoint

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/schwarzgo/internal/mmap"
	"github.com/hupe1980/schwarzgo/internal/resource"
)

const tempPattern = ".tmp-"

// LocalStore keeps snapshots as files under a root directory. Reads
// are memory-mapped, so Load decodes straight from the page cache.
// Writes go to a temp file that is fsynced and renamed into place; a
// crash never leaves a partial snapshot visible under its name.
type LocalStore struct {
	root string
	rc   *resource.Controller
}

// LocalOptions configure a LocalStore.
type LocalOptions struct {
	// Controller throttles snapshot IO and caps the memory pinned
	// by open mappings. Nil disables limiting.
	Controller *resource.Controller
}

// NewLocalStore creates a store rooted at dir, creating it if
// needed.
func NewLocalStore(dir string, optFns ...func(o *LocalOptions)) (*LocalStore, error) {
	var opts LocalOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create store root: %w", err)
	}

	return &LocalStore{root: dir, rc: opts.Controller}, nil
}

// path maps a snapshot name to a file path, rejecting names that
// would escape the root.
func (s *LocalStore) path(name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("checkpoint: invalid snapshot name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// Open implements Store. The file is mapped read-only and advised
// for the sequential scan a decode performs.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	m, err := mmap.Open(path)
	if err != nil {
		// os.ErrNotExist doubles as ErrNotFound.
		return nil, fmt.Errorf("checkpoint: open %q: %w", name, err)
	}

	if err := s.rc.AcquireMemory(int64(m.Size())); err != nil {
		m.Close()
		return nil, err
	}
	_ = m.Advise(mmap.AccessSequential)

	return &localBlob{m: m, rc: s.rc}, nil
}

// Create implements Store.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create %q: %w", name, err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+tempPattern+"*")
	if err != nil {
		return nil, fmt.Errorf("checkpoint: create %q: %w", name, err)
	}

	return &localWriter{
		f:    f,
		w:    resource.NewRateLimitedWriter(ctx, f, s.rc),
		path: path,
	}, nil
}

// Delete implements Store.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checkpoint: delete %q: %w", name, err)
	}
	return nil
}

// List implements Store. In-flight temp files are skipped.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		if strings.Contains(name, tempPattern) {
			return nil
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

type localBlob struct {
	m      *mmap.Mapping
	rc     *resource.Controller
	closed atomic.Bool
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := b.rc.AcquireIO(ctx, len(p)); err != nil {
		return 0, err
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

// Bytes implements Mappable.
func (b *localBlob) Bytes() ([]byte, error) {
	if b.closed.Load() {
		return nil, mmap.ErrClosed
	}
	return b.m.Bytes(), nil
}

func (b *localBlob) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.rc.ReleaseMemory(int64(b.m.Size()))
	return b.m.Close()
}

type localWriter struct {
	f    *os.File
	w    io.Writer
	path string
	done bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

func (w *localWriter) Sync() error {
	return w.f.Sync()
}

// Close fsyncs the temp file and renames it over the target name.
// The parent directory is fsynced afterwards so the rename itself
// survives a crash.
func (w *localWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(w.f.Name())
		return err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return err
	}
	if err := os.Rename(w.f.Name(), w.path); err != nil {
		os.Remove(w.f.Name())
		return err
	}

	return syncDir(filepath.Dir(w.path))
}

func (w *localWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	w.f.Close()
	return os.Remove(w.f.Name())
}

func syncDir(dir string) error {
	// Directory handles cannot be fsynced on Windows.
	if runtime.GOOS == "windows" {
		return nil
	}

	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sync()
}
