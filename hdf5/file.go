package hdf5

import (
	"os"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// File is an open HDF5 file. The object hierarchy is held in memory;
// writable files are serialized on Flush and Close.
type File struct {
	mu       sync.Mutex
	path     string
	osFile   *os.File
	writable bool
	closed   bool
	version  uint8
	root     *node
	log      *zap.Logger
}

// Create creates a new, empty HDF5 file at path, truncating any existing file.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}
	osFile, err := os.Create(path)
	if err != nil {
		return nil, wrap("create", path, err)
	}
	f := &File{
		path:     path,
		osFile:   osFile,
		writable: true,
		version:  2,
		root:     &node{},
		log:      options.logger,
	}
	if err := f.Flush(); err != nil {
		return nil, multierr.Append(err, osFile.Close())
	}
	return f, nil
}

// Open opens an existing file read-only.
func Open(path string, opts ...FileOption) (*File, error) {
	return open(path, false, opts)
}

// OpenReadWrite opens an existing file for modification.
func OpenReadWrite(path string, opts ...FileOption) (*File, error) {
	return open(path, true, opts)
}

func open(path string, writable bool, opts []FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	osFile, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, wrap("open", path, err)
	}
	f := &File{path: path, osFile: osFile, writable: writable, log: options.logger}
	if err := f.load(); err != nil {
		return nil, multierr.Append(wrap("open", path, err), osFile.Close())
	}
	if !writable {
		// The hierarchy is fully loaded
		if err := osFile.Close(); err != nil {
			return nil, wrap("open", path, err)
		}
		f.osFile = nil
	}
	return f, nil
}

// Path returns the file system path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.version)
}

// IsWritable reports whether changes will be persisted.
func (f *File) IsWritable() bool {
	return f.writable
}

// Root returns the root group.
func (f *File) Root() *Group {
	return &Group{Location{file: f, node: f.root, path: "/"}}
}

// OpenGroup opens a group by absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	return f.Root().OpenGroup(path)
}

// OpenDataset opens a dataset by absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	return f.Root().OpenDataset(path)
}

// Flush writes the hierarchy to disk.
func (f *File) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushLocked()
}

func (f *File) flushLocked() error {
	if f.closed {
		return wrap("flush", f.path, ErrClosed)
	}
	if !f.writable {
		return nil
	}
	data, err := encodeFile(f.root)
	if err != nil {
		return wrap("flush", f.path, err)
	}
	if err := f.osFile.Truncate(0); err != nil {
		return wrap("flush", f.path, err)
	}
	if _, err := f.osFile.WriteAt(data, 0); err != nil {
		return wrap("flush", f.path, err)
	}
	f.log.Debug("flushed hdf5 file", zap.String("path", f.path), zap.Int("bytes", len(data)))
	return nil
}

// Close flushes a writable file and releases it. Closing twice is a no-op.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	var err error
	if f.writable {
		err = f.flushLocked()
	}
	if f.osFile != nil {
		err = multierr.Append(err, f.osFile.Close())
	}
	f.closed = true
	return err
}

func (f *File) checkWritable(op, path string) error {
	if f.closed {
		return wrap(op, path, ErrClosed)
	}
	if !f.writable {
		return wrap(op, path, ErrReadOnly)
	}
	return nil
}
