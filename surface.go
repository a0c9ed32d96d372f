package sketchview

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Surface is a drawing target acquired for a single render. Close finalizes
// it; the chart is only visible once Close returns nil.
type Surface interface {
	Write(p []byte) (int, error)
	Close() error
}

// SurfaceResolver turns a surface handle into a live Surface. Failing to
// resolve is reported as a *ConfigurationError.
type SurfaceResolver interface {
	Resolve(id string) (Surface, error)
}

// DirSurfaces resolves handles to image files in a directory.
type DirSurfaces struct {
	dir    string
	format Format
}

// NewDirSurfaces returns a resolver writing <dir>/<id>.<format>.
func NewDirSurfaces(dir string, format Format) *DirSurfaces {
	return &DirSurfaces{dir: dir, format: format}
}

// Path returns the file a handle resolves to.
func (d *DirSurfaces) Path(id string) string {
	return filepath.Join(d.dir, id+"."+string(d.format))
}

// Resolve ...
func (d *DirSurfaces) Resolve(id string) (Surface, error) {
	if id == "" || filepath.Base(id) != id {
		return nil, &ConfigurationError{Surface: id, Err: errors.New("invalid surface handle")}
	}
	info, err := os.Stat(d.dir)
	if err != nil {
		return nil, &ConfigurationError{Surface: id, Err: errors.Wrap(err, "stat surface directory")}
	}
	if !info.IsDir() {
		return nil, &ConfigurationError{Surface: id, Err: errors.Errorf("%s is not a directory", d.dir)}
	}
	tmp, err := ioutil.TempFile(d.dir, "."+id+"-*")
	if err != nil {
		return nil, &ConfigurationError{Surface: id, Err: errors.Wrap(err, "create surface file")}
	}
	// TempFile creates 0600 files; published charts are world readable.
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, &ConfigurationError{Surface: id, Err: errors.Wrap(err, "chmod surface file")}
	}
	return &fileSurface{tmp: tmp, path: d.Path(id)}, nil
}

// fileSurface writes to a temp file that replaces the target on Close, so a
// failed render never leaves a truncated image behind.
type fileSurface struct {
	tmp    *os.File
	path   string
	failed bool
	closed bool
}

func (f *fileSurface) Write(p []byte) (int, error) {
	n, err := f.tmp.Write(p)
	if err != nil {
		f.failed = true
	}
	return n, err
}

// Abort discards the surface without publishing it.
func (f *fileSurface) Abort() {
	f.failed = true
}

func (f *fileSurface) Close() error {
	if f.closed {
		return errSurfaceClosed
	}
	f.closed = true
	name := f.tmp.Name()
	if err := f.tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "close surface file")
	}
	if f.failed {
		return os.Remove(name)
	}
	if err := os.Rename(name, f.path); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "publish surface file")
	}
	return nil
}

// MemorySurfaces keeps the last finished image of each registered handle in
// memory. It is safe for concurrent use.
type MemorySurfaces struct {
	sync.RWMutex
	images map[string][]byte
}

// NewMemorySurfaces returns a resolver that accepts only the given handles.
func NewMemorySurfaces(ids ...string) *MemorySurfaces {
	m := &MemorySurfaces{images: make(map[string][]byte, len(ids))}
	for _, id := range ids {
		m.images[id] = nil
	}
	return m
}

// Resolve ...
func (m *MemorySurfaces) Resolve(id string) (Surface, error) {
	m.RLock()
	_, ok := m.images[id]
	m.RUnlock()
	if !ok {
		return nil, &ConfigurationError{Surface: id, Err: errSurfaceNotRegistered}
	}
	return &memorySurface{owner: m, id: id}, nil
}

// Bytes returns the last image drawn to id, or nil.
func (m *MemorySurfaces) Bytes(id string) []byte {
	m.RLock()
	defer m.RUnlock()
	return m.images[id]
}

func (m *MemorySurfaces) publish(id string, b []byte) {
	m.Lock()
	m.images[id] = b
	m.Unlock()
}

type memorySurface struct {
	owner  *MemorySurfaces
	id     string
	buf    bytes.Buffer
	failed bool
	closed bool
}

func (s *memorySurface) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *memorySurface) Abort() {
	s.failed = true
}

func (s *memorySurface) Close() error {
	if s.closed {
		return errSurfaceClosed
	}
	s.closed = true
	if !s.failed {
		s.owner.publish(s.id, s.buf.Bytes())
	}
	return nil
}

// aborter is implemented by surfaces that can drop a half drawn image.
type aborter interface {
	Abort()
}
