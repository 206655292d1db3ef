package tmpl

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"
)

// Root is one search location for templates.
type Root struct {
	Name string
	FS   fs.FS
}

// DirRoot searches the directory dir.
func DirRoot(dir string) Root {
	return Root{Name: dir, FS: os.DirFS(dir)}
}

// FSRoot searches fsys, e.g. an embed.FS.
func FSRoot(name string, fsys fs.FS) Root {
	return Root{Name: name, FS: fsys}
}

// Loader resolves template identifiers against its roots in order, compiles
// them and caches the result.
type Loader struct {
	engine  *Engine
	roots   []Root
	cache   *Cache
	reload  bool
	wrapper string
}

// Roots returns the search roots in order.
func (l *Loader) Roots() []Root { return l.roots }

// Load returns the compiled template id, applying the wrapper layout if one
// is configured.
func (l *Loader) Load(id string) (*Template, error) {
	return l.load(id, nil, true)
}

func (l *Loader) load(id string, chain []string, page bool) (*Template, error) {
	name, err := cleanID(id)
	if err != nil {
		return nil, err
	}
	wrap := page && l.wrapper != "" && name != l.wrapper
	key := name
	if wrap {
		key = "page:" + name
	}

	if t, ok := l.cache.Get(key); ok {
		if !l.reload || l.fresh(t) {
			l.engine.logger.Debug("template cache hit", "id", name)
			return t, nil
		}
		l.engine.logger.Debug("reloading stale template", "id", name)
		l.cache.Delete(key)
	}

	src, s, err := l.read(name)
	if err != nil {
		return nil, err
	}
	t, err := l.engine.compile(src, name, chain, wrap)
	if err != nil {
		return nil, err
	}
	t.sources = append([]source{s}, t.sources...)
	l.cache.Put(key, t)
	return t, nil
}

func cleanID(id string) (string, error) {
	name := path.Clean(strings.TrimPrefix(id, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", &LoadError{ID: id, Err: fs.ErrInvalid}
	}
	return name, nil
}

func (l *Loader) read(name string) (string, source, error) {
	for i, r := range l.roots {
		data, err := fs.ReadFile(r.FS, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", source{}, &LoadError{ID: name, Roots: []string{r.Name}, Err: err}
		}
		s := source{root: i, id: name}
		if info, err := fs.Stat(r.FS, name); err == nil {
			s.modTime = info.ModTime()
		}
		return string(data), s, nil
	}
	names := make([]string, len(l.roots))
	for i, r := range l.roots {
		names[i] = r.Name
	}
	return "", source{}, &LoadError{ID: name, Roots: names}
}

// fresh reports whether none of t's sources changed since it was compiled.
func (l *Loader) fresh(t *Template) bool {
	for _, s := range t.sources {
		info, err := fs.Stat(l.roots[s.root].FS, s.id)
		if err != nil || !info.ModTime().Equal(s.modTime) {
			return false
		}
	}
	return true
}

// MemoryFS serves template sources held in memory, keyed by identifier.
type MemoryFS map[string]string

func (m MemoryFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	src, ok := m[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memFile{Reader: strings.NewReader(src), name: path.Base(name), size: int64(len(src))}, nil
}

type memFile struct {
	*strings.Reader
	name string
	size int64
}

func (f *memFile) Stat() (fs.FileInfo, error) { return memInfo{name: f.name, size: f.size}, nil }
func (f *memFile) Close() error               { return nil }

type memInfo struct {
	name string
	size int64
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o444 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }
