package assets

import (
	"io/fs"
	"path"
	"slices"
)

// LoadContext is handed to a Loader for a single load. Files read through it
// are recorded as dependencies so edits to them trigger a reload.
type LoadContext struct {
	path   string
	server *Server
	deps   []string
}

func NewLoadContext(server *Server, assetPath string) *LoadContext {
	return &LoadContext{path: cleanPath(assetPath), server: server}
}

func (c *LoadContext) Path() string {
	return c.path
}

// Dir is the directory of the asset being loaded, relative to the root.
func (c *LoadContext) Dir() string {
	return path.Dir(c.path)
}

func (c *LoadContext) FS() fs.FS {
	if c.server == nil {
		return nil
	}
	return c.server.FS()
}

// ReadFile reads a path relative to the asset's directory and records it.
func (c *LoadContext) ReadFile(rel string) ([]byte, error) {
	p := path.Join(c.Dir(), rel)
	c.AddDependency(p)
	return c.server.ReadFile(p)
}

// AddDependency records a root-relative path this asset depends on.
func (c *LoadContext) AddDependency(p string) {
	p = cleanPath(p)
	if p == "" || p == c.path || slices.Contains(c.deps, p) {
		return
	}
	c.deps = append(c.deps, p)
}

func (c *LoadContext) Dependencies() []string {
	return slices.Clone(c.deps)
}
