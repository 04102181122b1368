// Package assets handles mesh asset loading and caching.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/engine/model"
	"github.com/Faultbox/archview/internal/logger"
	"github.com/Faultbox/archview/pkg/formats"
)

// ErrNotFound is returned when an asset path does not exist under the root.
var ErrNotFound = errors.New("asset not found")

// Manager loads PLY meshes from a file system root.
// Decoded meshes are cached by path and shared read-only between callers.
type Manager struct {
	fsys  fs.FS
	opts  model.BuildOptions
	cache *Cache
	log   *zap.Logger
}

// NewManager creates an asset manager rooted at a directory on disk.
func NewManager(root string) *Manager {
	return NewManagerFS(os.DirFS(root))
}

// NewManagerFS creates an asset manager over any file system.
func NewManagerFS(fsys fs.FS) *Manager {
	return &Manager{
		fsys:  fsys,
		opts:  model.DefaultBuildOptions(),
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// Load reads and decodes the mesh at path.
// The context is checked before and after I/O; decoding itself is not interruptible.
func (m *Manager) Load(ctx context.Context, name string) (*model.Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := cleanPath(name)
	if err != nil {
		return nil, err
	}

	if mesh, ok := m.cache.Get(p); ok {
		return mesh, nil
	}

	data, err := fs.ReadFile(m.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ply, err := formats.ParsePLY(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	mesh := model.FromPLY(ply, m.opts)
	if mesh == nil {
		return nil, fmt.Errorf("decoding %s: no vertices", p)
	}
	mesh.Source = p

	m.cache.Set(p, mesh)
	m.log.Debug("mesh loaded",
		zap.String("path", p),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", mesh.TriangleCount()))
	return mesh, nil
}

// Exists reports whether path names a file under the root.
func (m *Manager) Exists(name string) bool {
	p, err := cleanPath(name)
	if err != nil {
		return false
	}
	info, err := fs.Stat(m.fsys, p)
	return err == nil && !info.IsDir()
}

// Stats returns cache hit and miss counts.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops all cached meshes.
func (m *Manager) Close() {
	m.cache.Clear()
}

// cleanPath converts "./Models/x.ply" or "Models\x.ply" into an fs.FS path.
func cleanPath(name string) (string, error) {
	p := strings.ReplaceAll(name, "\\", "/")
	p = path.Clean(strings.TrimPrefix(p, "./"))
	if !fs.ValidPath(p) || p == "." {
		return "", fmt.Errorf("%w: invalid path %q", ErrNotFound, name)
	}
	return p, nil
}

// Cache is a simple in-memory cache for decoded meshes.
type Cache struct {
	mu   sync.Mutex
	data map[string]*model.Mesh

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*model.Mesh),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*model.Mesh, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mesh, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return mesh, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, mesh *model.Mesh) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = mesh
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*model.Mesh)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
