package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/Faultbox/archview/pkg/formats"
)

const trianglePLY = `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
0 1 0
3 0 1 2
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"Models/Mandibular.ply": {Data: []byte(trianglePLY)},
		"Models/Maxillary.ply":  {Data: []byte(trianglePLY)},
		"Models/Broken.ply":     {Data: []byte("not a ply file")},
		"Models/Empty.ply":      {Data: []byte("ply\nformat ascii 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nend_header\n")},
	}
}

func TestManagerLoad(t *testing.T) {
	m := NewManagerFS(testFS())

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"plain path", "Models/Mandibular.ply", nil},
		{"dot prefix", "./Models/Maxillary.ply", nil},
		{"backslashes", `Models\Mandibular.ply`, nil},
		{"missing", "Models/Mandibular9.ply", ErrNotFound},
		{"escapes root", "../Models/Mandibular.ply", ErrNotFound},
		{"broken file", "Models/Broken.ply", formats.ErrInvalidPLYMagic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := m.Load(context.Background(), tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load(%q) error = %v, want %v", tt.path, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load(%q) failed: %v", tt.path, err)
			}
			if mesh.TriangleCount() != 1 {
				t.Errorf("triangles = %d, want 1", mesh.TriangleCount())
			}
		})
	}
}

func TestManagerEmptyMesh(t *testing.T) {
	m := NewManagerFS(testFS())
	if _, err := m.Load(context.Background(), "Models/Empty.ply"); err == nil {
		t.Error("expected error for mesh without vertices")
	}
}

func TestManagerCache(t *testing.T) {
	m := NewManagerFS(testFS())
	ctx := context.Background()

	first, err := m.Load(ctx, "Models/Mandibular.ply")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := m.Load(ctx, "./Models/Mandibular.ply")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Error("expected cached mesh to be shared")
	}
	if first.Source != "Models/Mandibular.ply" {
		t.Errorf("Source = %q", first.Source)
	}

	hits, misses := m.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", hits, misses)
	}

	m.Close()
	hits, misses = m.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("stats after Close = %d/%d, want 0/0", hits, misses)
	}
}

func TestManagerCancelledContext(t *testing.T) {
	m := NewManagerFS(testFS())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Load(ctx, "Models/Mandibular.ply"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestManagerConcurrentLoads(t *testing.T) {
	m := NewManagerFS(testFS())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := "Models/Mandibular.ply"
			if i%2 == 0 {
				p = "Models/Maxillary.ply"
			}
			if _, err := m.Load(context.Background(), p); err != nil {
				t.Errorf("load %s: %v", p, err)
			}
		}(i)
	}
	wg.Wait()

	hits, misses := m.Stats()
	if hits+misses != 16 {
		t.Errorf("hits+misses = %d, want 16", hits+misses)
	}
}

func TestManagerDisk(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Models"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Models", "Mandibular2.ply"), []byte(trianglePLY), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(root)
	if !m.Exists("Models/Mandibular2.ply") {
		t.Error("Exists returned false for written file")
	}
	if m.Exists("Models") {
		t.Error("Exists returned true for a directory")
	}
	if _, err := m.Load(context.Background(), "Models/Mandibular2.ply"); err != nil {
		t.Errorf("Load failed: %v", err)
	}
}
