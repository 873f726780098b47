package spatial

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/revgeo/internal/config"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		want    string
	}{
		{"", "sqlite"},
		{"sqlite", "sqlite"},
		{"bleve", "bleve"},
	}
	for _, tt := range tests {
		t.Run("backend_"+tt.want+"_"+tt.backend, func(t *testing.T) {
			cfg := &config.Config{
				Index: config.IndexConfig{Backend: tt.backend, Table: "places"},
				Storage: config.StorageConfig{
					DatabasePath:   filepath.Join(dir, tt.backend+"places.db"),
					BleveIndexPath: filepath.Join(dir, tt.backend+"bleve"),
				},
			}
			b, err := New(context.Background(), cfg)
			if err != nil {
				t.Fatalf("New(%q): %v", tt.backend, err)
			}
			defer b.Close()
			if b.Name() != tt.want {
				t.Errorf("Name() = %s, want %s", b.Name(), tt.want)
			}
		})
	}
}

func TestNew_unknown(t *testing.T) {
	cfg := &config.Config{Index: config.IndexConfig{Backend: "sphinx"}}
	b, err := New(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if b != nil {
		t.Error("backend should be nil on error")
	}
}
