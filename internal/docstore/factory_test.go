package docstore

import (
	"testing"

	"hydrantmap/internal/config"
	"hydrantmap/internal/hydrant"
)

func TestNewDocumentStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{name: "memory store", cfg: config.Config{Store: config.StoreConfig{Type: "memory"}}},
		{name: "filesystem store", cfg: config.Config{Store: config.StoreConfig{Type: "filesystem"}, DataDir: t.TempDir()}},
		{name: "empty type defaults to filesystem", cfg: config.Config{DataDir: t.TempDir()}},
		{name: "filesystem without data dir", cfg: config.Config{Store: config.StoreConfig{Type: "filesystem"}}, wantErr: true},
		{name: "unknown type", cfg: config.Config{Store: config.StoreConfig{Type: "redis"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDocumentStoreFromConfig(&tt.cfg, hydrant.NewNopLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDocumentStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if err := got.Write("config.json", map[string]int{"x": 1}); err != nil {
				t.Errorf("Write() error = %v", err)
			}
		})
	}
}
