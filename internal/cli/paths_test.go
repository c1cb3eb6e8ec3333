package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir = %q, want %q", dir, want)
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")

	dir, err := dataDir()
	if err != nil {
		t.Fatalf("dataDir: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".local", "share", appName, "corpora"); dir != want {
		t.Errorf("dataDir = %q, want %q", dir, want)
	}
}

func TestDataDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/custom-data")

	dir, err := dataDir()
	if err != nil {
		t.Fatalf("dataDir: %v", err)
	}
	if want := filepath.Join("/tmp/custom-data", appName, "corpora"); dir != want {
		t.Errorf("dataDir = %q, want %q", dir, want)
	}
}

func TestConfigPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")

	paths := configPaths()
	want := []string{
		configName,
		filepath.Join("/tmp/custom-config", appName, configName),
	}
	if len(paths) != len(want) {
		t.Fatalf("configPaths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("configPaths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}
