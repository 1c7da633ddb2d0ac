package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitCommaList(t *testing.T) {
	cases := map[string][]string{
		"":          nil,
		"a":         {"a"},
		"a,b,c":     {"a", "b", "c"},
		"a, b , c":  {"a", "b", "c"},
	}
	for input, want := range cases {
		got := splitCommaList(input)
		if len(got) != len(want) {
			t.Fatalf("splitCommaList(%q) = %v, want %v", input, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("splitCommaList(%q) = %v, want %v", input, got, want)
			}
		}
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "towerd.toml")
	contents := `
TowerPath = "/var/lib/towerd"
Migration = true
EtcdEndpoints = ["etcd-0:2379", "etcd-1:2379"]
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := defaultConfig()
	if err := loadConfigFile(path, &cfg); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if cfg.TowerPath != "/var/lib/towerd" {
		t.Fatalf("expected TowerPath overridden, got %q", cfg.TowerPath)
	}
	if !cfg.Migration {
		t.Fatalf("expected Migration overridden to true")
	}
	if len(cfg.EtcdEndpoints) != 2 || cfg.EtcdEndpoints[0] != "etcd-0:2379" {
		t.Fatalf("expected etcd endpoints parsed, got %v", cfg.EtcdEndpoints)
	}
}

func TestEtcdTLSFileConfigEmpty(t *testing.T) {
	var c etcdTLSFileConfig
	if !c.empty() {
		t.Fatalf("expected zero-value etcdTLSFileConfig to be empty")
	}
	tlsCfg, err := c.loadEtcdTLS()
	if err != nil || tlsCfg != nil {
		t.Fatalf("expected nil tls config and no error for empty config, got %+v, %v", tlsCfg, err)
	}
}
