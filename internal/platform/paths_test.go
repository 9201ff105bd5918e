package platform

import (
	"path/filepath"
	"testing"
)

func TestPathsForLinuxWithXDG(t *testing.T) {
	p, err := PathsFor("linux", map[string]string{
		"XDG_CONFIG_HOME": "/xdg/config",
		"XDG_DATA_HOME":   "/xdg/data",
	}, "/fallback/config", "/fallback/data", "tavle")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join("/xdg/config", "tavle", "config.toml"); p.ConfigPath != want {
		t.Fatalf("config path = %q, want %q", p.ConfigPath, want)
	}
	if want := filepath.Join("/xdg/data", "tavle", "tavle.db"); p.DBPath != want {
		t.Fatalf("db path = %q, want %q", p.DBPath, want)
	}
	if want := filepath.Join("/xdg/data", "tavle", "tavle.log"); p.LogPath != want {
		t.Fatalf("log path = %q, want %q", p.LogPath, want)
	}
}

func TestPathsForWindowsUsesAppData(t *testing.T) {
	p, err := PathsFor("windows", map[string]string{
		"APPDATA":      `C:\Users\me\AppData\Roaming`,
		"LOCALAPPDATA": `C:\Users\me\AppData\Local`,
	}, `C:\fallback\config`, `C:\fallback\data`, "tavle")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Roaming`, "tavle", "config.toml"); p.ConfigPath != want {
		t.Fatalf("config path = %q, want %q", p.ConfigPath, want)
	}
	if want := filepath.Join(`C:\Users\me\AppData\Local`, "tavle", "tavle.db"); p.DBPath != want {
		t.Fatalf("db path = %q, want %q", p.DBPath, want)
	}
}

func TestPathsForDarwinIgnoresXDG(t *testing.T) {
	base := "/Users/me/Library/Application Support"
	p, err := PathsFor("darwin", map[string]string{
		"XDG_CONFIG_HOME": "/ignored",
		"XDG_DATA_HOME":   "/ignored",
	}, base, base, "tavle")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if want := filepath.Join(base, "tavle", "config.toml"); p.ConfigPath != want {
		t.Fatalf("config path = %q, want %q", p.ConfigPath, want)
	}
}

func TestPathsForEmptyInputsFail(t *testing.T) {
	if _, err := PathsFor("linux", nil, "", "/data", "tavle"); err == nil {
		t.Fatal("expected error for empty config dir")
	}
	if _, err := PathsFor("linux", nil, "/config", "/data", "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}
