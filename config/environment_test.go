package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppEnvironment(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"", "development"},
		{"production", "production"},
		{"PROD", "production"},
		{"stag", "staging"},
		{"stagging", "staging"},
		{" staging ", "staging"},
		{"qa", "qa"},
	}
	for _, c := range cases {
		t.Setenv("APP_ENV", c.value)
		if got := AppEnvironment(); got != c.want {
			t.Errorf("AppEnvironment() with APP_ENV=%q = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestResolveEnvSpecificPath(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "config.yml")
	stagingPath := filepath.Join(dir, "config.staging.yml")
	if err := os.WriteFile(stagingPath, []byte("skinflow:\n  name: stage\n"), 0644); err != nil {
		t.Fatalf("write staging config: %v", err)
	}
	envPaths := map[string]string{"staging": stagingPath}

	t.Setenv("APP_ENV", "staging")
	if got := resolveEnvSpecificPath(defaultPath, defaultPath, envPaths); got != stagingPath {
		t.Errorf("default path should redirect to %q, got %q", stagingPath, got)
	}
	if got := resolveEnvSpecificPath("", defaultPath, envPaths); got != stagingPath {
		t.Errorf("empty path should redirect to %q, got %q", stagingPath, got)
	}

	explicit := filepath.Join(dir, "custom.yml")
	if got := resolveEnvSpecificPath(explicit, defaultPath, envPaths); got != explicit {
		t.Errorf("explicit path must win, got %q", got)
	}

	t.Setenv("APP_ENV", "production")
	if got := resolveEnvSpecificPath(defaultPath, defaultPath, envPaths); got != defaultPath {
		t.Errorf("unmapped environment should keep %q, got %q", defaultPath, got)
	}

	t.Setenv("APP_ENV", "staging")
	if err := os.Remove(stagingPath); err != nil {
		t.Fatalf("remove staging config: %v", err)
	}
	if got := resolveEnvSpecificPath(defaultPath, defaultPath, envPaths); got != defaultPath {
		t.Errorf("missing env file should keep %q, got %q", defaultPath, got)
	}
}
