package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func TestCategoriesCommand(t *testing.T) {
	path := writeTestConfig(t, `categories:
  - name: birds
    subcategories: [raptor, songbird]
  - name: trees
    subcategories: [oak]
`)
	out, err := runCLI(t, []string{"categories"}, path)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "CATEGORY 1")
	requireContains(t, out, "raptor, songbird")
	requireContains(t, out, "oak")
	if strings.Index(out, "birds") > strings.Index(out, "trees") {
		t.Error("categories should keep their configured order")
	}
}

func TestCategoriesCommand_Defaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	out, err := runCLI(t, []string{"categories"}, missing)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "placeholder1A, placeholder1B, placeholder1C")
}

func TestCategoriesCommand_InvalidConfig(t *testing.T) {
	path := writeTestConfig(t, "categories: [this is: not valid")
	if _, err := runCLI(t, []string{"categories"}, path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/from/env.yaml")

	flag := "/from/flag.yaml"
	path, err := newCommandContext(&flag).configPath()
	if err != nil || path != flag {
		t.Errorf("configPath() = %q, %v; want flag value", path, err)
	}

	empty := ""
	path, err = newCommandContext(&empty).configPath()
	if err != nil || path != "/from/env.yaml" {
		t.Errorf("configPath() = %q, %v; want env value", path, err)
	}

	t.Setenv("CONFIG_PATH", "")
	path, err = newCommandContext(&empty).configPath()
	if err != nil || filepath.Base(path) != "config.yaml" {
		t.Errorf("configPath() = %q, %v; want ./config.yaml", path, err)
	}
}

func TestDefineServer(t *testing.T) {
	e := defineServer()
	if e.Validator == nil {
		t.Fatal("validator must be installed")
	}
	e.GET("/probe", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 after trailing slash removal", rec.Code)
	}
}

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, nil); got != "" {
		t.Errorf("renderTable(nil) = %q, want empty", got)
	}
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}})
	requireContains(t, out, "only")
}
