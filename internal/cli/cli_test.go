package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewApp(t *testing.T) {
	app := NewApp()
	if app.Name != "qtmeta" {
		t.Errorf("Name = %q", app.Name)
	}
	for _, want := range []string{"list", "url", "combos"} {
		if app.Command(want) == nil {
			t.Errorf("missing command %q", want)
		}
	}
}

const cliTestCatalog = `{
  "qt-design-studio": {
    "online_installers": {
      "args": ["host"],
      "url_template": "designstudio/{host}"
    }
  }
}`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(cliTestCatalog), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func TestURLCommandListsProducts(t *testing.T) {
	app := NewApp()
	var out bytes.Buffer
	app.Writer = &out

	err := app.Run([]string{"qtmeta", "url", "--schema", writeCatalog(t)})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "qt-design-studio" {
		t.Errorf("output = %q", got)
	}
}

func TestURLCommandExpands(t *testing.T) {
	app := NewApp()
	var out bytes.Buffer
	app.Writer = &out

	err := app.Run([]string{
		"qtmeta", "url", "--schema", writeCatalog(t),
		"qt-design-studio", "online_installers", "all",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := "qt-design-studio/designstudio/windows\n" +
		"qt-design-studio/designstudio/linux\n" +
		"qt-design-studio/designstudio/mac\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestURLCommandArityError(t *testing.T) {
	app := NewApp()
	app.Writer = new(bytes.Buffer)

	err := app.Run([]string{
		"qtmeta", "url", "--schema", writeCatalog(t),
		"qt-design-studio", "online_installers", "linux", "extra",
	})
	if err == nil {
		t.Fatal("Run() expected arity error")
	}
}

func TestTerminalWidth(t *testing.T) {
	tests := []struct {
		name    string
		columns string
		want    int
	}{
		{name: "columns env", columns: "120", want: 120},
		{name: "narrow columns env", columns: "80", want: 80},
		{name: "zero ignored", columns: "0", want: 0},
		{name: "garbage ignored", columns: "wide", want: 0},
	}

	// A bad COLUMNS value falls back to querying stdout, which is not a
	// terminal under the test runner, so those cases resolve to zero.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("COLUMNS", tt.columns)
			if got := terminalWidth(); got != tt.want {
				t.Errorf("terminalWidth() = %d, want %d", got, tt.want)
			}
		})
	}
}
