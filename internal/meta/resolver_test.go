package meta

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
	"github.com/clean-dependency-project/qtmeta/internal/parse"
	"github.com/clean-dependency-project/qtmeta/internal/version"
)

// stubFetcher serves canned pages by repository-relative path.
type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, path string) (string, error) {
	page, ok := s.pages[path]
	if !ok {
		return "", fmt.Errorf("no page for %q", path)
	}
	return page, nil
}

func listingPage(entries ...string) string {
	page := "<html><body>"
	for _, e := range entries {
		page += `<a href="` + e + `/">` + e + `/</a>`
	}
	return page + "</body></html>"
}

const qt5152Updates = `<Updates>
 <PackageUpdate>
  <Name>qt.qt5.5152.gcc_64</Name>
  <Version>5.15.2-0-202011130601</Version>
 </PackageUpdate>
 <PackageUpdate>
  <Name>qt.qt5.5152.src</Name>
  <Version>5.15.2-0-202011130601</Version>
 </PackageUpdate>
 <PackageUpdate>
  <Name>qt.qt5.5152.qtcharts.gcc_64</Name>
  <Version>5.15.2-0-202011130601</Version>
 </PackageUpdate>
 <PackageUpdate>
  <Name>qt.qt5.5152.qtlottie.gcc_64</Name>
  <Version>5.15.2-0-202011130601</Version>
 </PackageUpdate>
</Updates>`

const ifwUpdates = `<Updates>
 <PackageUpdate>
  <Name>qt.tools.ifw.41</Name>
  <DisplayName>Qt Installer Framework 4.1</DisplayName>
  <Version>4.1.1-202105261132</Version>
  <ReleaseDate>2021-05-26</ReleaseDate>
 </PackageUpdate>
 <PackageUpdate>
  <Name>qt.tools.ifw.40</Name>
  <DisplayName>Qt Installer Framework 4.0</DisplayName>
  <Version>4.0.0-202012091044</Version>
  <ReleaseDate>2020-12-09</ReleaseDate>
 </PackageUpdate>
 <PackageUpdate>
  <Name>qt.tools.ifw.broken</Name>
  <Version>not-a-version</Version>
 </PackageUpdate>
</Updates>`

func newTestFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string]string{
		"linux_x64/desktop/": listingPage(
			"qt5_59", "qt5_5151", "qt5_5152", "qt5_5152_wasm", "qt6_620",
			"tools_ifw", "tools_qtcreator", "tools_qt3dstudio_runtime_240"),
		"linux_x64/desktop/qt5_5152/Updates.xml":  qt5152Updates,
		"linux_x64/desktop/tools_ifw/Updates.xml": ifwUpdates,
	}}
}

func mustID(t *testing.T, category, host, target, ext string) archive.ID {
	t.Helper()
	id, err := archive.New(category, host, target, ext)
	if err != nil {
		t.Fatalf("archive.New() error: %v", err)
	}
	return id
}

func TestListVersions(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{})

	versions, err := r.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions() error: %v", err)
	}
	// qt6 and wasm folders are filtered out; qt5_59 decodes to 5.9.0.
	if got := versions.String(); got != "5.9.0\n5.15.1 5.15.2" {
		t.Errorf("ListVersions() = %q", got)
	}
}

func TestListVersionsMinorFilter(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	minor := 15
	r := NewResolver(id, newTestFetcher(), Options{MinorFilter: &minor})

	versions, err := r.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions() error: %v", err)
	}
	if got := versions.String(); got != "5.15.1 5.15.2" {
		t.Errorf("ListVersions() = %q", got)
	}
}

func TestListVersionsLatestOnly(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{LatestOnly: true})

	versions, err := r.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions() error: %v", err)
	}
	if got := versions.String(); got != "5.15.2" {
		t.Errorf("ListVersions() = %q", got)
	}
}

func TestListVersionsWasmExtension(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "wasm")
	r := NewResolver(id, newTestFetcher(), Options{})

	versions, err := r.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions() error: %v", err)
	}
	if got := versions.String(); got != "5.15.2" {
		t.Errorf("ListVersions() = %q", got)
	}
}

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantMsg string
	}{
		{name: "latest", token: "latest", want: "5.15.2"},
		{name: "explicit", token: "5.15.1", want: "5.15.1"},
		{name: "invalid token", token: "6.12.42.1", wantMsg: "Invalid version string: '6.12.42.1'"},
		{name: "partial token", token: "5.15", wantMsg: "Invalid version string: '5.15'"},
		{name: "major mismatch", token: "6.12.42", wantMsg: "Major version mismatch between qt5 and 6.12.42"},
	}

	id := mustID(t, "qt5", "linux", "desktop", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(id, newTestFetcher(), Options{})
			ver, err := r.ResolveVersion(context.Background(), tt.token)
			if tt.wantMsg != "" {
				if err == nil {
					t.Fatal("ResolveVersion() expected error")
				}
				var selErr *archive.SelectionError
				if !AsSelectionError(err, &selErr) {
					t.Fatalf("ResolveVersion() error = %T, want *archive.SelectionError", err)
				}
				if selErr.Msg != tt.wantMsg {
					t.Errorf("ResolveVersion() error = %q, want %q", selErr.Msg, tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveVersion() error: %v", err)
			}
			if ver.String() != tt.want {
				t.Errorf("ResolveVersion() = %s, want %s", ver, tt.want)
			}
		})
	}
}

func TestResolveVersionNoLatest(t *testing.T) {
	id := mustID(t, "qt6", "linux", "desktop", "")
	minor := 42
	fetcher := &stubFetcher{pages: map[string]string{
		"linux_x64/desktop/": listingPage("qt6_620"),
	}}
	r := NewResolver(id, fetcher, Options{MinorFilter: &minor})

	_, err := r.ResolveVersion(context.Background(), "latest")
	if err == nil {
		t.Fatal("ResolveVersion() expected error")
	}
	want := "There is no latest version of Qt with the criteria 'qt6/linux/desktop with minor version 42'"
	var selErr *archive.SelectionError
	if !AsSelectionError(err, &selErr) || selErr.Msg != want {
		t.Errorf("ResolveVersion() error = %q, want %q", err, want)
	}
}

func TestFetchModules(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{})

	modules, err := r.FetchModules(context.Background(), version.MustParse("5.15.2"))
	if err != nil {
		t.Fatalf("FetchModules() error: %v", err)
	}
	want := []string{"qtcharts", "qtlottie"}
	if !reflect.DeepEqual(modules, want) {
		t.Errorf("FetchModules() = %v, want %v", modules, want)
	}
}

func TestFetchArches(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{})

	arches, err := r.FetchArches(context.Background(), version.MustParse("5.15.2"))
	if err != nil {
		t.Fatalf("FetchArches() error: %v", err)
	}
	want := []string{"gcc_64", "src"}
	if !reflect.DeepEqual(arches, want) {
		t.Errorf("FetchArches() = %v, want %v", arches, want)
	}
}

func TestFetchExtensions(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{})

	exts, err := r.FetchExtensions(context.Background(), version.MustParse("5.15.2"))
	if err != nil {
		t.Fatalf("FetchExtensions() error: %v", err)
	}
	if !reflect.DeepEqual(exts, []string{"wasm"}) {
		t.Errorf("FetchExtensions() = %v", exts)
	}
}

func TestListTools(t *testing.T) {
	id := mustID(t, "tools", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{})

	tools, err := r.ListTools(context.Background())
	if err != nil {
		t.Fatalf("ListTools() error: %v", err)
	}
	want := []string{"tools_ifw", "tools_qt3dstudio_runtime_240", "tools_qtcreator"}
	if !reflect.DeepEqual(tools, want) {
		t.Errorf("ListTools() = %v, want %v", tools, want)
	}
}

func TestListToolVariants(t *testing.T) {
	id := mustID(t, "tools", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{Blacklist: DefaultBlacklist()})

	variants, err := r.ListToolVariants(context.Background(), "tools_ifw")
	if err != nil {
		t.Fatalf("ListToolVariants() error: %v", err)
	}
	want := []string{"qt.tools.ifw.40", "qt.tools.ifw.41", "qt.tools.ifw.broken"}
	if !reflect.DeepEqual(variants, want) {
		t.Errorf("ListToolVariants() = %v, want %v", variants, want)
	}
}

func TestChooseHighest(t *testing.T) {
	packages := map[string]parse.PackageUpdate{
		"qt.tools.ifw.41":     {Name: "qt.tools.ifw.41", Version: "4.1.1-202105261132"},
		"qt.tools.ifw.40":     {Name: "qt.tools.ifw.40", Version: "4.0.0-202012091044"},
		"qt.tools.ifw.broken": {Name: "qt.tools.ifw.broken", Version: "not-a-version"},
	}

	tests := []struct {
		name string
		expr string
		want string // package name; "" means no match
	}{
		{name: "wildcard picks highest", expr: "*", want: "qt.tools.ifw.41"},
		{name: "lower bound admits prerelease", expr: ">=4.1", want: "qt.tools.ifw.41"},
		{name: "upper bound", expr: "<4.1", want: "qt.tools.ifw.40"},
		{name: "nothing matches", expr: ">10", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseHighest(packages, version.MustParseRange(tt.expr))
			if tt.want == "" {
				if got != nil {
					t.Errorf("ChooseHighest(%q) = %v, want nil", tt.expr, got.Name)
				}
				return
			}
			if got == nil || got.Name != tt.want {
				t.Errorf("ChooseHighest(%q) = %v, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestListAttachesSuggestions(t *testing.T) {
	id := mustID(t, "qt5", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{ModulesVer: "6.12.42"})

	_, err := r.List(context.Background())
	if err == nil {
		t.Fatal("List() expected error")
	}
	var selErr *archive.SelectionError
	if !AsSelectionError(err, &selErr) {
		t.Fatalf("List() error = %T, want *archive.SelectionError", err)
	}
	if len(selErr.SuggestedAction) == 0 {
		t.Error("List() error carries no suggested follow-up")
	}
}

func TestListToolTable(t *testing.T) {
	id := mustID(t, "tools", "linux", "desktop", "")
	r := NewResolver(id, newTestFetcher(), Options{ToolLongListing: "tools_ifw"})

	answer, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	out := answer.String()
	for _, want := range []string{"Tool Variant Name", "qt.tools.ifw.41", "4.1.1-202105261132", "2021-05-26"} {
		if !strings.Contains(out, want) {
			t.Errorf("long listing missing %q:\n%s", want, out)
		}
	}
}
