package combos

import (
	"reflect"
	"testing"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
)

func TestIterArchiveIDs(t *testing.T) {
	ids := IterArchiveIDs([]string{archive.CategoryQt6}, true)

	for _, id := range ids {
		if id.Category != archive.CategoryQt6 {
			t.Errorf("unexpected category %q", id.Category)
		}
		if id.Target == "winrt" {
			t.Errorf("qt6 winrt should have been skipped: %v", id)
		}
		if id.Target == "android" && id.Extension == "" {
			t.Errorf("qt6 android namespaces require an extension: %v", id)
		}
		if id.Target != "android" && id.Extension != "" {
			t.Errorf("unexpected extension outside android: %v", id)
		}
	}

	// linux android carries one namespace per required extension.
	var linuxAndroid int
	for _, id := range ids {
		if id.Host == "linux" && id.Target == "android" {
			linuxAndroid++
		}
	}
	if linuxAndroid != len(archive.ExtensionsRequiredAndroidQt6) {
		t.Errorf("linux android namespaces = %d, want %d", linuxAndroid, len(archive.ExtensionsRequiredAndroidQt6))
	}
}

func TestIterArchiveIDsDeterministic(t *testing.T) {
	first := IterArchiveIDs([]string{archive.CategoryQt5, archive.CategoryTools}, true)
	second := IterArchiveIDs([]string{archive.CategoryQt5, archive.CategoryTools}, true)
	if !reflect.DeepEqual(first, second) {
		t.Error("IterArchiveIDs() ordering is not deterministic")
	}
}

func TestIterArchiveIDsQt5WasmOnDesktopOnly(t *testing.T) {
	for _, id := range IterArchiveIDs([]string{archive.CategoryQt5}, true) {
		if id.Extension == "wasm" && id.Target != "desktop" {
			t.Errorf("wasm namespace off desktop: %v", id)
		}
	}
}

func TestMergeRecords(t *testing.T) {
	records := []Record{
		{OSName: "windows", Target: "desktop", Arch: "win64_msvc2019_64"},
		{OSName: "linux", Target: "desktop", Arch: "gcc_64"},
		{OSName: "linux", Target: "desktop", Arch: "gcc_64"}, // duplicate
		{OSName: "linux", Target: "android", Arch: "android"},
	}
	got := MergeRecords(records)
	want := []Record{
		{OSName: "linux", Target: "android", Arch: "android"},
		{OSName: "linux", Target: "desktop", Arch: "gcc_64"},
		{OSName: "windows", Target: "desktop", Arch: "win64_msvc2019_64"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeRecords() = %v, want %v", got, want)
	}
}

func TestMergeRecordsKeepsDistinctTools(t *testing.T) {
	records := []Record{
		{OSName: "linux", Target: "desktop", ToolName: "tools_ifw", Arch: "qt.tools.ifw.41"},
		{OSName: "linux", Target: "desktop", ToolName: "tools_cmake", Arch: "qt.tools.ifw.41"},
	}
	if got := MergeRecords(records); len(got) != 2 {
		t.Errorf("MergeRecords() collapsed distinct tools: %v", got)
	}
}

func TestCompare(t *testing.T) {
	base := &Document{
		Qt: []Record{
			{OSName: "linux", Target: "desktop", Arch: "gcc_64"},
			{OSName: "mac", Target: "desktop", Arch: "clang_64"},
		},
		Tools: []Record{
			{OSName: "linux", Target: "desktop", ToolName: "tools_ifw", Arch: "qt.tools.ifw.41"},
		},
		Modules:  []ModuleGroup{{QtVersion: "5.15", Modules: []string{"qtcharts", "qtlottie"}}},
		Versions: []string{"5.15.2", "6.2.0"},
	}

	if diffs := Compare(base, base); len(diffs) != 0 {
		t.Fatalf("Compare(x, x) = %v, want none", diffs)
	}

	actual := &Document{
		Qt: []Record{
			{OSName: "linux", Target: "desktop", Arch: "gcc_64"},
			{OSName: "windows", Target: "desktop", Arch: "win64_mingw"},
		},
		Tools:    base.Tools,
		Modules:  []ModuleGroup{{QtVersion: "5.15", Modules: []string{"qtcharts"}}},
		Versions: []string{"5.15.2"},
	}

	diffs := Compare(actual, base)
	if len(diffs) != 4 {
		t.Fatalf("Compare() found %d differences, want 4: %v", len(diffs), diffs)
	}

	counts := map[string]int{}
	missing := 0
	for _, d := range diffs {
		counts[d.Section]++
		if d.Missing {
			missing++
		}
	}
	if counts["qt"] != 2 || counts["modules"] != 1 || counts["versions"] != 1 || counts["tools"] != 0 {
		t.Errorf("section counts = %v", counts)
	}
	// The added windows record is the only non-missing difference.
	if missing != 3 {
		t.Errorf("missing differences = %d, want 3", missing)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := &Document{
		Qt:       []Record{{OSName: "linux", Target: "desktop", Arch: "gcc_64"}},
		Versions: []string{"6.2.0"},
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument() error: %v", err)
	}
	back, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument() error: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		t.Errorf("round trip mismatch: %v vs %v", doc, back)
	}
}
