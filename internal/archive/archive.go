// Package archive identifies one namespace of the Qt download archive
// (category, host platform, target, optional extension) and enforces the
// combination-validity rules for user selections.
package archive

import (
	"fmt"
	"slices"
	"strings"

	"github.com/clean-dependency-project/qtmeta/internal/version"
)

// Known catalog namespaces.
const (
	CategoryQt5   = "qt5"
	CategoryQt6   = "qt6"
	CategoryTools = "tools"
)

// Categories lists every known product category.
var Categories = []string{CategoryQt5, CategoryQt6, CategoryTools}

// Hosts lists every supported host platform.
var Hosts = []string{"windows", "linux", "mac"}

// TargetsForHost maps a host platform to its installable targets.
var TargetsForHost = map[string][]string{
	"windows": {"android", "desktop", "winrt"},
	"linux":   {"android", "desktop"},
	"mac":     {"android", "desktop", "ios"},
}

// ExtensionsRequiredAndroidQt6 is the set of platform-architecture
// extensions, one of which must accompany a Qt 6 Android selection. The same
// values are illegal anywhere else.
var ExtensionsRequiredAndroidQt6 = []string{"x86_64", "x86", "armv7", "arm64_v8a"}

// Bounds of the minor-version window in which the wasm extension exists for
// Qt 5 on desktop.
const (
	WasmMinMinor = 13
	WasmMaxMinor = 15
)

// SelectionError reports an invalid user selection. SuggestedAction carries
// zero or more remediation suggestions for the user.
type SelectionError struct {
	Msg             string
	SuggestedAction []string
}

func (e *SelectionError) Error() string { return e.Msg }

// ID identifies one archive namespace. Extension may be empty, meaning no
// extension. The zero value is invalid; construct instances with New.
type ID struct {
	Category  string
	Host      string
	Target    string
	Extension string
}

// New constructs an archive ID and applies the validity rules that do not
// depend on a concrete version. Version-dependent extension rules are applied
// by ValidateExtension at resolution time.
func New(category, host, target, extension string) (ID, error) {
	id := ID{Category: category, Host: host, Target: target, Extension: extension}
	if !slices.Contains(Categories, category) {
		return ID{}, &SelectionError{Msg: fmt.Sprintf("Invalid category '%s': categories are %s", category, strings.Join(Categories, ", "))}
	}
	targets, ok := TargetsForHost[host]
	if !ok {
		return ID{}, &SelectionError{Msg: fmt.Sprintf("Invalid host '%s': hosts are %s", host, strings.Join(Hosts, ", "))}
	}
	if !slices.Contains(targets, target) {
		return ID{}, &SelectionError{Msg: fmt.Sprintf("Invalid target '%s' for host '%s': targets are %s", target, host, strings.Join(targets, ", "))}
	}
	if category == CategoryQt6 && target == "winrt" {
		return ID{}, &SelectionError{Msg: "there is no Qt 6 for WinRT"}
	}
	return id, nil
}

// IsQt reports whether the namespace carries versioned Qt packages rather
// than tools.
func (id ID) IsQt() bool { return id.Category != CategoryTools }

// IsTools reports whether the namespace is the tools namespace.
func (id ID) IsTools() bool { return id.Category == CategoryTools }

// QtMajor returns the major version number of a versioned category, or 0 for
// the tools namespace.
func (id ID) QtMajor() uint64 {
	switch id.Category {
	case CategoryQt5:
		return 5
	case CategoryQt6:
		return 6
	}
	return 0
}

// ValidateExtension applies the version-dependent extension rules to a
// concrete resolved version:
//
//   - Qt 6 on Android requires one of the platform-architecture extensions;
//   - those extensions are illegal for any other category/target;
//   - wasm exists only for Qt 5 desktop within a bounded minor window.
func (id ID) ValidateExtension(ver version.Version) error {
	qt6Android := ver.Major() == 6 && id.Target == "android"
	if qt6Android && !slices.Contains(ExtensionsRequiredAndroidQt6, id.Extension) {
		return &SelectionError{Msg: fmt.Sprintf(
			"Qt 6 for Android requires one of the following extensions: [%s]. "+
				"Please add your extension using the `--extension` flag.",
			strings.Join(ExtensionsRequiredAndroidQt6, ", "))}
	}
	if !qt6Android && slices.Contains(ExtensionsRequiredAndroidQt6, id.Extension) {
		return &SelectionError{Msg: fmt.Sprintf("The extension '%s' is only valid for Qt 6 for Android", id.Extension)}
	}
	if id.Extension == "wasm" {
		inWindow := ver.Major() == 5 && ver.Minor() >= WasmMinMinor && ver.Minor() <= WasmMaxMinor
		if !inWindow || id.Target != "desktop" {
			return &SelectionError{Msg: fmt.Sprintf(
				"The extension 'wasm' is only available in Qt 5.%d to 5.%d on desktop.",
				WasmMinMinor, WasmMaxMinor)}
		}
	}
	return nil
}

// String renders "<category>/<host>/<target>" with the extension appended
// when present.
func (id ID) String() string {
	base := fmt.Sprintf("%s/%s/%s", id.Category, id.Host, id.Target)
	if id.Extension != "" {
		return base + "/" + id.Extension
	}
	return base
}
