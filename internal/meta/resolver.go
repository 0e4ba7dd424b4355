// Package meta resolves user selections against the remote archive catalog:
// it fetches directory listings and Updates.xml manifests, filters them by
// version criteria, and produces the answers behind the list commands.
package meta

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
	"github.com/clean-dependency-project/qtmeta/internal/parse"
	"github.com/clean-dependency-project/qtmeta/internal/table"
	"github.com/clean-dependency-project/qtmeta/internal/version"
)

// hostDirs maps a host platform to its directory under the repository root.
var hostDirs = map[string]string{
	"windows": "windows_x86",
	"linux":   "linux_x64",
	"mac":     "mac_x64",
}

// qtFolderPattern matches versioned archive folders such as "qt5_5152" or
// "qt6_620_wasm".
var qtFolderPattern = regexp.MustCompile(`^(qt\d)_(\d+)(?:_(\w+))?$`)

// toolFolderPattern matches tool folders such as "tools_ifw".
var toolFolderPattern = regexp.MustCompile(`^tools_\w+$`)

// PageFetcher retrieves one raw catalog page by repository-relative path.
type PageFetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// Options is the query descriptor for one resolution. It is not persisted;
// a Resolver is built per query and discarded.
type Options struct {
	LatestOnly      bool
	MinorFilter     *int
	ToolName        string
	ToolLongListing string

	// Resolved-version filters: when set, List answers with the modules,
	// architectures, or extensions of the named version ("latest" allowed).
	ModulesVer    string
	ArchesVer     string
	ExtensionsVer string

	Blacklist Blacklist
}

// Resolver orchestrates fetch, parse, and filter for one archive namespace.
type Resolver struct {
	archiveID archive.ID
	fetcher   PageFetcher
	opts      Options
}

// NewResolver builds a resolver for one query.
func NewResolver(id archive.ID, fetcher PageFetcher, opts Options) *Resolver {
	return &Resolver{archiveID: id, fetcher: fetcher, opts: opts}
}

// ArchiveID returns the namespace this resolver queries.
func (r *Resolver) ArchiveID() archive.ID { return r.archiveID }

// dir is the repository-relative directory of this namespace.
func (r *Resolver) dir() string {
	return hostDirs[r.archiveID.Host] + "/" + r.archiveID.Target + "/"
}

// qtFolderDigits renders a version the way archive folder names embed it:
// digits concatenated without separators, e.g. 5.15.2 becomes "5152".
func qtFolderDigits(v version.Version) string {
	return fmt.Sprintf("%d%d%d", v.Major(), v.Minor(), v.Patch())
}

// qtFolder is the archive folder holding a version's Updates.xml.
func (r *Resolver) qtFolder(v version.Version) string {
	folder := r.archiveID.Category + "_" + qtFolderDigits(v)
	if r.archiveID.Extension != "" {
		folder += "_" + r.archiveID.Extension
	}
	return folder
}

// List produces the answer for the active options: tool names, tool variant
// identifiers, a long-listing table, module/architecture/extension names for
// a resolved version, or a filtered version collection. Empty results carry
// no error; invalid selections fail with a SelectionError that already
// carries remediation suggestions.
func (r *Resolver) List(ctx context.Context) (Answer, error) {
	answer, err := r.list(ctx)
	if err != nil {
		var selErr *archive.SelectionError
		if ok := AsSelectionError(err, &selErr); ok && len(selErr.SuggestedAction) == 0 {
			selErr.SuggestedAction = r.SuggestedFollowUp()
		}
		return nil, err
	}
	return answer, nil
}

func (r *Resolver) list(ctx context.Context) (Answer, error) {
	if r.archiveID.IsTools() {
		switch {
		case r.opts.ToolLongListing != "":
			return r.fetchToolTable(ctx, r.opts.ToolLongListing)
		case r.opts.ToolName != "":
			variants, err := r.ListToolVariants(ctx, r.opts.ToolName)
			if err != nil {
				return nil, err
			}
			return Lines(variants), nil
		default:
			tools, err := r.ListTools(ctx)
			if err != nil {
				return nil, err
			}
			return Lines(tools), nil
		}
	}

	switch {
	case r.opts.ModulesVer != "":
		ver, err := r.resolveAndValidate(ctx, r.opts.ModulesVer)
		if err != nil {
			return nil, err
		}
		modules, err := r.FetchModules(ctx, ver)
		if err != nil {
			return nil, err
		}
		return Words(modules), nil
	case r.opts.ArchesVer != "":
		ver, err := r.resolveAndValidate(ctx, r.opts.ArchesVer)
		if err != nil {
			return nil, err
		}
		arches, err := r.FetchArches(ctx, ver)
		if err != nil {
			return nil, err
		}
		return Words(arches), nil
	case r.opts.ExtensionsVer != "":
		ver, err := r.resolveAndValidate(ctx, r.opts.ExtensionsVer)
		if err != nil {
			return nil, err
		}
		exts, err := r.FetchExtensions(ctx, ver)
		if err != nil {
			return nil, err
		}
		return Words(exts), nil
	default:
		versions, err := r.ListVersions(ctx)
		if err != nil {
			return nil, err
		}
		return versions, nil
	}
}

// resolveAndValidate resolves a version token and applies the
// version-dependent extension validity rules.
func (r *Resolver) resolveAndValidate(ctx context.Context, token string) (version.Version, error) {
	ver, err := r.ResolveVersion(ctx, token)
	if err != nil {
		return version.Version{}, err
	}
	if err := r.archiveID.ValidateExtension(ver); err != nil {
		return version.Version{}, err
	}
	return ver, nil
}

// ListVersions fetches the directory listing and returns the versions
// available for this namespace, grouped by minor version, honoring the
// minor filter and latest-only reduction.
func (r *Resolver) ListVersions(ctx context.Context) (version.Versions, error) {
	page, err := r.fetcher.Fetch(ctx, r.dir())
	if err != nil {
		return version.Versions{}, err
	}
	entries, err := parse.ListEntries(page)
	if err != nil {
		return version.Versions{}, err
	}

	var all []version.Version
	for _, entry := range entries {
		ver, ok := r.folderVersion(entry)
		if !ok {
			continue
		}
		if r.opts.MinorFilter != nil && int(ver.Minor()) != *r.opts.MinorFilter {
			continue
		}
		all = append(all, ver)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].LessThan(all[j]) })
	all = dedupeVersions(all)

	versions := version.GroupByMinor(all)
	if r.opts.LatestOnly {
		latest := versions.Latest()
		if latest == nil {
			return version.Versions{}, nil
		}
		return version.Single(*latest), nil
	}
	return versions, nil
}

// folderVersion derives the version a directory entry advertises, or false
// when the entry does not belong to this namespace. Malformed entries are
// skipped, never fatal.
func (r *Resolver) folderVersion(entry string) (version.Version, bool) {
	m := qtFolderPattern.FindStringSubmatch(entry)
	if m == nil || m[1] != r.archiveID.Category || m[3] != r.archiveID.Extension {
		return version.Version{}, false
	}
	ver, err := folderDigitsToVersion(m[2])
	if err != nil {
		return version.Version{}, false
	}
	return ver, true
}

// folderDigitsToVersion decodes concatenated version digits: the first digit
// is the major version, the last the patch, and the middle the minor.
// Two-digit folders name a minor release ("59" is 5.9.0).
func folderDigitsToVersion(digits string) (version.Version, error) {
	switch {
	case len(digits) < 2:
		return version.Version{}, fmt.Errorf("%w: %q", version.ErrInvalidFormat, digits)
	case len(digits) == 2:
		return version.Parse(fmt.Sprintf("%c.%c.0", digits[0], digits[1]))
	default:
		return version.Parse(fmt.Sprintf("%c.%s.%c", digits[0], digits[1:len(digits)-1], digits[len(digits)-1]))
	}
}

func dedupeVersions(ascending []version.Version) []version.Version {
	var out []version.Version
	for _, v := range ascending {
		if len(out) > 0 && out[len(out)-1].Equal(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ListTools returns the sorted tool names available in this namespace.
func (r *Resolver) ListTools(ctx context.Context) ([]string, error) {
	page, err := r.fetcher.Fetch(ctx, r.dir())
	if err != nil {
		return nil, err
	}
	entries, err := parse.ListEntries(page)
	if err != nil {
		return nil, err
	}
	var tools []string
	for _, entry := range entries {
		if toolFolderPattern.MatchString(entry) {
			tools = append(tools, entry)
		}
	}
	sort.Strings(tools)
	return tools, nil
}

// ListToolVariants returns the sorted variant identifiers of one tool,
// excluding blacklisted variants.
func (r *Resolver) ListToolVariants(ctx context.Context, toolName string) ([]string, error) {
	packages, err := r.fetchToolPackages(ctx, toolName)
	if err != nil {
		return nil, err
	}
	var names []string
	for name := range packages {
		if r.opts.Blacklist.Matches(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// fetchToolPackages fetches and indexes one tool's Updates.xml.
func (r *Resolver) fetchToolPackages(ctx context.Context, toolName string) (map[string]parse.PackageUpdate, error) {
	doc, err := r.fetcher.Fetch(ctx, r.dir()+toolName+"/Updates.xml")
	if err != nil {
		return nil, err
	}
	updates, err := parse.ParseUpdates(doc)
	if err != nil {
		return nil, err
	}
	return updates.PackagesByName(), nil
}

// fetchToolTable builds the long-listing table for one tool.
func (r *Resolver) fetchToolTable(ctx context.Context, toolName string) (*table.Table, error) {
	packages, err := r.fetchToolPackages(ctx, toolName)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &table.Table{}
	for _, name := range names {
		pkg := packages[name]
		t.Rows = append(t.Rows, table.Row{
			Name:        pkg.Name,
			Version:     pkg.Version,
			ReleaseDate: pkg.ReleaseDate,
			DisplayName: pkg.DisplayName,
			Description: pkg.Description,
		})
	}
	return t, nil
}

// FetchModules returns the sorted module names of one resolved version.
func (r *Resolver) FetchModules(ctx context.Context, ver version.Version) ([]string, error) {
	updates, err := r.fetchVersionManifest(ctx, ver)
	if err != nil {
		return nil, err
	}
	digits := qtFolderDigits(ver)
	var modules []string
	seen := make(map[string]bool)
	for _, pkg := range updates.PackageUpdates {
		parts := packageNameParts(pkg.Name)
		if len(parts) < 4 || parts[len(parts)-2] == digits {
			continue
		}
		module := parts[len(parts)-2]
		if !seen[module] {
			seen[module] = true
			modules = append(modules, module)
		}
	}
	sort.Strings(modules)
	return modules, nil
}

// FetchArches returns the sorted architecture names of one resolved version.
// Architecture names are the final segment of base package identifiers,
// de-duplicated in first-seen order before sorting.
func (r *Resolver) FetchArches(ctx context.Context, ver version.Version) ([]string, error) {
	updates, err := r.fetchVersionManifest(ctx, ver)
	if err != nil {
		return nil, err
	}
	digits := qtFolderDigits(ver)
	var arches []string
	seen := make(map[string]bool)
	for _, pkg := range updates.PackageUpdates {
		parts := packageNameParts(pkg.Name)
		if len(parts) < 2 || parts[len(parts)-2] != digits {
			continue
		}
		arch := parts[len(parts)-1]
		if !seen[arch] {
			seen[arch] = true
			arches = append(arches, arch)
		}
	}
	sort.Strings(arches)
	return arches, nil
}

// FetchExtensions returns the extensions the archive advertises for one
// resolved version, in listing order.
func (r *Resolver) FetchExtensions(ctx context.Context, ver version.Version) ([]string, error) {
	page, err := r.fetcher.Fetch(ctx, r.dir())
	if err != nil {
		return nil, err
	}
	entries, err := parse.ListEntries(page)
	if err != nil {
		return nil, err
	}
	digits := qtFolderDigits(ver)
	var exts []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		m := qtFolderPattern.FindStringSubmatch(entry)
		if m == nil || m[1] != r.archiveID.Category || m[2] != digits || m[3] == "" {
			continue
		}
		if !seen[m[3]] {
			seen[m[3]] = true
			exts = append(exts, m[3])
		}
	}
	return exts, nil
}

func (r *Resolver) fetchVersionManifest(ctx context.Context, ver version.Version) (*parse.Updates, error) {
	doc, err := r.fetcher.Fetch(ctx, r.dir()+r.qtFolder(ver)+"/Updates.xml")
	if err != nil {
		return nil, err
	}
	return parse.ParseUpdates(doc)
}

func packageNameParts(name string) []string {
	return strings.Split(strings.TrimPrefix(name, "preview."), ".")
}

// FetchToolVariant fetches all variant records of a tool and returns the one
// with the highest version satisfying rng, or nil when nothing matches.
// Records with unparsable versions are silently discarded.
func (r *Resolver) FetchToolVariant(ctx context.Context, toolName string, rng version.Range) (*parse.PackageUpdate, error) {
	packages, err := r.fetchToolPackages(ctx, toolName)
	if err != nil {
		return nil, err
	}
	return ChooseHighest(packages, rng), nil
}

// ChooseHighest returns the record with the maximum version satisfying rng,
// or nil when no record matches. Records whose version field fails to parse
// are skipped.
func ChooseHighest(packages map[string]parse.PackageUpdate, rng version.Range) *parse.PackageUpdate {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)

	var best *parse.PackageUpdate
	var bestVer version.Version
	for _, name := range names {
		pkg := packages[name]
		ver, err := version.Parse(pkg.Version)
		if err != nil || !rng.Contains(ver) {
			continue
		}
		if best == nil || ver.GreaterThan(bestVer) {
			p := pkg
			best = &p
			bestVer = ver
		}
	}
	return best
}

// ResolveVersion resolves a version token. The literal "latest" resolves to
// the maximum version available under the active filters; any other token is
// parsed strictly and must match the namespace's major version.
func (r *Resolver) ResolveVersion(ctx context.Context, token string) (version.Version, error) {
	if token == "latest" {
		versions, err := r.ListVersions(ctx)
		if err != nil {
			return version.Version{}, err
		}
		latest := versions.Latest()
		if latest == nil {
			return version.Version{}, &archive.SelectionError{Msg: fmt.Sprintf(
				"There is no latest version of Qt with the criteria '%s'", r.DescribeFilters())}
		}
		return *latest, nil
	}

	ver, err := version.Parse(token)
	if err != nil {
		return version.Version{}, &archive.SelectionError{Msg: fmt.Sprintf("Invalid version string: '%s'", token)}
	}
	if r.archiveID.IsQt() && ver.Major() != r.archiveID.QtMajor() {
		return version.Version{}, &archive.SelectionError{Msg: fmt.Sprintf(
			"Major version mismatch between %s and %s", r.archiveID.Category, token)}
	}
	return ver, nil
}

// DescribeFilters renders the active selection for remediation messages.
func (r *Resolver) DescribeFilters() string {
	if r.opts.MinorFilter != nil {
		return fmt.Sprintf("%s with minor version %d", r.archiveID, *r.opts.MinorFilter)
	}
	return r.archiveID.String()
}
