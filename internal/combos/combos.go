// Package combos enumerates the entire archive catalog into a combinations
// document: every known architecture, tool variant, module set, and version.
// Reconciliation tooling regenerates this document and diffs it against the
// checked-in copy.
package combos

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/clean-dependency-project/qtmeta/internal/archive"
	"github.com/clean-dependency-project/qtmeta/internal/meta"
)

// Record is one (os, target, arch) combination, with the tool name set for
// tool-variant records.
type Record struct {
	OSName   string `json:"os_name"`
	Target   string `json:"target"`
	ToolName string `json:"tool_name,omitempty"`
	Arch     string `json:"arch"`
}

// ModuleGroup lists the modules available for one minor version line.
type ModuleGroup struct {
	QtVersion string   `json:"qt_version"`
	Modules   []string `json:"modules"`
}

// Document is the full catalog enumeration.
type Document struct {
	Qt       []Record      `json:"qt"`
	Tools    []Record      `json:"tools"`
	Modules  []ModuleGroup `json:"modules"`
	Versions []string      `json:"versions"`
}

// Generator enumerates the catalog using a bounded worker pool. Output
// ordering is deterministic: results are sorted after all workers complete,
// never taken in completion order.
type Generator struct {
	Fetcher   meta.PageFetcher
	Blacklist meta.Blacklist
	Workers   int
	Logger    *slog.Logger
}

// qt5ProbeVersions are the extra fixed versions probed for Qt 5, where old
// minor lines carry architectures the latest release dropped.
var qt5ProbeVersions = []string{"latest", "5.13.2", "5.9.9"}

// IterArchiveIDs enumerates every valid archive namespace for the given
// categories, in a fixed deterministic order. With extensions enabled, the
// namespaces that require or permit extensions are expanded accordingly.
func IterArchiveIDs(categories []string, withExtensions bool) []archive.ID {
	var ids []archive.ID
	for _, category := range categories {
		hosts := append([]string(nil), archive.Hosts...)
		sort.Strings(hosts)
		for _, host := range hosts {
			for _, target := range archive.TargetsForHost[host] {
				for _, ext := range extensionsFor(category, target, withExtensions) {
					id, err := archive.New(category, host, target, ext)
					if err != nil {
						// Invalid combination (no Qt 6 for WinRT).
						continue
					}
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

func extensionsFor(category, target string, withExtensions bool) []string {
	if !withExtensions {
		return []string{""}
	}
	if category == archive.CategoryQt6 && target == "android" {
		return archive.ExtensionsRequiredAndroidQt6
	}
	if category == archive.CategoryQt5 && target == "desktop" {
		return []string{"wasm", ""}
	}
	return []string{""}
}

// Generate enumerates the whole catalog. On a fatal fetch error the
// remaining worker queue is abandoned best-effort and the error returned.
func (g *Generator) Generate(ctx context.Context) (*Document, error) {
	qt, err := g.collectArches(ctx)
	if err != nil {
		return nil, err
	}
	tools, err := g.collectToolVariants(ctx)
	if err != nil {
		return nil, err
	}
	modules, err := g.collectModules(ctx)
	if err != nil {
		return nil, err
	}
	versions, err := g.collectVersions(ctx)
	if err != nil {
		return nil, err
	}
	return &Document{Qt: qt, Tools: tools, Modules: modules, Versions: versions}, nil
}

// collectArches fans the per-namespace architecture queries out over the
// worker pool and merges the results deterministically.
func (g *Generator) collectArches(ctx context.Context) ([]Record, error) {
	ids := IterArchiveIDs([]string{archive.CategoryQt5, archive.CategoryQt6}, true)

	type job struct {
		id    archive.ID
		token string
	}
	var jobs []job
	for _, id := range ids {
		tokens := []string{"latest"}
		if id.Category == archive.CategoryQt5 {
			tokens = qt5ProbeVersions
		}
		for _, token := range tokens {
			if token == "5.9.9" && id.Extension == "wasm" {
				continue
			}
			jobs = append(jobs, job{id: id, token: token})
		}
	}

	workers := g.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	results := make(chan []Record, len(jobs))
	var wg sync.WaitGroup

	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			results <- g.archesFor(ctx, j.id, j.token)
		}(j)
	}
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []Record
	for records := range results {
		all = append(all, records...)
	}
	return MergeRecords(all), nil
}

// archesFor queries one namespace at one version token. Namespaces that do
// not exist on a host are gaps, not failures: any per-namespace error is
// logged and skipped so one missing folder cannot abort the whole sweep.
func (g *Generator) archesFor(ctx context.Context, id archive.ID, token string) []Record {
	resolver := meta.NewResolver(id, g.Fetcher, meta.Options{Blacklist: g.Blacklist})
	ver, err := resolver.ResolveVersion(ctx, token)
	if err != nil {
		return nil
	}
	arches, err := resolver.FetchArches(ctx, ver)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Warn("skipping namespace", "archive", id.String(), "version", ver.String(), "error", err)
		}
		return nil
	}
	records := make([]Record, 0, len(arches))
	for _, arch := range arches {
		records = append(records, Record{OSName: id.Host, Target: id.Target, Arch: arch})
	}
	return records
}

// collectToolVariants walks every tools namespace sequentially; tool counts
// are small and the per-tool manifests dominate.
func (g *Generator) collectToolVariants(ctx context.Context) ([]Record, error) {
	var records []Record
	for _, id := range IterArchiveIDs([]string{archive.CategoryTools}, false) {
		if g.Logger != nil {
			g.Logger.Info("fetching tool variants", "archive", id.String())
		}
		resolver := meta.NewResolver(id, g.Fetcher, meta.Options{Blacklist: g.Blacklist})
		tools, err := resolver.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("tools for %s: %w", id, err)
		}
		for _, tool := range tools {
			if g.Blacklist.Matches(tool) {
				continue
			}
			variants, err := resolver.ListToolVariants(ctx, tool)
			if err != nil {
				return nil, fmt.Errorf("variants for %s/%s: %w", id, tool, err)
			}
			for _, variant := range variants {
				records = append(records, Record{OSName: id.Host, Target: id.Target, ToolName: tool, Arch: variant})
			}
		}
	}
	return records, nil
}

// collectModules gathers the module set for the first version of every minor
// line, using the linux desktop namespace as the reference.
func (g *Generator) collectModules(ctx context.Context) ([]ModuleGroup, error) {
	var groups []ModuleGroup
	for _, category := range []string{archive.CategoryQt5, archive.CategoryQt6} {
		id, err := archive.New(category, "linux", "desktop", "")
		if err != nil {
			return nil, err
		}
		resolver := meta.NewResolver(id, g.Fetcher, meta.Options{})
		versions, err := resolver.ListVersions(ctx)
		if err != nil {
			return nil, err
		}
		for _, group := range versions.Groups() {
			first := group[0]
			modules, err := resolver.FetchModules(ctx, first)
			if err != nil {
				return nil, err
			}
			groups = append(groups, ModuleGroup{
				QtVersion: first.MajorMinor(),
				Modules:   modules,
			})
		}
	}
	return groups, nil
}

// collectVersions lists every version of the linux desktop namespace.
func (g *Generator) collectVersions(ctx context.Context) ([]string, error) {
	var all []string
	for _, category := range []string{archive.CategoryQt5, archive.CategoryQt6} {
		id, err := archive.New(category, "linux", "desktop", "")
		if err != nil {
			return nil, err
		}
		resolver := meta.NewResolver(id, g.Fetcher, meta.Options{})
		versions, err := resolver.ListVersions(ctx)
		if err != nil {
			return nil, err
		}
		for v := range versions.Iterate() {
			all = append(all, v.String())
		}
	}
	return all, nil
}

// MergeRecords de-duplicates identical records and sorts by os name, then
// target, then tool name, then arch.
func MergeRecords(records []Record) []Record {
	seen := make(map[Record]bool, len(records))
	merged := make([]Record, 0, len(records))
	for _, r := range records {
		if !seen[r] {
			seen[r] = true
			merged = append(merged, r)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.OSName != b.OSName {
			return a.OSName < b.OSName
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.ToolName != b.ToolName {
			return a.ToolName < b.ToolName
		}
		return a.Arch < b.Arch
	})
	return merged
}
