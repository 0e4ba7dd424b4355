package parse

import (
	"encoding/xml"
	"fmt"
)

// PackageUpdate is one <PackageUpdate> record of an Updates.xml manifest.
// Version holds the raw version string: records with unparsable versions are
// carried through and skipped by version-ordered selection, never fatal.
type PackageUpdate struct {
	Name                 string `xml:"Name"`
	DisplayName          string `xml:"DisplayName"`
	Description          string `xml:"Description"`
	Version              string `xml:"Version"`
	ReleaseDate          string `xml:"ReleaseDate"`
	DownloadableArchives string `xml:"DownloadableArchives"`
	SHA1                 string `xml:"SHA1"`
	Virtual              string `xml:"Virtual"`
}

// Updates is the root of an Updates.xml manifest.
type Updates struct {
	XMLName        xml.Name        `xml:"Updates"`
	PackageUpdates []PackageUpdate `xml:"PackageUpdate"`
}

// ParseUpdates decodes an Updates.xml manifest.
func ParseUpdates(doc string) (*Updates, error) {
	var updates Updates
	if err := xml.Unmarshal([]byte(doc), &updates); err != nil {
		return nil, fmt.Errorf("malformed Updates.xml: %w", err)
	}
	return &updates, nil
}

// PackagesByName indexes the manifest's records by package name. Later
// duplicates overwrite earlier ones.
func (u *Updates) PackagesByName() map[string]PackageUpdate {
	byName := make(map[string]PackageUpdate, len(u.PackageUpdates))
	for _, pkg := range u.PackageUpdates {
		byName[pkg.Name] = pkg
	}
	return byName
}
