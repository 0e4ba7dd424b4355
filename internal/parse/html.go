// Package parse turns raw archive pages into structured records: directory
// listings into ordered entry names, and Updates.xml manifests into package
// records.
package parse

import (
	"strings"

	"golang.org/x/net/html"
)

// ListEntries extracts the entry names of an HTML directory-listing page, in
// document order. Entry names are the anchor targets with any trailing slash
// removed; navigation links (parent directory, sort links, absolute URLs)
// are skipped.
func ListEntries(page string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var entries []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if name, ok := entryName(attr.Val); ok {
					entries = append(entries, name)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return entries, nil
}

func entryName(href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return "", false
	}
	if strings.Contains(href, "://") {
		return "", false
	}
	name := strings.TrimSuffix(href, "/")
	if name == "" || name == ".." || name == "." || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
