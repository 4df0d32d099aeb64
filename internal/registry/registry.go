// Package registry holds the collection profile registry: the mapping from
// domain keywords to ranked catalog collections. The registry is versioned
// configuration data, not code — upstream catalogs drift, and the audit
// job exists to catch entries going stale.
package registry

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultDocument []byte

// CollectionType categorizes a collection's sensing modality.
type CollectionType string

// Collection types. Only optical collections take cloud-cover filters.
const (
	TypeOptical   CollectionType = "optical"
	TypeRadar     CollectionType = "radar"
	TypeElevation CollectionType = "elevation"
	TypeThermal   CollectionType = "thermal"
)

// CollectionInfo describes one catalog collection known to the registry.
type CollectionInfo struct {
	// ID is the catalog collection identifier.
	ID string `yaml:"id"`

	// Title is the human-readable collection name.
	Title string `yaml:"title"`

	// Type is the sensing modality.
	Type CollectionType `yaml:"type"`

	// GSD is the nominal ground sample distance in meters per pixel.
	// Zero means unknown; the tile selector sorts unknown GSD last.
	GSD float64 `yaml:"gsd"`

	// CloudCeiling is the recommended default cloud-cover ceiling in
	// percent. Nil for filter-exempt modalities (radar, elevation,
	// thermal).
	CloudCeiling *int `yaml:"cloud_ceiling"`
}

// FilterExempt reports whether cloud-cover filters never apply to this
// collection.
func (c CollectionInfo) FilterExempt() bool {
	return c.Type != TypeOptical
}

// Profile maps one domain to its ranked collections.
type Profile struct {
	// Domain is the profile identifier (e.g. "wildfire", "irrigation").
	Domain string `yaml:"domain"`

	// Keywords and phrases that activate this profile. Matched on word
	// boundaries, case-insensitively.
	Keywords []string `yaml:"keywords"`

	// Primary collections: high-reliability sources, priority order.
	Primary []string `yaml:"primary"`

	// Secondary collections: broader coverage, lower validated
	// reliability.
	Secondary []string `yaml:"secondary"`
}

// Document is the on-disk registry format.
type Document struct {
	// Version identifies the registry revision for drift tracking.
	Version string `yaml:"version"`

	// Defaults are the globally-reliable collections used when no
	// domain matches.
	Defaults []string `yaml:"defaults"`

	// Collections describes every collection referenced by profiles.
	Collections []CollectionInfo `yaml:"collections"`

	// Profiles are the domain mappings.
	Profiles []Profile `yaml:"profiles"`
}

// Registry is the loaded, validated profile registry. Read-only after load.
type Registry struct {
	version     string
	defaults    []string
	collections map[string]CollectionInfo
	profiles    []Profile
}

// Load parses and validates a registry document.
func Load(r io.Reader) (*Registry, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse registry document: %w", err)
	}
	return fromDocument(&doc)
}

// LoadFile loads a registry document from a file path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry document: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// LoadDefault loads the registry document embedded in the binary.
func LoadDefault() (*Registry, error) {
	var doc Document
	if err := yaml.Unmarshal(defaultDocument, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded registry document: %w", err)
	}
	return fromDocument(&doc)
}

// fromDocument validates the document and builds lookup structures.
func fromDocument(doc *Document) (*Registry, error) {
	if doc.Version == "" {
		return nil, fmt.Errorf("registry document missing version")
	}
	if len(doc.Defaults) == 0 {
		return nil, fmt.Errorf("registry document missing default collections")
	}

	collections := make(map[string]CollectionInfo, len(doc.Collections))
	for _, c := range doc.Collections {
		if c.ID == "" {
			return nil, fmt.Errorf("collection with empty id")
		}
		if _, dup := collections[c.ID]; dup {
			return nil, fmt.Errorf("duplicate collection %q", c.ID)
		}
		switch c.Type {
		case TypeOptical, TypeRadar, TypeElevation, TypeThermal:
		default:
			return nil, fmt.Errorf("collection %q has unknown type %q", c.ID, c.Type)
		}
		if c.CloudCeiling != nil && (*c.CloudCeiling < 0 || *c.CloudCeiling > 100) {
			return nil, fmt.Errorf("collection %q cloud ceiling %d out of range [0, 100]", c.ID, *c.CloudCeiling)
		}
		collections[c.ID] = c
	}

	for _, id := range doc.Defaults {
		if _, ok := collections[id]; !ok {
			return nil, fmt.Errorf("default collection %q not described", id)
		}
	}

	seen := make(map[string]bool, len(doc.Profiles))
	for _, p := range doc.Profiles {
		if p.Domain == "" {
			return nil, fmt.Errorf("profile with empty domain")
		}
		if seen[p.Domain] {
			return nil, fmt.Errorf("duplicate profile domain %q", p.Domain)
		}
		seen[p.Domain] = true
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("profile %q has no keywords", p.Domain)
		}
		if len(p.Primary) == 0 {
			return nil, fmt.Errorf("profile %q has no primary collections", p.Domain)
		}
		for _, id := range append(append([]string{}, p.Primary...), p.Secondary...) {
			if _, ok := collections[id]; !ok {
				return nil, fmt.Errorf("profile %q references unknown collection %q", p.Domain, id)
			}
		}
	}

	return &Registry{
		version:     doc.Version,
		defaults:    doc.Defaults,
		collections: collections,
		profiles:    doc.Profiles,
	}, nil
}

// Version returns the registry document revision.
func (r *Registry) Version() string {
	return r.version
}

// Collection returns the metadata for a collection id.
func (r *Registry) Collection(id string) (CollectionInfo, bool) {
	c, ok := r.collections[id]
	return c, ok
}

// CollectionIDs returns every collection id known to the registry.
func (r *Registry) CollectionIDs() []string {
	ids := make([]string, 0, len(r.collections))
	for id := range r.collections {
		ids = append(ids, id)
	}
	return ids
}

// Defaults returns the default collection set used when no domain matches.
func (r *Registry) Defaults() []string {
	out := make([]string, len(r.defaults))
	copy(out, r.defaults)
	return out
}

// Profiles returns all domain profiles.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// ProfileCount returns the number of domain profiles.
func (r *Registry) ProfileCount() int {
	return len(r.profiles)
}
