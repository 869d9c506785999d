package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bayleafwalker/bindery-compose/internal/semver"
)

// Module is a loadable unit of contracts and components.
type Module struct {
	Name    string
	Version string
	// Plugin marks the module as eligible for transitive discovery through
	// plugin dependencies of other modules.
	Plugin       bool
	Dependencies []Dependency
	Contracts    []Contract
	Components   []Component
}

// Dependency references another module by name. Only plugin dependencies are
// loaded transitively.
type Dependency struct {
	Name    string
	Version string
	Plugin  bool
}

func (m *Module) String() string {
	if m.Version == "" {
		return m.Name
	}
	return m.Name + "@" + m.Version
}

// VersionPolicy selects how a requested module version is matched against
// loaded and available versions.
type VersionPolicy int

const (
	// EquivalentVersions accepts a candidate with the same major version and
	// a minor and patch at least as new as requested.
	EquivalentVersions VersionPolicy = iota
	// ExactVersions only accepts the requested version itself.
	ExactVersions
)

func (p VersionPolicy) matcher() semver.Policy {
	if p == ExactVersions {
		return semver.Exact
	}
	return semver.Equivalent
}

// Catalog holds every module the process can load, usually the modules
// compiled into the binary.
type Catalog struct {
	byName map[string][]catalogEntry
}

type catalogEntry struct {
	module  *Module
	version semver.Version
}

func NewCatalog(modules ...*Module) (*Catalog, error) {
	c := &Catalog{byName: map[string][]catalogEntry{}}
	for _, m := range modules {
		if err := c.Add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers m. The same name and version may only be added once.
func (c *Catalog) Add(m *Module) error {
	if m == nil {
		return fmt.Errorf("catalog: nil module")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("catalog: module name is required")
	}
	raw := m.Version
	if raw == "" {
		raw = "0.0.0"
	}
	v, err := semver.ParseVersion(raw)
	if err != nil {
		return fmt.Errorf("catalog: module %q: %w", m.Name, err)
	}
	for _, existing := range c.byName[m.Name] {
		if semver.Compare(existing.version, v) == 0 {
			return fmt.Errorf("catalog: module %s already registered", m)
		}
	}
	c.byName[m.Name] = append(c.byName[m.Name], catalogEntry{module: m, version: v})
	return nil
}

// find returns the highest version of name that p accepts for requested.
func (c *Catalog) find(name string, requested semver.Version, p semver.Policy) (catalogEntry, bool) {
	entries := c.byName[name]
	versions := make([]semver.Version, len(entries))
	for i, e := range entries {
		versions[i] = e.version
	}
	best, ok := semver.MaxMatching(p, requested, versions)
	if !ok {
		return catalogEntry{}, false
	}
	for _, e := range entries {
		if semver.Compare(e.version, best) == 0 {
			return e, true
		}
	}
	return catalogEntry{}, false
}

// Find returns the highest version of name that is equivalent to version. An
// empty version accepts any.
func (c *Catalog) Find(name, version string) (*Module, error) {
	requested, err := parseRequested(version)
	if err != nil {
		return nil, err
	}
	e, ok := c.find(name, requested, semver.Equivalent)
	if !ok {
		return nil, fmt.Errorf("catalog: no module matches %s", formatReference(name, version))
	}
	return e.module, nil
}

// List returns every module ordered by name, then version.
func (c *Catalog) List() []*Module {
	entries := make([]catalogEntry, 0)
	for _, es := range c.byName {
		entries = append(entries, es...)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].module.Name != entries[j].module.Name {
			return entries[i].module.Name < entries[j].module.Name
		}
		return semver.Compare(entries[i].version, entries[j].version) < 0
	})
	out := make([]*Module, len(entries))
	for i, e := range entries {
		out[i] = e.module
	}
	return out
}

// Reference is a parsed QueueLoad argument.
type Reference struct {
	Name    string
	Version string
	// Location is set when the reference points at a manifest rather than a
	// catalog entry.
	Location string
}

// ParseReference splits "name" or "name@version". Arguments that look like a
// file (.yaml, .yml, .json, a path separator) or a URL ("scheme://...") are
// returned as a manifest Location.
func ParseReference(ref string) (Reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Reference{}, fmt.Errorf("empty module reference")
	}
	if isManifestLocation(ref) {
		return Reference{Location: ref}, nil
	}
	name, version, _ := strings.Cut(ref, "@")
	if name == "" {
		return Reference{}, fmt.Errorf("module reference %q has no name", ref)
	}
	if version != "" {
		if _, err := semver.ParseVersion(version); err != nil {
			return Reference{}, err
		}
	}
	return Reference{Name: name, Version: version}, nil
}

func isManifestLocation(ref string) bool {
	if strings.Contains(ref, "://") {
		return true
	}
	if strings.ContainsAny(ref, `/\`) {
		return true
	}
	lower := strings.ToLower(ref)
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func parseRequested(version string) (semver.Version, error) {
	if strings.TrimSpace(version) == "" {
		return semver.Version{}, nil
	}
	return semver.ParseVersion(version)
}

func formatReference(name, version string) string {
	if version == "" {
		return name
	}
	return name + "@" + version
}
