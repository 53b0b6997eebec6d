package resolver

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var defaultCatalogData string

// Membership is the catalog's answer for a name under a wildcard import.
type Membership int

const (
	// MembershipUnknown: the package is not in the catalog.
	MembershipUnknown Membership = iota
	// MembershipAbsent: the package is known and does not export the name.
	MembershipAbsent
	// MembershipConfirmed: the package is known to export the name.
	MembershipConfirmed
)

type catalogSection struct {
	Implicit []string            `toml:"implicit"`
	Packages map[string][]string `toml:"packages"`
}

type languageCatalog struct {
	implicit map[string]struct{}
	packages map[string]map[string]struct{}
}

// Catalog lists well-known package members and the names each language makes
// available without an import. It is immutable once loaded.
type Catalog struct {
	languages map[string]*languageCatalog
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(defaultCatalogData)
	})
	return defaultCatalog, defaultCatalogErr
}

func ParseCatalog(data string) (*Catalog, error) {
	var sections map[string]catalogSection
	if _, err := toml.Decode(data, &sections); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{languages: make(map[string]*languageCatalog, len(sections))}
	c.merge(sections)
	return c, nil
}

// LoadCatalogFile reads an additional catalog and layers it over base. The
// result is a new catalog; base is not modified.
func LoadCatalogFile(base *Catalog, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var sections map[string]catalogSection
	if _, err := toml.Decode(string(data), &sections); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	out := base.clone()
	out.merge(sections)
	return out, nil
}

func (c *Catalog) merge(sections map[string]catalogSection) {
	for lang, section := range sections {
		lc, ok := c.languages[lang]
		if !ok {
			lc = &languageCatalog{
				implicit: make(map[string]struct{}),
				packages: make(map[string]map[string]struct{}),
			}
			c.languages[lang] = lc
		}
		for _, name := range section.Implicit {
			lc.implicit[name] = struct{}{}
		}
		for pkg, members := range section.Packages {
			set, ok := lc.packages[pkg]
			if !ok {
				set = make(map[string]struct{}, len(members))
				lc.packages[pkg] = set
			}
			for _, m := range members {
				set[m] = struct{}{}
			}
		}
	}
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{languages: make(map[string]*languageCatalog)}
	if c == nil {
		return out
	}
	for lang, lc := range c.languages {
		cp := &languageCatalog{
			implicit: make(map[string]struct{}, len(lc.implicit)),
			packages: make(map[string]map[string]struct{}, len(lc.packages)),
		}
		for name := range lc.implicit {
			cp.implicit[name] = struct{}{}
		}
		for pkg, members := range lc.packages {
			set := make(map[string]struct{}, len(members))
			for m := range members {
				set[m] = struct{}{}
			}
			cp.packages[pkg] = set
		}
		out.languages[lang] = cp
	}
	return out
}

// Implicit reports whether name is in scope without any import.
func (c *Catalog) Implicit(language, name string) bool {
	if c == nil {
		return false
	}
	lc, ok := c.languages[language]
	if !ok {
		return false
	}
	_, ok = lc.implicit[name]
	return ok
}

func (c *Catalog) Lookup(language, pkg, name string) Membership {
	if c == nil {
		return MembershipUnknown
	}
	lc, ok := c.languages[language]
	if !ok {
		return MembershipUnknown
	}
	members, ok := lc.packages[pkg]
	if !ok {
		return MembershipUnknown
	}
	if _, ok := members[name]; ok {
		return MembershipConfirmed
	}
	return MembershipAbsent
}
