package reporting

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/profiles.yaml
var embeddedProfiles []byte

// UnknownOrganization is the code used when no organization name is known.
const UnknownOrganization = "UNKNOWN"

type Profile struct {
	Name              string   `yaml:"name" json:"name"`
	Type              string   `yaml:"type" json:"type"`
	Capacity          string   `yaml:"capacity" json:"capacity"`
	Pillars           []int    `yaml:"pillars" json:"pillars"`
	Scope             string   `yaml:"scope" json:"scope"`
	TargetPopulations []string `yaml:"target_populations" json:"targetPopulations"`
	ServiceTypes      []string `yaml:"service_types" json:"serviceTypes"`
	SuggestedData     []string `yaml:"suggested_data" json:"suggestedData"`
}

type Template struct {
	Template string   `yaml:"template" json:"template"`
	Examples []string `yaml:"examples" json:"examples"`
}

type codeRule struct {
	Match string `yaml:"match"`
	Code  string `yaml:"code"`
}

type suggestionRule struct {
	Template string   `yaml:"template"`
	AnyOf    []string `yaml:"any_of"`
	AllOf    []string `yaml:"all_of"`
}

// matches reports whether the lowercased name satisfies the rule.
func (r suggestionRule) matches(name string) bool {
	for _, kw := range r.AllOf {
		if !strings.Contains(name, kw) {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return len(r.AllOf) > 0
	}
	for _, kw := range r.AnyOf {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Catalog holds organization profiles and response templates.
type Catalog struct {
	Codes       []codeRule          `yaml:"organization_codes"`
	Profiles    map[string]Profile  `yaml:"profiles"`
	Templates   map[string]Template `yaml:"templates"`
	Suggestions []suggestionRule    `yaml:"suggestions"`
}

// LoadCatalog reads the embedded catalog, or path when given.
func LoadCatalog(path string) (*Catalog, error) {
	data := embeddedProfiles
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read profiles %s: %w", path, err)
		}
		data = b
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	for _, rule := range c.Suggestions {
		if _, ok := c.Templates[rule.Template]; !ok {
			return nil, fmt.Errorf("suggestion rule references unknown template %q", rule.Template)
		}
	}
	return &c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := LoadCatalog("")
		if err != nil {
			panic(fmt.Sprintf("embedded profiles invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// OrganizationCode maps a full organization name to its short code. Unknown
// names become the uppercased initials of their words.
func (c *Catalog) OrganizationCode(name string) string {
	if name == "" {
		return UnknownOrganization
	}
	for _, rule := range c.Codes {
		if strings.Contains(name, rule.Match) {
			return rule.Code
		}
	}
	var b strings.Builder
	for _, word := range strings.Split(name, " ") {
		if word == "" {
			continue
		}
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}

func (c *Catalog) Profile(code string) (Profile, bool) {
	p, ok := c.Profiles[code]
	return p, ok
}

// Suggest returns a response template for the indicator, or "" when the
// organization has no profile or no rule matches.
func (c *Catalog) Suggest(orgCode, indicatorName string) string {
	if _, ok := c.Profiles[orgCode]; !ok {
		return ""
	}
	name := strings.ToLower(indicatorName)
	for _, rule := range c.Suggestions {
		if rule.matches(name) {
			return c.Templates[rule.Template].Template
		}
	}
	return ""
}

func OrganizationCode(name string) string {
	return DefaultCatalog().OrganizationCode(name)
}

func Suggest(orgCode, indicatorName string) string {
	return DefaultCatalog().Suggest(orgCode, indicatorName)
}
