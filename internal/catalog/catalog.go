// Package catalog holds the static advisory tables: classifier keyword groups,
// language directives, system prompt templates and canned fallback answers.
// The tables ship embedded as YAML and are read-only after Load.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/kisanmitra/advisory/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Group is an ordered keyword group mapped to one category.
type Group struct {
	Category models.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

type document struct {
	Groups     []Group                               `yaml:"groups"`
	Directives map[string]string                     `yaml:"directives"`
	Prompts    map[models.Category]string            `yaml:"prompts"`
	Canned     map[string]map[models.Category]string `yaml:"canned"`
}

// Catalog is the parsed, validated set of tables.
type Catalog struct {
	groups     []Group
	directives map[string]string
	prompts    map[models.Category]*template.Template
	canned     map[string]map[models.Category]string
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustLoad is Load for package-level initialisation and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a Catalog from YAML source.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		directives: doc.Directives,
		prompts:    make(map[models.Category]*template.Template, len(doc.Prompts)),
		canned:     make(map[string]map[models.Category]string, len(doc.Canned)),
	}

	for _, g := range doc.Groups {
		if !g.Category.Valid() || g.Category == models.CategoryGeneral {
			return nil, fmt.Errorf("catalog group has invalid category %q", g.Category)
		}
		keywords := make([]string, 0, len(g.Keywords))
		for _, kw := range g.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		c.groups = append(c.groups, Group{Category: g.Category, Keywords: keywords})
	}

	if _, ok := c.directives[models.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("catalog has no %q directive", models.DefaultLanguage)
	}

	for cat, src := range doc.Prompts {
		if !cat.Valid() {
			return nil, fmt.Errorf("catalog prompt has invalid category %q", cat)
		}
		tmpl, err := template.New(string(cat)).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s prompt: %w", cat, err)
		}
		c.prompts[cat] = tmpl
	}
	if _, ok := c.prompts[models.CategoryGeneral]; !ok {
		return nil, fmt.Errorf("catalog has no general prompt")
	}

	for lang, table := range doc.Canned {
		if _, ok := table[models.CategoryGeneral]; !ok {
			return nil, fmt.Errorf("canned table %q has no general answer", lang)
		}
		c.canned[lang] = table
	}
	if _, ok := c.canned[models.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("catalog has no %q canned table", models.DefaultLanguage)
	}

	return c, nil
}

// Groups returns the keyword groups in priority order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Directive returns the phrasing directive for lang, English when unknown.
func (c *Catalog) Directive(lang string) string {
	if d, ok := c.directives[lang]; ok {
		return d
	}
	return c.directives[models.DefaultLanguage]
}

// SystemPrompt renders the instruction sent ahead of the farmer's question.
func (c *Catalog) SystemPrompt(category models.Category, lang string) (string, error) {
	tmpl, ok := c.prompts[category]
	if !ok {
		tmpl = c.prompts[models.CategoryGeneral]
	}

	var buf bytes.Buffer
	data := struct{ Directive string }{Directive: c.Directive(lang)}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", category, err)
	}
	return buf.String(), nil
}

// Canned returns the fixed answer for (lang, category). Unknown languages use
// the English table; categories missing from a table use its general answer.
func (c *Catalog) Canned(lang string, category models.Category) string {
	table, ok := c.canned[lang]
	if !ok {
		table = c.canned[models.DefaultLanguage]
	}
	if s, ok := table[category]; ok {
		return s
	}
	return table[models.CategoryGeneral]
}
