package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/wikiquery/internal/domain/article"
)

// FixtureArticle is one article as written in a YAML fixture. Links hold
// target article ids; titles are resolved on load.
type FixtureArticle struct {
	ID         int64    `yaml:"id"`
	Title      string   `yaml:"title"`
	Content    string   `yaml:"content"`
	Categories []string `yaml:"categories"`
	Links      []int64  `yaml:"links"`
}

// Fixture is a small article corpus used for seeding and tests.
type Fixture struct {
	Articles []FixtureArticle `yaml:"articles"`
}

// LoadFixture reads a YAML fixture from disk.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture and checks id uniqueness.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	seen := make(map[int64]struct{}, len(f.Articles))
	for _, a := range f.Articles {
		if a.ID < 0 {
			return Fixture{}, fmt.Errorf("fixture article %q: negative id %d", a.Title, a.ID)
		}
		if _, dup := seen[a.ID]; dup {
			return Fixture{}, fmt.Errorf("fixture: duplicate article id %d", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return f, nil
}

// Nodes converts the fixture into article nodes with content. Links to ids
// outside the fixture are dropped.
func (f Fixture) Nodes() []article.Node {
	titles := make(map[int64]string, len(f.Articles))
	for _, a := range f.Articles {
		titles[a.ID] = a.Title
	}
	nodes := make([]article.Node, 0, len(f.Articles))
	for _, a := range f.Articles {
		links := make([]article.Link, 0, len(a.Links))
		for _, target := range a.Links {
			title, ok := titles[target]
			if !ok {
				continue
			}
			links = append(links, article.Link{ID: target, Title: title})
		}
		nodes = append(nodes, article.New(a.ID, a.Title, a.Categories, links).WithContent(a.Content))
	}
	return nodes
}
