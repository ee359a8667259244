package stagesyml

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed heroku.example.yml
var Template []byte

// Settings is the raw configuration of one stage.
type Settings struct {
	App    string            `yaml:"app"`
	Repo   string            `yaml:"repo"`
	Stack  string            `yaml:"stack"`
	Tag    string            `yaml:"tag"`
	Config map[string]string `yaml:"config"`
	Addons AddonList         `yaml:"addons"`
	Deploy string            `yaml:"deploy"`
}

// AddonList accepts a sequence whose items are either names or sequences of
// names, which is what YAML aliases of a shared addon list produce:
//
//	addons:
//	  - *default_addons
//	  - other
type AddonList []string

func (a *AddonList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*a = nil
		return nil
	}
	var items []yaml.Node
	if err := value.Decode(&items); err != nil {
		return fmt.Errorf("addons: %w", err)
	}
	var out AddonList
	for _, item := range items {
		node := item
		if node.Kind == yaml.AliasNode {
			node = *node.Alias
		}
		switch node.Kind {
		case yaml.SequenceNode:
			var names []string
			if err := node.Decode(&names); err != nil {
				return fmt.Errorf("addons: line %d: %w", node.Line, err)
			}
			out = append(out, names...)
		case yaml.ScalarNode:
			out = append(out, node.Value)
		default:
			return fmt.Errorf("addons: line %d: expected a name or a list of names", node.Line)
		}
	}
	*a = out
	return nil
}

// Parse reads a stage file into stage name -> settings. Top-level entries
// that are not mappings (typically anchor holders for shared values) are
// skipped.
func Parse(path string) (map[string]Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stages: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) (map[string]Settings, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("stages parse: %w", err)
	}

	stages := make(map[string]Settings, len(raw))
	for name, node := range raw {
		n := node
		if n.Kind == yaml.AliasNode {
			n = *n.Alias
		}
		if n.Kind != yaml.MappingNode {
			log.Debugf("stages: skipping %q (not a mapping)", name)
			continue
		}
		var settings Settings
		if err := n.Decode(&settings); err != nil {
			return nil, fmt.Errorf("stages parse: %s: %w", name, err)
		}
		stages[name] = settings
	}
	return stages, nil
}

// Generate writes the example stage file to path unless something already
// exists there. It reports whether the file was written.
func Generate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stages: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("stages: %w", err)
	}
	if err := os.WriteFile(path, Template, 0644); err != nil {
		return false, fmt.Errorf("stages: write %s: %w", path, err)
	}
	return true, nil
}
