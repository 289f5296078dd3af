package taxonomy

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Load reads a taxonomy table from a YAML file. The file has a top-level
// "groups" list; list order becomes the keyword fallback priority.
//
//	groups:
//	  - id: "06.00"
//	    description: COMÉRCIO E SERVIÇOS
//	    codes: ["1311-1/00"]
//	    keywords: ["veículos"]
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML taxonomy document and validates it.
func Parse(data []byte) (Table, error) {
	var doc struct {
		Groups Table `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse")
	}
	if len(doc.Groups) == 0 {
		return nil, eris.New("taxonomy: no groups defined")
	}

	seen := make(map[string]bool, len(doc.Groups))
	for i, g := range doc.Groups {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			return nil, eris.Errorf("taxonomy: group %d has no id", i)
		}
		if seen[id] {
			return nil, eris.Errorf("taxonomy: duplicate group id %s", id)
		}
		seen[id] = true
		doc.Groups[i].ID = id
		if doc.Groups[i].Codes == nil {
			doc.Groups[i].Codes = []string{}
		}
	}
	return doc.Groups, nil
}

// Resolve returns the table at path, or the built-in table when path is empty.
func Resolve(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
