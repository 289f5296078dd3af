// Package classify resolves a company's CNAE activity codes to a legal
// licensing group.
package classify

import (
	"strings"

	"github.com/sells-group/radar-cli/internal/taxonomy"
)

// Method records which phase produced a match.
type Method string

// Match methods.
const (
	MethodCode    Method = "code"
	MethodKeyword Method = "keyword"
)

// Match is the resolved legal group for a company.
type Match struct {
	GroupID     string `json:"group_id"`
	Description string `json:"description"`
	Method      Method `json:"method"`
	// Code is the activity code that matched (code phase) or the keyword (keyword phase).
	Code string `json:"code"`
}

type indexEntry struct {
	id   string
	desc string
}

// Classifier maps activity codes to legal groups. It is immutable after New
// and safe for concurrent use.
type Classifier struct {
	table taxonomy.Table
	index map[string]indexEntry
}

// New builds the reverse code index for table. A code listed under more than
// one group resolves to the group declared last.
func New(table taxonomy.Table) *Classifier {
	idx := make(map[string]indexEntry)
	for _, g := range table {
		e := indexEntry{id: g.ID, desc: g.Description}
		for _, code := range g.Codes {
			idx[code] = e
			idx[StripSeparators(code)] = e
		}
	}
	keywords := make(taxonomy.Table, len(table))
	for i, g := range table {
		keywords[i] = g
		lowered := make([]string, 0, len(g.Keywords))
		for _, kw := range g.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				lowered = append(lowered, kw)
			}
		}
		keywords[i].Keywords = lowered
	}
	return &Classifier{table: keywords, index: idx}
}

// Size returns the number of index keys.
func (c *Classifier) Size() int {
	return len(c.index)
}

// Classify resolves codes (primary first, then secondaries in order) and
// falls back to keyword search over description. The first matching code
// wins; in the keyword phase the first group in table order wins.
func (c *Classifier) Classify(codes []string, description string) (Match, bool) {
	for _, raw := range codes {
		code := CodeOnly(raw)
		if code == "" {
			continue
		}
		e, ok := c.index[code]
		if !ok {
			e, ok = c.index[StripSeparators(code)]
		}
		if ok {
			return Match{GroupID: e.id, Description: e.desc, Method: MethodCode, Code: code}, true
		}
	}

	desc := strings.ToLower(description)
	if desc == "" {
		return Match{}, false
	}
	for _, g := range c.table {
		for _, kw := range g.Keywords {
			if strings.Contains(desc, kw) {
				return Match{GroupID: g.ID, Description: g.Description, Method: MethodKeyword, Code: kw}, true
			}
		}
	}
	return Match{}, false
}

// CodeOnly drops the " - description" suffix some providers append to codes.
func CodeOnly(raw string) string {
	code, _, _ := strings.Cut(raw, " - ")
	return strings.TrimSpace(code)
}

// StripSeparators removes the punctuation of a CNAE code: "4213-8/00" -> "4213800".
func StripSeparators(code string) string {
	return strings.TrimSpace(strings.NewReplacer("-", "", "/", "").Replace(code))
}
