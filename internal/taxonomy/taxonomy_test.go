package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_GroupsAndOrder(t *testing.T) {
	tbl := Default()
	require.Len(t, tbl, 24)
	assert.Equal(t, "01.00", tbl[0].ID)
	assert.Equal(t, "24.00", tbl[len(tbl)-1].ID)

	g, ok := tbl.Get(GroupCommerceServices)
	require.True(t, ok)
	assert.Equal(t, "COMÉRCIO E SERVIÇOS", g.Description)
	assert.Contains(t, g.Keywords, "veículos")

	_, ok = tbl.Get("99.00")
	assert.False(t, ok)
}

func TestDefault_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range Default() {
		assert.False(t, seen[g.ID], "duplicate id %s", g.ID)
		seen[g.ID] = true
		assert.NotNil(t, g.Codes)
	}
}

func TestParse(t *testing.T) {
	doc := `
groups:
  - id: " 06.00 "
    description: COMÉRCIO E SERVIÇOS
    codes: ["1311-1/00", "1311100"]
    keywords: ["veículos"]
  - id: "22.00"
    description: DIVERSOS
`
	tbl, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, tbl, 2)
	assert.Equal(t, "06.00", tbl[0].ID)
	assert.Equal(t, []string{"1311-1/00", "1311100"}, tbl[0].Codes)
	assert.Equal(t, []string{}, tbl[1].Codes)
	assert.Nil(t, tbl[1].Keywords)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "groups: []", "no groups"},
		{"missing id", "groups:\n  - description: x", "has no id"},
		{"duplicate", "groups:\n  - id: a\n  - id: a", "duplicate group id"},
		{"bad yaml", "groups: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolve(t *testing.T) {
	tbl, err := Resolve("")
	require.NoError(t, err)
	assert.Len(t, tbl, len(Default()))

	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  - id: \"01.00\"\n    description: AGRO\n"), 0o644))
	tbl, err = Resolve(path)
	require.NoError(t, err)
	require.Len(t, tbl, 1)
	assert.Equal(t, "AGRO", tbl[0].Description)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taxonomy: read")
}
