package classify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/taxonomy"
)

func testTable() taxonomy.Table {
	return taxonomy.Table{
		{ID: "03.00", Description: "RESÍDUOS", Codes: []string{"3811-4/00", "3832-7/00"}},
		{ID: "06.00", Description: "COMÉRCIO", Codes: []string{"1311-1/00"}, Keywords: []string{"Veículos", "peças"}},
		{ID: "07.00", Description: "PLÁSTICOS", Codes: []string{"2219-6/00", "3832-7/00"}},
		{ID: "08.00", Description: "MINERAÇÃO", Codes: []string{"0810-0/06"}, Keywords: []string{"areia", "peças"}},
	}
}

func TestClassify_ExactCode(t *testing.T) {
	c := New(testTable())

	tests := []struct {
		name  string
		codes []string
		want  string
	}{
		{"punctuated", []string{"1311-1/00"}, "06.00"},
		{"unpunctuated", []string{"1311100"}, "06.00"},
		{"code with description", []string{"2219-6/00 - Fabricação de artefatos de borracha"}, "07.00"},
		{"unpunctuated with description", []string{"0810006 - Extração de areia"}, "08.00"},
		{"spaces", []string{"  3811-4/00 "}, "03.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := c.Classify(tt.codes, "")
			require.True(t, ok)
			assert.Equal(t, tt.want, m.GroupID)
			assert.Equal(t, MethodCode, m.Method)
		})
	}
}

func TestClassify_FirstCodeWins(t *testing.T) {
	c := New(testTable())

	m, ok := c.Classify([]string{"9999-9/99", "2219-6/00", "1311-1/00"}, "")
	require.True(t, ok)
	assert.Equal(t, "07.00", m.GroupID)
	assert.Equal(t, "2219-6/00", m.Code)

	m, ok = c.Classify([]string{"9999-9/99", "1311-1/00", "2219-6/00"}, "")
	require.True(t, ok)
	assert.Equal(t, "06.00", m.GroupID)
}

func TestClassify_DuplicateCodeResolvesToLastGroup(t *testing.T) {
	c := New(testTable())

	m, ok := c.Classify([]string{"3832-7/00"}, "")
	require.True(t, ok)
	assert.Equal(t, "07.00", m.GroupID)
}

func TestClassify_KeywordFallback(t *testing.T) {
	c := New(testTable())

	m, ok := c.Classify([]string{"4541-2/06"}, "Comércio a varejo de PEÇAS e acessórios novos para motocicletas")
	require.True(t, ok)
	assert.Equal(t, "06.00", m.GroupID, "first group in table order wins")
	assert.Equal(t, MethodKeyword, m.Method)
	assert.Equal(t, "peças", m.Code)

	m, ok = c.Classify(nil, "Comércio a varejo de veículos usados")
	require.True(t, ok)
	assert.Equal(t, "06.00", m.GroupID, "keywords are matched case-insensitively")

	m, ok = c.Classify([]string{""}, "Extração de areia")
	require.True(t, ok)
	assert.Equal(t, "08.00", m.GroupID)
}

func TestClassify_CodeBeatsKeyword(t *testing.T) {
	c := New(testTable())

	m, ok := c.Classify([]string{"2219-6/00"}, "comércio de veículos")
	require.True(t, ok)
	assert.Equal(t, "07.00", m.GroupID)
}

func TestClassify_NoMatch(t *testing.T) {
	c := New(testTable())

	_, ok := c.Classify([]string{"0000-0/00"}, "Atividades de consultoria")
	assert.False(t, ok)

	_, ok = c.Classify(nil, "")
	assert.False(t, ok)
}

func TestClassify_DefaultTable(t *testing.T) {
	c := New(taxonomy.Default())

	m, ok := c.Classify([]string{"1412-6/01"}, "")
	require.True(t, ok)
	assert.Equal(t, taxonomy.GroupTextile, m.GroupID)

	m, ok = c.Classify([]string{"4213800"}, "")
	require.True(t, ok)
	assert.Equal(t, "20.00", m.GroupID)

	m, ok = c.Classify([]string{"2330-3/99"}, "Fabricação de artefatos de cimento para uso na construção")
	require.True(t, ok)
	assert.Equal(t, "24.00", m.GroupID)
}

func TestClassify_Concurrent(t *testing.T) {
	c := New(taxonomy.Default())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, ok := c.Classify([]string{"3811400"}, "")
			assert.True(t, ok)
			assert.Equal(t, "03.00", m.GroupID)
		}()
	}
	wg.Wait()
}

func TestCodeHelpers(t *testing.T) {
	assert.Equal(t, "4213800", StripSeparators("4213-8/00"))
	assert.Equal(t, "4213-8/00", CodeOnly("4213-8/00 - Obras portuárias"))
	assert.Equal(t, "4213800", CodeOnly("4213800"))
	assert.Equal(t, "", CodeOnly(""))
	assert.Positive(t, New(testTable()).Size())
}
