// Package taxonomy holds the municipal activity-licensing table that maps
// legal groups to CNAE activity codes and keyword hints.
package taxonomy

// Group is a licensing category defined by municipal ordinance.
type Group struct {
	ID          string   `yaml:"id" json:"id"`
	Description string   `yaml:"description" json:"description"`
	Codes       []string `yaml:"codes" json:"codes"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// Table is an ordered list of groups. Declaration order is the keyword
// fallback priority.
type Table []Group

// Group ids with special handling in the enrichment rules.
const (
	GroupCommerceServices = "06.00"
	GroupSolidWaste       = "03.00"
	GroupTextile          = "23.00"
)

// Get returns the group with the given id.
func (t Table) Get(id string) (Group, bool) {
	for _, g := range t {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Default returns the built-in table for Iguatu/CE Law 2.917/2021.
func Default() Table {
	return Table{
		{ID: "01.00", Description: "AGROPECUÁRIA", Codes: []string{"0151-2/01", "0151-2/02", "0151-2/03", "0154-7/00", "0155-5/01", "0155-5/05", "0119-9/99", "0122-9/00", "0161-0/01", "4683-4/00"}},
		{ID: "02.00", Description: "AQUICULTURA", Codes: []string{"0321-3/01", "0321-3/02", "0321-3/03", "0321-3/04", "0321-3/05", "0322-1/01", "0322-1/02", "0322-1/07", "0322-1/99"}},
		{ID: "03.00", Description: "RESÍDUOS SÓLIDOS (ALTO RISCO)", Codes: []string{"3811-4/00", "3812-2/00", "3821-1/00", "3822-0/00", "3831-9/01", "3831-9/99", "3832-7/00", "3839-4/99", "4930-2/03", "4687-7/01"}},
		{ID: "04.00", Description: "FLORESTAL", Codes: []string{"0210-1/01", "0210-1/03", "0210-1/07", "0220-9/01", "0220-9/02", "0230-6/00"}},
		{ID: "05.00", Description: "IND. MADEIRA", Codes: []string{"1610-2/03", "1610-2/04", "1629-3/01", "3101-2/00", "3102-1/00", "1622-6/99"}},
		{
			ID:          "06.00",
			Description: "COMÉRCIO E SERVIÇOS",
			Codes:       []string{"1311-1/00", "1312-0/00", "1340-5/01", "1340-5/02", "1412-6/01", "1412-6/03", "1510-6/00", "1531-9/01"},
			Keywords:    []string{"veículos", "peças", "automotivo"},
		},
		{ID: "07.00", Description: "IND. BORRACHA E PLÁSTICOS", Codes: []string{"2219-6/00", "2222-6/00", "2229-3/02", "2229-3/99", "3832-7/00"}},
		{
			ID:          "08.00",
			Description: "MINERAÇÃO / EXTRAÇÃO",
			Codes:       []string{"0810-0/06", "0810-0/07", "0810-0/99", "0990-4/03", "2392-3/00"},
			Keywords:    []string{"mineração", "extração", "areia", "pedra", "rocha", "barro", "cerâmica"},
		},
		{ID: "09.00", Description: "ENERGIA", Codes: []string{"3511-5/01", "3511-5/03", "3512-3/00", "3514-0/00", "4321-5/00"}},
		{ID: "10.00", Description: "IND. METALÚRGICA", Codes: []string{"2451-2/00", "2539-0/01", "2539-0/02", "2599-3/02", "2541-1/00", "2543-8/00"}},
		{ID: "11.00", Description: "ELETRÔNICOS E TRANSPORTE", Codes: []string{"2610-8/00", "2710-4/00", "2910-7/01", "2930-1/01", "3091-1/01", "4520-0/01", "4520-0/02"}},
		{ID: "12.00", Description: "PAPEL E EDITORA", Codes: []string{"1721-4/00", "1722-2/00", "1811-3/02", "1813-0/99", "3839-4/99"}},
		{ID: "13.00", Description: "ALIMENTAR E BEBIDAS", Codes: []string{"1011-2/01", "1012-1/01", "1051-1/00", "1091-1/01", "1091-1/02", "1113-5/02", "1122-4/01", "1099-6/04"}},
		{ID: "14.00", Description: "LOGÍSTICA E TRANSPORTE", Codes: []string{"5211-7/99", "4930-2/01", "4930-2/02", "5223-1/00", "5229-0/99"}},
		{ID: "15.00", Description: "ENERGIA E COMBUSTÍVEIS", Codes: []string{"3511-5/01", "3514-0/00", "4731-8/00", "4681-8/01", "4681-8/02"}},
		{ID: "16.00", Description: "SANEAMENTO", Codes: []string{"3600-6/01", "3701-1/00", "3600-6/02"}},
		{ID: "17.00", Description: "SAÚDE E LABORATÓRIOS", Codes: []string{"8610-1/01", "8610-1/02", "8640-2/02", "7210-0/00", "8690-9/99"}},
		{
			ID:          "18.00",
			Description: "SERVIÇOS E COMÉRCIO (ALIMENTAR)",
			Codes:       []string{"4711-3/01", "4711-3/02", "4520-0/00", "9511-8/00", "9521-5/00"},
			Keywords:    []string{"carne", "frigorífico", "embutidos", "abatedouro", "laticínios", "leite"},
		},
		{ID: "19.00", Description: "EDUCAÇÃO E CULTURA", Codes: []string{"8513-9/00", "8520-1/00", "7220-7/00", "9101-5/00", "9102-3/01"}},
		{ID: "20.00", Description: "INFRAESTRUTURA CIVIL / LOTEAMENTOS", Codes: []string{"4120-4/00", "4313-4/00", "4211-1/01", "4213-8/00", "4399-1/00", "6810-2/03"}},
		{ID: "21.00", Description: "TURISMO E LAZER", Codes: []string{"5510-8/01", "5510-8/02", "5510-8/03", "9321-2/00", "9311-5/00", "9329-8/99"}},
		{ID: "22.00", Description: "DIVERSOS / OUTROS", Codes: []string{}},
		{ID: "23.00", Description: "IND. TÊXTIL / VESTUÁRIO", Codes: []string{"1412-6/01"}},
		{
			ID:          "24.00",
			Description: "INDÚSTRIAS DIVERSAS (CONCRETO)",
			Codes:       []string{"1813-0/99", "3103-9/00", "2330-3/05", "3211-6/02"},
			Keywords:    []string{"concreto", "usina", "cimento", "artefatos", "pré-moldado", "argamassa", "britagem"},
		},
	}
}
