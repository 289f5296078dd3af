package cnpja

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Office is the CNPJá establishment record (OfficeDto). List endpoints return
// the same shape with fewer fields populated.
type Office struct {
	TaxID          string     `json:"taxId"`
	Alias          string     `json:"alias"`
	Founded        string     `json:"founded"`
	Company        *Company   `json:"company"`
	MainActivity   *Activity  `json:"mainActivity"`
	SideActivities []Activity `json:"sideActivities"`
	// SecondaryActivities is the legacy spelling of SideActivities.
	SecondaryActivities []Activity `json:"secondaryActivities"`
	Address             *Address   `json:"address"`
	Phones              []Phone    `json:"phones"`
	// Members appears at the root on some list payloads.
	Members []Member `json:"members"`
}

// Company is the legal entity behind an office.
type Company struct {
	Name    string          `json:"name"`
	Equity  decimal.Decimal `json:"equity"`
	Size    *Labeled        `json:"size"`
	Nature  *Labeled        `json:"nature"`
	Members []Member        `json:"members"`
}

// Labeled is an id/text pair used for size and legal nature.
type Labeled struct {
	ID   json.Number `json:"id"`
	Text string      `json:"text"`
}

// Activity is a CNAE entry. IDs are unpunctuated integers such as 4711302.
type Activity struct {
	ID   json.Number `json:"id"`
	Text string      `json:"text"`
}

// Member is a partner in the company's QSA.
type Member struct {
	Name   string  `json:"name"`
	Person *Person `json:"person"`
}

// Person identifies a member.
type Person struct {
	Name string `json:"name"`
}

// Address is an office's postal address.
type Address struct {
	Street       string      `json:"street"`
	Number       string      `json:"number"`
	District     string      `json:"district"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Zip          string      `json:"zip"`
	Municipality json.Number `json:"municipality"`
}

// Phone is a contact number split into area code and subscriber number.
type Phone struct {
	Area   string `json:"area"`
	Number string `json:"number"`
}

// SearchResponse is one page of the office search endpoint.
type SearchResponse struct {
	Next    string   `json:"next"`
	Limit   int      `json:"limit"`
	Records []Office `json:"records"`
}
