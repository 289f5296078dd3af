package cnpja

import (
	"fmt"
	"strings"

	"github.com/sells-group/radar-cli/internal/model"
)

// ToRawCompany maps an office record to the pipeline's raw record. Missing
// sub-objects yield zero values.
func ToRawCompany(o *Office) model.RawCompany {
	if o == nil {
		return model.RawCompany{SecondaryActivities: []string{}}
	}

	company := o.Company
	if company == nil {
		company = &Company{}
	}

	out := model.RawCompany{
		TaxID:               o.TaxID,
		LegalName:           company.Name,
		TradeName:           o.Alias,
		FoundedOn:           o.Founded,
		Capital:             company.Equity,
		LegalNature:         labelText(company.Nature),
		RevenueSize:         model.RevenueSizeUnknown,
		SecondaryActivities: []string{},
	}
	if out.LegalName == "" {
		out.LegalName = o.Alias
	}
	if out.TradeName == "" {
		out.TradeName = company.Name
	}
	if company.Size != nil && company.Size.Text != "" {
		out.RevenueSize = company.Size.Text
	}

	if o.MainActivity != nil {
		out.PrimaryActivity = o.MainActivity.ID.String()
		out.PrimaryDescription = o.MainActivity.Text
	}

	side := o.SideActivities
	if len(side) == 0 {
		side = o.SecondaryActivities
	}
	for _, a := range side {
		id := a.ID.String()
		if id == "" {
			continue
		}
		if a.Text != "" {
			id += " - " + a.Text
		}
		out.SecondaryActivities = append(out.SecondaryActivities, id)
	}

	if a := o.Address; a != nil {
		out.Street = a.Street
		out.Number = a.Number
		out.District = a.District
		out.Municipality = a.City
		out.State = a.State
		out.PostalCode = a.Zip
	}

	if len(o.Phones) > 0 {
		p := o.Phones[0]
		if p.Area != "" && p.Number != "" {
			out.Phone = fmt.Sprintf("(%s) %s", p.Area, p.Number)
		}
	}

	members := company.Members
	if len(members) == 0 {
		members = o.Members
	}
	out.Partners = memberNames(members)

	return out
}

func memberNames(members []Member) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		name := m.Name
		if m.Person != nil && m.Person.Name != "" {
			name = m.Person.Name
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func labelText(l *Labeled) string {
	if l == nil {
		return ""
	}
	if l.Text != "" {
		return l.Text
	}
	return l.ID.String()
}
