// =============================================================================
// Invoice XML Exporter - Client Identity
// =============================================================================
//
// The XML carries three client identity fields: the display name, the tax id
// (ClientCIF) and the trade register number (ClientNrRegCom). Their values
// depend on whether the client is a company or an individual, so the choice
// is made once per invoice and the result is a ClientIdentity variant:
//
//   Individual -> name "First Last", CIF = CNP attribute, NrRegCom = ""
//   Company    -> name = company name, CIF = company tax id,
//                 NrRegCom = registration number or "NULL"
//
// =============================================================================

package converter

import (
	"github.com/danutsss/invoice-xml-export/internal/types"
)

// MissingRegistrationNumber is written for companies without a trade register
// number. The importer rejects an empty ClientNrRegCom for companies.
const MissingRegistrationNumber = "NULL"

// ClientIdentity is either an Individual or a Company.
type ClientIdentity interface {
	// Name is the display name, before HTML-entity escaping.
	Name() string

	// TaxID is the value written to ClientCIF.
	TaxID() string

	// RegistrationNumber is the value written to ClientNrRegCom.
	RegistrationNumber() string

	isClientIdentity()
}

// Individual is a natural person identified by a CNP.
type Individual struct {
	FullName string
	CNP      string
}

func (i Individual) Name() string               { return i.FullName }
func (i Individual) TaxID() string              { return i.CNP }
func (i Individual) RegistrationNumber() string { return "" }
func (Individual) isClientIdentity()            {}

// Company is a legal entity identified by its tax id.
type Company struct {
	CompanyName    string
	CompanyTaxID   string
	RegistrationNo string
}

func (c Company) Name() string  { return c.CompanyName }
func (c Company) TaxID() string { return c.CompanyTaxID }

func (c Company) RegistrationNumber() string {
	if !truthy(c.RegistrationNo) {
		return MissingRegistrationNumber
	}
	return c.RegistrationNo
}

func (Company) isClientIdentity() {}

// ResolveIdentity picks the identity variant for an invoice and its client.
// Names come from the invoice; tax data comes from the client record.
func ResolveIdentity(invoice *types.Invoice, client *types.Client) ClientIdentity {
	if client.IsCompany() {
		return Company{
			CompanyName:    invoice.ClientCompanyName,
			CompanyTaxID:   deref(client.CompanyTaxID),
			RegistrationNo: deref(client.CompanyRegistrationNumber),
		}
	}

	cnp, _ := client.Attribute(types.CNPAttributeKey)
	return Individual{
		FullName: invoice.ClientFirstName + " " + invoice.ClientLastName,
		CNP:      cnp,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
