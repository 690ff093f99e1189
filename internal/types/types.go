// =============================================================================
// Invoice XML Exporter - Shared Types
// =============================================================================
//
// This package contains the billing API records shared by the API client,
// the lookup maps, the converter and the web surface. Keeping them here avoids
// import cycles between those packages.
//
// JSON FIELD NAMES:
//   The struct tags follow the field names returned by the billing API
//   (camelCase, e.g. "clientCompanyName").
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CLIENT TYPES
// =============================================================================

// Client types as returned in Client.ClientType.
const (
	// ClientTypeIndividual marks a natural person.
	ClientTypeIndividual = 1

	// ClientTypeCompany marks a legal entity.
	ClientTypeCompany = 2
)

// CNPAttributeKey is the custom attribute key holding an individual's CNP.
const CNPAttributeKey = "cnp"

// =============================================================================
// INVOICE
// =============================================================================

// Invoice is a single invoice record as returned by GET invoices.
// Only the fields used by the export are mapped.
type Invoice struct {
	// ID is the billing platform's invoice id.
	ID int `json:"id"`

	// Number is the human-facing invoice number (e.g. "2023000123").
	Number string `json:"number"`

	// ClientID references the client record (GET clients/{id}).
	ClientID int `json:"clientId"`

	// Client name fields, copied onto the invoice at issue time.
	ClientFirstName   string `json:"clientFirstName"`
	ClientLastName    string `json:"clientLastName"`
	ClientCompanyName string `json:"clientCompanyName"`

	// Client address fields.
	// ClientCountryID and ClientStateID are nil when the API returns null.
	ClientStreet1   string `json:"clientStreet1"`
	ClientStreet2   string `json:"clientStreet2"`
	ClientCity      string `json:"clientCity"`
	ClientZipCode   string `json:"clientZipCode"`
	ClientCountryID *int   `json:"clientCountryId"`
	ClientStateID   *int   `json:"clientStateId"`

	// CreatedDate and DueDate are ISO-8601 strings, e.g. "2023-05-01T00:00:00+0300".
	// They are kept as strings and parsed during export so that a malformed
	// value fails the export instead of the API decode.
	CreatedDate string `json:"createdDate"`
	DueDate     string `json:"dueDate"`

	// Total is the invoice total including VAT.
	Total decimal.Decimal `json:"total"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client record as returned by GET clients/{id}.
type Client struct {
	ID         int `json:"id"`
	ClientType int `json:"clientType"`

	// CompanyRegistrationNumber and CompanyTaxID are nil when null.
	CompanyRegistrationNumber *string `json:"companyRegistrationNumber"`
	CompanyTaxID              *string `json:"companyTaxId"`

	// Attributes holds the client's custom attributes.
	Attributes []ClientAttribute `json:"attributes"`
}

// ClientAttribute is one custom attribute of a client.
type ClientAttribute struct {
	ID    int     `json:"id"`
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// IsCompany reports whether the client is a legal entity.
func (c *Client) IsCompany() bool {
	return c.ClientType == ClientTypeCompany
}

// Attribute returns the value of the first attribute with the given key.
// A missing attribute and a null value both yield ("", false).
func (c *Client) Attribute(key string) (string, bool) {
	for _, attr := range c.Attributes {
		if attr.Key != key {
			continue
		}
		if attr.Value == nil {
			return "", false
		}
		return *attr.Value, true
	}
	return "", false
}

// =============================================================================
// LOOKUP RECORDS
// =============================================================================

// NamedEntity is an {id, name} record: countries, states and organizations.
type NamedEntity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
