// =============================================================================
// Invoice XML Exporter - Field Formatting
// =============================================================================
//
// This module holds the value formatting rules of the XML format:
//
//   - Dates:     "DD.MM.YYYY"
//   - Amounts:   two decimals, rounded half away from zero
//   - VAT:       total - total / (1 + rate/100), two decimals
//   - Addresses: "street1[, street2], city, zip, region"
//   - Names:     HTML-entity escaped before being written as XML text
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danutsss/invoice-xml-export/internal/lookup"
	"github.com/danutsss/invoice-xml-export/internal/types"
)

// ErrInvalidDate is returned for empty or unparsable invoice dates.
var ErrInvalidDate = errors.New("invalid date")

// =============================================================================
// DATES
// =============================================================================

// XMLDateLayout is the date layout of FacturaData and FacturaScadenta.
const XMLDateLayout = "02.01.2006"

// inputDateLayouts are tried in order when parsing API dates.
var inputDateLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an API date. The offset in the value is kept, so the
// calendar day is the one the billing platform shows.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// FormatDate converts an API date to DD.MM.YYYY.
func FormatDate(value string) (string, error) {
	t, err := ParseDate(value)
	if err != nil {
		return "", err
	}
	return t.Format(XMLDateLayout), nil
}

// =============================================================================
// AMOUNTS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// VATAmount returns the VAT contained in a VAT-inclusive total.
// With rate 19: total - total/1.19.
func VATAmount(total, rate decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	return total.Sub(total.Div(divisor))
}

// =============================================================================
// ADDRESSES
// =============================================================================

// FormatAddress renders the client address of an invoice.
// The region segment is always present, so an invoice without a country
// ends in ", ".
func FormatAddress(invoice *types.Invoice, maps *lookup.Maps) string {
	street := invoice.ClientStreet1
	if truthy(invoice.ClientStreet2) {
		street += ", " + invoice.ClientStreet2
	}

	return fmt.Sprintf("%s, %s, %s, %s",
		street,
		invoice.ClientCity,
		invoice.ClientZipCode,
		maps.Region(invoice.ClientCountryID, invoice.ClientStateID),
	)
}

// truthy treats "" and "0" as absent, the way the billing platform's own
// templates do.
func truthy(s string) bool {
	return s != "" && s != "0"
}
