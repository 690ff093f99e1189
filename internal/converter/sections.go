// =============================================================================
// Invoice XML Exporter - Factura Sections
// =============================================================================
//
// A <Factura> element has four sections, always in this order:
//
//   <Factura>
//     <Antet>       supplier, client and invoice header fields
//     <Detalii>     a single line item: Continut/Linie
//     <Sumar>       totals
//     <Observatii>  two empty placeholders
//   </Factura>
//
// Element names, order and literal values are fixed by the importer.
//
// =============================================================================

package converter

import (
	"github.com/shopspring/decimal"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/xmlwriter"
)

// Literal values of the header and line item.
const (
	ClientCountryCode = "RO"
	ReverseChargeFlag = "NU"
	CashVATFlag       = "NU"
	Currency          = "RON"
	UnitOfMeasure     = "buc"
	Quantity          = "1"
	NoVAT             = "0"
)

// invoiceFields are the formatted values of one invoice.
type invoiceFields struct {
	Identity    ClientIdentity
	Address     string
	Number      string
	CreatedDate string
	DueDate     string
	Total       decimal.Decimal
}

// vatFields are the VAT values shared by Detalii and Sumar.
type vatFields struct {
	Percentage string
	Amount     string
}

// computeVAT returns the VAT percentage and amount for total.
// Without VAT both are the literal "0".
func computeVAT(total, rate decimal.Decimal, includeVAT bool) vatFields {
	if !includeVAT {
		return vatFields{Percentage: NoVAT, Amount: NoVAT}
	}
	return vatFields{
		Percentage: rate.String(),
		Amount:     FormatAmount(VATAmount(total, rate)),
	}
}

// buildFactura assembles the <Factura> element.
func buildFactura(supplier config.Supplier, fields invoiceFields, vat vatFields) *xmlwriter.Element {
	return xmlwriter.NewElement("Factura",
		buildHeader(supplier, fields),
		buildDetails(fields, vat),
		buildSummary(fields, vat),
		buildObservations(),
	)
}

// buildHeader assembles <Antet>.
func buildHeader(supplier config.Supplier, fields invoiceFields) *xmlwriter.Element {
	return xmlwriter.NewElement("Antet",
		// Supplier
		xmlwriter.Text("FurnizorNume", supplier.Name),
		xmlwriter.Text("FurnizorCIF", supplier.TaxID),
		xmlwriter.Text("FurnizorRegCom", supplier.RegistrationNumber),
		xmlwriter.Text("FurnizorCapital", supplier.ShareCapital),
		xmlwriter.Text("FurnizorAdresa", supplier.Address),
		xmlwriter.Text("FurnizorBanca", supplier.Bank),
		xmlwriter.Text("FurnizorBancaIBAN", supplier.IBAN),
		xmlwriter.Text("FurnizorInformatiiSuplimentare", supplier.Info),

		// Client
		xmlwriter.Content("ClientNume", HTMLEntities(fields.Identity.Name())),
		xmlwriter.Empty("ClientInformatiiSuplimentare"),
		xmlwriter.Text("ClientCIF", fields.Identity.TaxID()),
		xmlwriter.Text("ClientNrRegCom", fields.Identity.RegistrationNumber()),
		xmlwriter.Text("ClientTara", ClientCountryCode),
		xmlwriter.Text("ClientAdresa", fields.Address),
		xmlwriter.Empty("ClientBanca"),
		xmlwriter.Empty("ClientIBAN"),

		// Invoice
		xmlwriter.Text("FacturaNumar", fields.Number),
		xmlwriter.Text("FacturaData", fields.CreatedDate),
		xmlwriter.Text("FacturaScadenta", fields.DueDate),
		xmlwriter.Text("FacturaTaxareInversa", ReverseChargeFlag),
		xmlwriter.Text("FacturaTVAIncasare", CashVATFlag),
		xmlwriter.Empty("FacturaInformatiiSuplimentare"),
		xmlwriter.Text("FacturaMoneda", Currency),
	)
}

// buildDetails assembles <Detalii><Continut><Linie>.
func buildDetails(fields invoiceFields, vat vatFields) *xmlwriter.Element {
	amount := FormatAmount(fields.Total)

	line := xmlwriter.NewElement("Linie",
		xmlwriter.Text("LiniNrCrt", fields.Number),
		xmlwriter.Content("Descriere", HTMLEntities(fields.Identity.Name())),
		xmlwriter.Empty("CodArticolFurnizor"),
		xmlwriter.Empty("CodArticolClient"),
		xmlwriter.Empty("InformatiiSuplimentare"),
		xmlwriter.Text("UM", UnitOfMeasure),
		xmlwriter.Text("Cantitate", Quantity),
		xmlwriter.Text("Pret", amount),
		xmlwriter.Text("Valoare", amount),
		xmlwriter.Text("ProcTVA", vat.Percentage),
		xmlwriter.Text("TVA", vat.Amount),
	)

	return xmlwriter.NewElement("Detalii", xmlwriter.NewElement("Continut", line))
}

// buildSummary assembles <Sumar>.
func buildSummary(fields invoiceFields, vat vatFields) *xmlwriter.Element {
	amount := FormatAmount(fields.Total)

	return xmlwriter.NewElement("Sumar",
		xmlwriter.Text("TotalValoare", amount),
		xmlwriter.Text("TotalTVA", vat.Amount),
		xmlwriter.Text("TotalFactura", amount),
	)
}

// buildObservations assembles the always-empty <Observatii>.
func buildObservations() *xmlwriter.Element {
	return xmlwriter.NewElement("Observatii",
		xmlwriter.Empty("txtObservatii"),
		xmlwriter.Empty("SoldClient"),
	)
}
