package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validFactura = `  <Factura>
    <Antet>
      <FurnizorNume>ZERO SAPTE SERVICES S.R.L</FurnizorNume>
      <FurnizorCIF>RO45858226</FurnizorCIF>
      <ClientNume>L&eacute;a Popescu &amp; Fiii</ClientNume>
      <ClientCIF>{CIF}</ClientCIF>
      <ClientNrRegCom>NULL</ClientNrRegCom>
      <FacturaNumar>2023-0001</FacturaNumar>
      <FacturaData>{DATE}</FacturaData>
      <FacturaScadenta>15.05.2023</FacturaScadenta>
      <FacturaMoneda>RON</FacturaMoneda>
    </Antet>
    <Detalii>
      <Continut>
        <Linie>
          <Pret>{AMOUNT}</Pret>
          <Valoare>119.00</Valoare>
          <ProcTVA>19</ProcTVA>
          <TVA>19.00</TVA>
        </Linie>
      </Continut>
    </Detalii>
    <Sumar>
      <TotalValoare>119.00</TotalValoare>
      <TotalTVA>19.00</TotalTVA>
      <TotalFactura>119.00</TotalFactura>
    </Sumar>
    <Observatii>
      <txtObservatii/>
      <SoldClient/>
    </Observatii>
  </Factura>
`

func factura(cif, date, amount string) string {
	r := strings.NewReplacer("{CIF}", cif, "{DATE}", date, "{AMOUNT}", amount)
	return r.Replace(validFactura)
}

func document(facturi ...string) []byte {
	return []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<Facturi>\n" + strings.Join(facturi, "") + "</Facturi>\n")
}

func TestCheckDocumentValid(t *testing.T) {
	doc := document(
		factura("RO123", "01.05.2023", "119.00"),
		factura("1900101123456", "02.05.2023", "10.50"),
	)

	result := CheckDocument(doc)
	if !result.IsValid {
		t.Fatalf("CheckDocument() invalid:\n%s", FormatErrors(result.Errors))
	}
	if result.InvoicesChecked != 2 {
		t.Errorf("InvoicesChecked = %d, want 2", result.InvoicesChecked)
	}
}

func TestCheckDocumentProblems(t *testing.T) {
	tests := []struct {
		name         string
		doc          []byte
		wantValid    bool
		wantInErrors string
	}{
		{
			name:         "malformed",
			doc:          []byte("<Facturi><Factura></Facturi>"),
			wantInErrors: "malformed XML",
		},
		{
			name:         "wrong root",
			doc:          []byte("<Invoices/>"),
			wantInErrors: "root element must be <Facturi>",
		},
		{
			name:         "no invoices",
			doc:          []byte("<Facturi/>"),
			wantInErrors: "no <Factura>",
		},
		{
			name:         "bad date",
			doc:          document(factura("RO1", "2023-05-01", "119.00")),
			wantInErrors: "Facturi/Factura[1]/Antet/FacturaData",
		},
		{
			name:         "bad amount",
			doc:          document(factura("RO1", "01.05.2023", "119")),
			wantInErrors: "two decimals",
		},
		{
			name:         "not a number",
			doc:          document(factura("RO1", "01.05.2023", "abc")),
			wantInErrors: "not a valid amount",
		},
		{
			name: "sections out of order",
			doc: document(strings.Replace(
				factura("RO1", "01.05.2023", "119.00"),
				"<Sumar>", "<Summary/>\n    <Sumar>", 1)),
			wantInErrors: "sections must be Antet, Detalii, Sumar, Observatii",
		},
		{
			name:         "missing client tax id is a warning",
			doc:          document(factura("", "01.05.2023", "119.00")),
			wantValid:    true,
			wantInErrors: "ClientCIF: element is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDocument(tt.doc)

			if result.IsValid != tt.wantValid {
				t.Errorf("IsValid = %v, want %v\n%s", result.IsValid, tt.wantValid, FormatErrors(result.Errors))
			}
			if !strings.Contains(FormatErrors(result.Errors), tt.wantInErrors) {
				t.Errorf("errors do not mention %q:\n%s", tt.wantInErrors, FormatErrors(result.Errors))
			}
		})
	}
}

func TestCheckDocumentMissingElement(t *testing.T) {
	doc := document(strings.Replace(
		factura("RO1", "01.05.2023", "119.00"),
		"      <FacturaMoneda>RON</FacturaMoneda>\n", "", 1))

	result := CheckDocument(doc)
	if result.IsValid || result.ErrorCount != 1 {
		t.Fatalf("ErrorCount = %d\n%s", result.ErrorCount, FormatErrors(result.Errors))
	}
	if result.Errors[0].Path != "Facturi/Factura[1]/Antet/FacturaMoneda" {
		t.Errorf("Path = %q", result.Errors[0].Path)
	}
}

func TestCheckFileAndErrorLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(path, []byte("<Invoices/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := CheckFile(path)
	if err != nil {
		t.Fatalf("CheckFile() error = %v", err)
	}
	if result.IsValid {
		t.Fatal("expected an invalid result")
	}

	logPath := filepath.Join(dir, "errors.txt")
	if err := WriteErrorLog(result.Errors, logPath); err != nil {
		t.Fatalf("WriteErrorLog() error = %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "1. [ERROR]") {
		t.Errorf("log content:\n%s", data)
	}

	if _, err := CheckFile(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestFormatErrorsEmpty(t *testing.T) {
	if got := FormatErrors(nil); got != "No validation errors." {
		t.Errorf("FormatErrors(nil) = %q", got)
	}
}
