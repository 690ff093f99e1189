// =============================================================================
// Invoice XML Exporter - Structural Checker
// =============================================================================
//
// This module checks generated documents before they are handed to the
// e-invoicing importer. It does not validate against an XSD; it checks the
// structure the importer relies on:
//
// CHECKS:
//   1. Document-level: well-formed XML, root <Facturi>, at least one <Factura>
//   2. Section-level:  each <Factura> has exactly Antet, Detalii, Sumar and
//                      Observatii, in that order
//   3. Field-level:    mandatory leaves are present and correctly formatted
//                      (dates DD.MM.YYYY, amounts with two decimals)
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the element path and the offending value
//   - Warnings (e.g. a missing client tax id) do not make a document invalid
//
// =============================================================================

package validation

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/xmlpath.v2"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Sections lists the children of <Factura> in their required order.
var Sections = []string{"Antet", "Detalii", "Sumar", "Observatii"}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single problem found in a document.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Path locates the element, e.g. "Facturi/Factura[2]/Antet/FacturaData".
	Path string

	// Value is the offending text, if any.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (value: '%s')", strings.ToUpper(e.Severity), e.Path, e.Message, e.Value)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of checking one document.
type ValidationResult struct {
	// IsValid is true if there are no errors. Warnings are allowed.
	IsValid bool

	// Errors contains all problems, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// InvoicesChecked is the number of <Factura> elements found.
	InvoicesChecked int
}

func (r *ValidationResult) add(severity, path, value, message string) {
	r.Errors = append(r.Errors, &ValidationError{
		Severity: severity,
		Path:     path,
		Value:    value,
		Message:  message,
	})

	if severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// FIELD RULES
// =============================================================================

// fieldKind selects the format check applied to a leaf.
type fieldKind int

const (
	kindText fieldKind = iota
	kindDate
	kindAmount
)

// fieldRule describes one mandatory leaf, relative to <Factura>.
type fieldRule struct {
	path     string
	kind     fieldKind
	severity string
	compiled *xmlpath.Path
}

var fieldRules = compileRules([]fieldRule{
	{path: "Antet/FurnizorNume", kind: kindText, severity: SeverityError},
	{path: "Antet/FurnizorCIF", kind: kindText, severity: SeverityError},
	{path: "Antet/ClientNume", kind: kindText, severity: SeverityError},
	{path: "Antet/ClientCIF", kind: kindText, severity: SeverityWarning},
	{path: "Antet/FacturaNumar", kind: kindText, severity: SeverityError},
	{path: "Antet/FacturaData", kind: kindDate, severity: SeverityError},
	{path: "Antet/FacturaScadenta", kind: kindDate, severity: SeverityError},
	{path: "Antet/FacturaMoneda", kind: kindText, severity: SeverityError},
	{path: "Detalii/Continut/Linie/Pret", kind: kindAmount, severity: SeverityError},
	{path: "Detalii/Continut/Linie/Valoare", kind: kindAmount, severity: SeverityError},
	{path: "Sumar/TotalValoare", kind: kindAmount, severity: SeverityError},
	{path: "Sumar/TotalFactura", kind: kindAmount, severity: SeverityError},
})

func compileRules(rules []fieldRule) []fieldRule {
	for i := range rules {
		rules[i].compiled = xmlpath.MustCompile(rules[i].path)
	}
	return rules
}

var facturaPath = xmlpath.MustCompile("/Facturi/Factura")

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// CheckDocument checks one generated XML document.
//
// RETURNS:
//   - A ValidationResult. IsValid is false when any error was found.
func CheckDocument(data []byte) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	sections, err := scanSections(data)
	if err != nil {
		result.add(SeverityError, "", "", err.Error())
		return result
	}

	result.InvoicesChecked = len(sections)
	if len(sections) == 0 {
		result.add(SeverityError, "Facturi", "", "document contains no <Factura>")
		return result
	}

	for i, children := range sections {
		checkSectionOrder(result, facturaLabel(i), children)
	}

	root, err := xmlpath.ParseDecoder(newDecoder(data))
	if err != nil {
		result.add(SeverityError, "", "", fmt.Sprintf("failed to parse document: %v", err))
		return result
	}

	iter := facturaPath.Iter(root)
	for i := 0; iter.Next(); i++ {
		checkFields(result, facturaLabel(i), iter.Node())
	}

	return result
}

// CheckFile reads and checks the document at path.
func CheckFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return CheckDocument(data), nil
}

func facturaLabel(index int) string {
	return fmt.Sprintf("Facturi/Factura[%d]", index+1)
}

// newDecoder returns a decoder that knows the HTML entities written into
// client names, e.g. &eacute;.
func newDecoder(data []byte) *xml.Decoder {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = xml.HTMLEntity
	return decoder
}

// errWrongRoot is returned by scanSections for a root other than <Facturi>.
var errWrongRoot = errors.New("root element must be <Facturi>")

// scanSections walks the token stream and returns, for each <Factura>, the
// names of its child elements in document order.
func scanSections(data []byte) ([][]string, error) {
	decoder := newDecoder(data)

	var (
		sections [][]string
		depth    int
		seenRoot bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if seenRoot || t.Name.Local != "Facturi" {
					return nil, fmt.Errorf("%w, got <%s>", errWrongRoot, t.Name.Local)
				}
				seenRoot = true
			case 2:
				if t.Name.Local != "Factura" {
					return nil, fmt.Errorf("unexpected <%s> under <Facturi>", t.Name.Local)
				}
				sections = append(sections, nil)
			case 3:
				last := len(sections) - 1
				sections[last] = append(sections[last], t.Name.Local)
			}
		case xml.EndElement:
			depth--
		}
	}

	if !seenRoot {
		return nil, fmt.Errorf("malformed XML: document has no root element")
	}

	return sections, nil
}

// checkSectionOrder compares the children of one <Factura> with Sections.
func checkSectionOrder(result *ValidationResult, path string, children []string) {
	if strings.Join(children, ",") == strings.Join(Sections, ",") {
		return
	}
	result.add(SeverityError, path, strings.Join(children, ","),
		fmt.Sprintf("sections must be %s", strings.Join(Sections, ", ")))
}

// checkFields applies fieldRules to one <Factura> node.
func checkFields(result *ValidationResult, path string, factura *xmlpath.Node) {
	for _, rule := range fieldRules {
		fieldPath := path + "/" + rule.path

		value, ok := rule.compiled.String(factura)
		if !ok {
			result.add(SeverityError, fieldPath, "", "element is missing")
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" {
			result.add(rule.severity, fieldPath, "", "element is empty")
			continue
		}

		if msg := checkFormat(value, rule.kind); msg != "" {
			result.add(SeverityError, fieldPath, value, msg)
		}
	}
}

// checkFormat returns a message if value does not match kind.
func checkFormat(value string, kind fieldKind) string {
	switch kind {
	case kindDate:
		if _, err := time.Parse("02.01.2006", value); err != nil {
			return "date must be DD.MM.YYYY"
		}
	case kindAmount:
		if _, err := decimal.NewFromString(value); err != nil {
			return "not a valid amount"
		}
		dot := strings.IndexByte(value, '.')
		if dot < 0 || len(value)-dot-1 != 2 {
			return "amount must have two decimals"
		}
	}
	return ""
}

// =============================================================================
// ERROR OUTPUT
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(problems []*ValidationError) string {
	if len(problems) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d problem(s):\n\n", len(problems)))

	for i, err := range problems {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation errors to a log file.
func WriteErrorLog(problems []*ValidationError, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	writer.WriteString(FormatErrors(problems))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush error log: %w", err)
	}
	return nil
}
