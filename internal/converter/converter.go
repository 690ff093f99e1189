// =============================================================================
// Invoice XML Exporter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic: it turns a list of invoices
// into one XML document per chunk.
//
// CONVERSION PIPELINE:
//   1. Split the invoices into consecutive chunks of at most chunkSize
//   2. For each invoice of a chunk:
//      a. Fetch the client record
//      b. Resolve the client identity (individual or company)
//      c. Format the address, dates and amounts
//      d. Build the <Factura> element
//   3. Serialize each chunk's <Facturi> document
//
// FAILURE POLICY:
//   Any failure (bad date, API error, cancelled context) fails the whole
//   export. No partial document list is returned.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/lookup"
	"github.com/danutsss/invoice-xml-export/internal/types"
	"github.com/danutsss/invoice-xml-export/internal/ucrm"
	"github.com/danutsss/invoice-xml-export/internal/xmlwriter"
)

// RootElement is the document root holding the <Factura> elements.
const RootElement = "Facturi"

// ErrInvalidChunkSize is returned when chunkSize is not positive.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one export.
type Result struct {
	// RunID identifies the export in logs.
	RunID string

	// Documents holds one serialized XML document per chunk, in chunk order.
	// It is nil when the export failed.
	Documents []string

	// Rows describes every exported invoice, in input order.
	// It is nil when the export failed.
	Rows []RegisterRow

	// Success indicates whether the export was successful.
	Success bool

	// Error contains the cause if the export failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the export.
type ProcessingStats struct {
	// InvoicesExported is the number of <Factura> elements written.
	InvoicesExported int

	// DocumentsCreated is the number of XML documents.
	DocumentsCreated int

	// ProcessingTime is the time taken by the export.
	ProcessingTime time.Duration
}

// RegisterRow summarises one exported invoice.
type RegisterRow struct {
	Number      string
	CreatedDate string
	DueDate     string
	ClientName  string
	TaxID       string
	Total       decimal.Decimal

	// VAT is the value written to TotalTVA.
	VAT string

	// Document is the index into Result.Documents.
	Document int
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter maps invoices to XML documents. The lookup maps and the supplier
// identity are fixed at construction; a Converter can run many exports.
type Converter struct {
	maps         *lookup.Maps
	clients      ucrm.ClientSource
	supplier     config.Supplier
	vatRate      decimal.Decimal
	cacheClients bool
	log          logrus.FieldLogger
}

// Option configures a Converter.
type Option func(*Converter)

// WithVATRate sets the VAT percentage used when VAT is included.
func WithVATRate(rate decimal.Decimal) Option {
	return func(c *Converter) { c.vatRate = rate }
}

// WithClientCache makes each export fetch a given client at most once.
func WithClientCache(enabled bool) Option {
	return func(c *Converter) { c.cacheClients = enabled }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Converter) { c.log = l }
}

// New creates a Converter.
//
// PARAMETERS:
//   - maps: Country and state names for address formatting.
//   - clients: Source of client records, queried once per invoice.
//   - supplier: The supplier identity written into every header.
func New(maps *lookup.Maps, clients ucrm.ClientSource, supplier config.Supplier, opts ...Option) *Converter {
	c := &Converter{
		maps:     maps,
		clients:  clients,
		supplier: supplier,
		vatRate:  decimal.NewFromInt(19),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Generate converts invoices into XML documents of at most chunkSize
// invoices each. With includeVAT false every VAT field is the literal "0".
//
// RETURNS:
//   - A Result. On failure Success is false, Error holds the cause and no
//     documents are returned.
func (c *Converter) Generate(ctx context.Context, invoices []types.Invoice, chunkSize int, includeVAT bool) Result {
	startTime := time.Now()
	result := Result{RunID: uuid.New().String()}
	log := c.log.WithField("run_id", result.RunID)

	if chunkSize <= 0 {
		result.Error = fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
		return result
	}

	log.WithFields(logrus.Fields{
		"invoices":    len(invoices),
		"chunk_size":  chunkSize,
		"include_vat": includeVAT,
	}).Info("Starting XML export")

	clients := c.clients
	if c.cacheClients {
		clients = ucrm.NewCachedClientSource(clients)
	}

	documents := make([]string, 0, (len(invoices)+chunkSize-1)/chunkSize)
	rows := make([]RegisterRow, 0, len(invoices))

	for index, chunk := range Chunk(invoices, chunkSize) {
		root := xmlwriter.NewElement(RootElement)

		for i := range chunk {
			if err := ctx.Err(); err != nil {
				result.Error = fmt.Errorf("export cancelled: %w", err)
				return c.fail(log, result)
			}

			factura, row, err := c.convertInvoice(ctx, clients, &chunk[i], includeVAT)
			if err != nil {
				result.Error = err
				return c.fail(log, result)
			}

			row.Document = index
			root.Append(factura)
			rows = append(rows, row)
		}

		data, err := xmlwriter.Marshal(root)
		if err != nil {
			result.Error = fmt.Errorf("failed to serialize document %d: %w", index+1, err)
			return c.fail(log, result)
		}

		documents = append(documents, string(data))
		log.WithFields(logrus.Fields{"document": index + 1, "invoices": len(chunk)}).Debug("Generated XML document")
	}

	result.Documents = documents
	result.Rows = rows
	result.Success = true
	result.Stats = ProcessingStats{
		InvoicesExported: len(rows),
		DocumentsCreated: len(documents),
		ProcessingTime:   time.Since(startTime),
	}

	log.WithFields(logrus.Fields{
		"documents": result.Stats.DocumentsCreated,
		"duration":  result.Stats.ProcessingTime,
	}).Info("XML export complete")

	return result
}

// fail logs a failed export and returns it.
func (c *Converter) fail(log logrus.FieldLogger, result Result) Result {
	log.WithError(result.Error).Error("XML export failed")
	return result
}

// convertInvoice builds the <Factura> element of one invoice.
func (c *Converter) convertInvoice(ctx context.Context, clients ucrm.ClientSource, invoice *types.Invoice, includeVAT bool) (*xmlwriter.Element, RegisterRow, error) {
	client, err := clients.Client(ctx, invoice.ClientID)
	if err != nil {
		return nil, RegisterRow{}, fmt.Errorf("invoice %s: failed to fetch client %d: %w", invoice.Number, invoice.ClientID, err)
	}

	createdDate, err := FormatDate(invoice.CreatedDate)
	if err != nil {
		return nil, RegisterRow{}, fmt.Errorf("invoice %s: createdDate: %w", invoice.Number, err)
	}

	dueDate, err := FormatDate(invoice.DueDate)
	if err != nil {
		return nil, RegisterRow{}, fmt.Errorf("invoice %s: dueDate: %w", invoice.Number, err)
	}

	fields := invoiceFields{
		Identity:    ResolveIdentity(invoice, client),
		Address:     FormatAddress(invoice, c.maps),
		Number:      invoice.Number,
		CreatedDate: createdDate,
		DueDate:     dueDate,
		Total:       invoice.Total,
	}
	vat := computeVAT(invoice.Total, c.vatRate, includeVAT)

	row := RegisterRow{
		Number:      fields.Number,
		CreatedDate: createdDate,
		DueDate:     dueDate,
		ClientName:  fields.Identity.Name(),
		TaxID:       fields.Identity.TaxID(),
		Total:       invoice.Total,
		VAT:         vat.Amount,
	}

	return buildFactura(c.supplier, fields, vat), row, nil
}

// =============================================================================
// CHUNKING
// =============================================================================

// Chunk splits items into consecutive slices of at most size elements.
// The last chunk may be shorter. size must be positive.
func Chunk[T any](items []T, size int) [][]T {
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
