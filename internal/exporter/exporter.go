// =============================================================================
// Invoice XML Exporter - Export Pipeline
// =============================================================================
//
// This module runs one export end to end. The web form and the export command
// both go through it.
//
// PIPELINE:
//   1. Fetch countries and the states of the configured countries
//   2. Build the lookup maps
//   3. Fetch the invoices of the organization in the date range
//   4. Generate the XML documents
//
// =============================================================================

package exporter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/converter"
	"github.com/danutsss/invoice-xml-export/internal/lookup"
	"github.com/danutsss/invoice-xml-export/internal/types"
	"github.com/danutsss/invoice-xml-export/internal/ucrm"
)

// Backend is the part of the billing API an export needs.
// *ucrm.API implements it.
type Backend interface {
	ucrm.ClientSource
	Countries(ctx context.Context) ([]types.NamedEntity, error)
	StatesOf(ctx context.Context, countryIDs []int) ([]types.NamedEntity, error)
	Invoices(ctx context.Context, q ucrm.InvoiceQuery) ([]types.Invoice, error)
	Organizations(ctx context.Context) ([]types.NamedEntity, error)
}

// Request selects the invoices of one export.
type Request struct {
	OrganizationID string

	// Since and Until bound the invoice creation date. Any layout accepted
	// by NormalizeDate works; empty means unbounded.
	Since string
	Until string

	IncludeVAT bool
}

// Exporter runs exports against a Backend.
type Exporter struct {
	backend Backend
	cfg     *config.MainConfig
	log     logrus.FieldLogger
}

// New creates an Exporter.
func New(backend Backend, cfg *config.MainConfig, log logrus.FieldLogger) *Exporter {
	return &Exporter{backend: backend, cfg: cfg, log: log}
}

// Run performs one export. Every failure is reported through the result.
func (e *Exporter) Run(ctx context.Context, req Request) converter.Result {
	query, err := req.Query()
	if err != nil {
		return converter.Result{Error: err}
	}

	log := e.log.WithFields(logrus.Fields{
		"organization": query.OrganizationID,
		"since":        query.CreatedDateFrom,
		"until":        query.CreatedDateTo,
	})

	maps, err := e.loadMaps(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load countries and states")
		return converter.Result{Error: err}
	}
	countries, states := maps.Len()
	log.WithFields(logrus.Fields{"countries": countries, "states": states}).Debug("Loaded lookup maps")

	invoices, err := e.backend.Invoices(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to fetch invoices")
		return converter.Result{Error: fmt.Errorf("failed to fetch invoices: %w", err)}
	}
	log.WithField("invoices", len(invoices)).Debug("Fetched invoices")

	conv := converter.New(maps, e.backend, e.cfg.Supplier,
		converter.WithVATRate(e.cfg.Export.VAT()),
		converter.WithClientCache(e.cfg.Export.CacheClients),
		converter.WithLogger(log),
	)

	return conv.Generate(ctx, invoices, e.cfg.Export.ChunkSize, req.IncludeVAT)
}

// Organizations lists the organizations offered by the export form.
func (e *Exporter) Organizations(ctx context.Context) ([]types.NamedEntity, error) {
	orgs, err := e.backend.Organizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizations: %w", err)
	}
	return orgs, nil
}

func (e *Exporter) loadMaps(ctx context.Context) (*lookup.Maps, error) {
	countries, err := e.backend.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}

	states, err := e.backend.StatesOf(ctx, e.cfg.Export.StateCountryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch states: %w", err)
	}

	return lookup.New(countries, states), nil
}

// =============================================================================
// REQUEST NORMALIZATION
// =============================================================================

// ErrInvalidRequestDate is returned for a since/until value that is not a date.
var ErrInvalidRequestDate = errors.New("invalid date")

// requestDateLayouts are the layouts accepted for since and until.
var requestDateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// NormalizeDate converts a date to YYYY-MM-DD. An empty value stays empty.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	for _, layout := range requestDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidRequestDate, value)
}

// Query converts the request to an API query.
func (r Request) Query() (ucrm.InvoiceQuery, error) {
	since, err := NormalizeDate(r.Since)
	if err != nil {
		return ucrm.InvoiceQuery{}, fmt.Errorf("since: %w", err)
	}

	until, err := NormalizeDate(r.Until)
	if err != nil {
		return ucrm.InvoiceQuery{}, fmt.Errorf("until: %w", err)
	}

	return ucrm.InvoiceQuery{
		OrganizationID:  strings.TrimSpace(r.OrganizationID),
		CreatedDateFrom: since,
		CreatedDateTo:   until,
	}, nil
}
