// =============================================================================
// Invoice XML Exporter - Billing API Client
// =============================================================================
//
// This module talks to the billing platform's REST API. Only GET requests are
// needed by the export:
//
//   GET countries                          -> []NamedEntity
//   GET countries/states?countryId=X       -> []NamedEntity
//   GET clients/{id}                       -> Client
//   GET invoices?organizationId=...        -> []Invoice
//   GET organizations                      -> []NamedEntity
//
// AUTHENTICATION:
//   Every request carries the application key in the X-Auth-App-Key header.
//
// =============================================================================

package ucrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danutsss/invoice-xml-export/internal/types"
)

// AuthHeader is the header carrying the application key.
const AuthHeader = "X-Auth-App-Key"

// ErrRequestFailed is wrapped by every API failure.
var ErrRequestFailed = errors.New("ucrm: request failed")

// APIError describes a non-2xx response.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ucrm: GET %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrRequestFailed) match API errors.
func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

// =============================================================================
// API CLIENT
// =============================================================================

// API is a billing API client. It is safe for concurrent use.
type API struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures an API client.
type Option func(*API)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.httpClient = c }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(a *API) { a.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *API) { a.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL, appKey string, opts ...Option) *API {
	a := &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appKey:     appKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Get issues GET {baseURL}/{path}?{query} and decodes the JSON body into out.
func (a *API) Get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := a.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request for %s: %v", ErrRequestFailed, path, err)
	}
	req.Header.Set(AuthHeader, a.appKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrRequestFailed, path, err)
	}
	defer resp.Body.Close()

	a.log.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("billing API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrRequestFailed, path, err)
	}

	return nil
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Countries returns every country known to the platform.
func (a *API) Countries(ctx context.Context) ([]types.NamedEntity, error) {
	var countries []types.NamedEntity
	if err := a.Get(ctx, "countries", nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// States returns the states of one country.
func (a *API) States(ctx context.Context, countryID int) ([]types.NamedEntity, error) {
	var states []types.NamedEntity
	query := url.Values{"countryId": {strconv.Itoa(countryID)}}
	if err := a.Get(ctx, "countries/states", query, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// StatesOf returns the merged states of several countries, in the given order.
func (a *API) StatesOf(ctx context.Context, countryIDs []int) ([]types.NamedEntity, error) {
	var all []types.NamedEntity
	for _, id := range countryIDs {
		states, err := a.States(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, states...)
	}
	return all, nil
}

// Client returns one client record.
func (a *API) Client(ctx context.Context, id int) (*types.Client, error) {
	var client types.Client
	if err := a.Get(ctx, "clients/"+strconv.Itoa(id), nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// Organizations returns the organizations offered in the export form.
func (a *API) Organizations(ctx context.Context) ([]types.NamedEntity, error) {
	var organizations []types.NamedEntity
	if err := a.Get(ctx, "organizations", nil, &organizations); err != nil {
		return nil, err
	}
	return organizations, nil
}

// InvoiceQuery selects the invoices of an export.
type InvoiceQuery struct {
	OrganizationID string

	// CreatedDateFrom and CreatedDateTo are YYYY-MM-DD; empty means unbounded.
	CreatedDateFrom string
	CreatedDateTo   string
}

// Values encodes the query. Proforma invoices are always excluded.
func (q InvoiceQuery) Values() url.Values {
	values := url.Values{"proforma": {"0"}}
	if q.OrganizationID != "" {
		values.Set("organizationId", q.OrganizationID)
	}
	if q.CreatedDateFrom != "" {
		values.Set("createdDateFrom", q.CreatedDateFrom)
	}
	if q.CreatedDateTo != "" {
		values.Set("createdDateTo", q.CreatedDateTo)
	}
	return values
}

// Invoices returns the invoices matching q.
func (a *API) Invoices(ctx context.Context, q InvoiceQuery) ([]types.Invoice, error) {
	var invoices []types.Invoice
	if err := a.Get(ctx, "invoices", q.Values(), &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}
