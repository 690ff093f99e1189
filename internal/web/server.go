// =============================================================================
// Invoice XML Exporter - Web Form
// =============================================================================
//
// This module serves the export form. A single GET route renders the form
// and, when the query carries organization, since and until, runs an export:
//
//   GET /?organization=1&since=2023-05-01&until=2023-05-31&tva=1
//
// TVA SELECTION:
//   tva=1  export with VAT
//   tva=0  export without VAT
//   other  no export; the form is rendered without links
//
// =============================================================================

package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/download"
	"github.com/danutsss/invoice-xml-export/internal/exporter"
	"github.com/danutsss/invoice-xml-export/internal/types"
)

// PageTitle is the title of the export form.
const PageTitle = "Export facturi in XML"

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

// =============================================================================
// FORM
// =============================================================================

// ExportForm is the query of the export form.
type ExportForm struct {
	Organization string `form:"organization"`
	Since        string `form:"since"`
	Until        string `form:"until"`
	TVA          string `form:"tva"`

	// Submitted is true when organization, since and until are all present,
	// even if empty.
	Submitted bool `form:"-"`
}

// DecodeForm decodes the export form from a parsed query.
func DecodeForm(decoder *form.Decoder, values url.Values) (ExportForm, error) {
	var f ExportForm
	if err := decoder.Decode(&f, values); err != nil {
		return ExportForm{}, err
	}

	f.Submitted = true
	for _, key := range []string{"organization", "since", "until"} {
		if _, ok := values[key]; !ok {
			f.Submitted = false
		}
	}
	return f, nil
}

// IncludeVAT maps tva to the VAT switch. ok is false for a missing or
// unknown value.
func (f ExportForm) IncludeVAT() (includeVAT, ok bool) {
	switch f.TVA {
	case "1":
		return true, true
	case "0":
		return false, true
	}
	return false, false
}

// Request converts the form to an export request.
func (f ExportForm) Request(includeVAT bool) exporter.Request {
	return exporter.Request{
		OrganizationID: f.Organization,
		Since:          f.Since,
		Until:          f.Until,
		IncludeVAT:     includeVAT,
	}
}

// =============================================================================
// SERVER
// =============================================================================

// pageData is the template input.
type pageData struct {
	Title         string
	Organizations []types.NamedEntity
	PublicURL     string
	DownloadLinks []template.HTML
	Error         string

	// Form echoes the submitted values back into the form.
	Form ExportForm
}

// Server serves the export form.
type Server struct {
	router       *mux.Router
	exporter     *exporter.Exporter
	decoder      *form.Decoder
	supplierCode string
	publicURL    string
	now          func() time.Time
	log          logrus.FieldLogger
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now for download file names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates the form server.
func NewServer(exp *exporter.Exporter, cfg *config.MainConfig, log logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		exporter:     exp,
		decoder:      form.NewDecoder(),
		supplierCode: cfg.Supplier.FileCode(),
		publicURL:    cfg.Server.PublicURL,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleIndex renders the form and runs an export when one is requested.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}

	f, err := DecodeForm(s.decoder, r.Form)
	if err != nil {
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}

	data := pageData{
		Title:     PageTitle,
		PublicURL: s.publicURL,
		Form:      f,
	}

	if f.Submitted {
		if includeVAT, ok := f.IncludeVAT(); ok {
			links, err := s.export(r.Context(), f.Request(includeVAT))
			if err != nil {
				data.Error = "Exportul a esuat: " + err.Error()
			}
			data.DownloadLinks = links
		}
	}

	orgs, err := s.exporter.Organizations(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to load organizations")
		http.Error(w, "failed to load organizations", http.StatusBadGateway)
		return
	}
	data.Organizations = orgs

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, data); err != nil {
		s.log.WithError(err).Error("Failed to render form")
	}
}

// export runs one export and returns its download anchors.
func (s *Server) export(ctx context.Context, req exporter.Request) ([]template.HTML, error) {
	result := s.exporter.Run(ctx, req)
	if !result.Success {
		return nil, result.Error
	}

	encoder := download.NewEncoder(s.supplierCode, download.WithClock(s.now))
	anchors := encoder.MakeLinks(result.Documents)

	// The anchors only contain percent-encoded content and hex file names.
	links := make([]template.HTML, len(anchors))
	for i, anchor := range anchors {
		links[i] = template.HTML(anchor)
	}
	return links, nil
}
