package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/exporter"
	"github.com/danutsss/invoice-xml-export/internal/ucrm"
)

// billingAPI is a fake billing API recording the invoice queries it serves.
type billingAPI struct {
	mu           sync.Mutex
	invoiceCalls []url.Values
	failInvoices bool
}

func (b *billingAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(ucrm.AuthHeader) != "secret" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var body any
	switch r.URL.Path {
	case "/countries":
		body = []map[string]any{{"id": 184, "name": "Romania"}}
	case "/countries/states":
		body = []map[string]any{}
	case "/organizations":
		body = []map[string]any{{"id": 1, "name": "Zero Sapte Services"}}
	case "/clients/7":
		body = map[string]any{
			"id":         7,
			"clientType": 1,
			"attributes": []map[string]any{{"key": "cnp", "value": "1900101123456"}},
		}
	case "/invoices":
		b.mu.Lock()
		b.invoiceCalls = append(b.invoiceCalls, r.URL.Query())
		fail := b.failInvoices
		b.mu.Unlock()

		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		invoice := func(number string) map[string]any {
			return map[string]any{
				"number":          number,
				"clientId":        7,
				"clientFirstName": "Ion",
				"clientLastName":  "Popescu",
				"clientStreet1":   "Str. Mare 1",
				"clientCity":      "Constanta",
				"clientZipCode":   "900001",
				"clientCountryId": 184,
				"clientStateId":   nil,
				"createdDate":     "2023-05-01T00:00:00+0300",
				"dueDate":         "2023-05-15T00:00:00+0300",
				"total":           119,
			}
		}
		body = []map[string]any{invoice("1"), invoice("2")}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func newTestServer(t *testing.T) (*Server, *billingAPI) {
	t.Helper()

	backend := &billingAPI{}
	api := httptest.NewServer(backend)
	t.Cleanup(api.Close)

	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Server.PublicURL = "https://billing.example.ro"

	client := ucrm.New(api.URL, "secret", ucrm.WithLogger(logger))
	exp := exporter.New(client, cfg, logger)

	clock := func() time.Time { return time.Date(2023, time.May, 9, 12, 0, 0, 0, time.UTC) }
	return NewServer(exp, cfg, logger, WithClock(clock)), backend
}

func get(t *testing.T, s *Server, query string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+query, nil))
	return rec
}

func TestFormWithoutQuery(t *testing.T) {
	s, backend := newTestServer(t)

	rec := get(t, s, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"<title>Export facturi in XML</title>", "Zero Sapte Services", "https://billing.example.ro"} {
		if !strings.Contains(body, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
	if strings.Contains(body, "Download ") {
		t.Error("page contains download links")
	}
	if len(backend.invoiceCalls) != 0 {
		t.Error("invoices fetched without a submitted form")
	}
}

func TestFormExport(t *testing.T) {
	s, backend := newTestServer(t)

	rec := get(t, s, "?organization=1&since=01.05.2023&until=2023-05-31&tva=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if n := strings.Count(body, "class='btn btn-primary btn-sm pl-4 pr-4 mb-2'>Download F_45858226_"); n != 1 {
		t.Errorf("got %d download links, want 1", n)
	}
	if !strings.Contains(body, "_09-05-2023.xml</a>") {
		t.Error("file name does not carry the export date")
	}
	if !strings.Contains(body, "%3CProcTVA%3E19%3C%2FProcTVA%3E") {
		t.Error("document was not generated with VAT")
	}

	if len(backend.invoiceCalls) != 1 {
		t.Fatalf("invoices fetched %d times", len(backend.invoiceCalls))
	}
	q := backend.invoiceCalls[0]
	if q.Get("organizationId") != "1" || q.Get("createdDateFrom") != "2023-05-01" ||
		q.Get("createdDateTo") != "2023-05-31" || q.Get("proforma") != "0" {
		t.Errorf("invoice query = %v", q)
	}
}

func TestFormWithoutVAT(t *testing.T) {
	s, _ := newTestServer(t)

	body := get(t, s, "?organization=1&since=&until=&tva=0").Body.String()
	if !strings.Contains(body, "%3CProcTVA%3E0%3C%2FProcTVA%3E") {
		t.Error("document was not generated without VAT")
	}
}

func TestFormSkipsExport(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing tva", "?organization=1&since=2023-05-01&until=2023-05-31"},
		{"unknown tva", "?organization=1&since=2023-05-01&until=2023-05-31&tva=2"},
		{"missing until", "?organization=1&since=2023-05-01&tva=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend := newTestServer(t)

			body := get(t, s, tt.query).Body.String()
			if strings.Contains(body, "Download ") {
				t.Error("page contains download links")
			}
			if len(backend.invoiceCalls) != 0 {
				t.Error("invoices fetched")
			}
		})
	}
}

func TestFormExportFailure(t *testing.T) {
	s, backend := newTestServer(t)
	backend.failInvoices = true

	rec := get(t, s, "?organization=1&since=2023-05-01&until=2023-05-31&tva=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Exportul a esuat") {
		t.Error("page does not show the error")
	}
	if strings.Contains(body, "Download ") {
		t.Error("failed export rendered links")
	}
}

func TestFormRejectsPost(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDecodeForm(t *testing.T) {
	tests := []struct {
		query         string
		wantSubmitted bool
		wantVAT       bool
		wantVATOK     bool
	}{
		{"", false, false, false},
		{"organization=1&since=&until=&tva=1", true, true, true},
		{"organization=1&since=2023-05-01&until=2023-05-31&tva=0", true, false, true},
		{"organization=1&since=2023-05-01&tva=0", false, false, true},
		{"organization=1&since=&until=&tva=", true, false, false},
		{"organization=1&since=&until=&tva=yes", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}

			f, err := DecodeForm(form.NewDecoder(), values)
			if err != nil {
				t.Fatalf("DecodeForm() error = %v", err)
			}
			if f.Submitted != tt.wantSubmitted {
				t.Errorf("Submitted = %v, want %v", f.Submitted, tt.wantSubmitted)
			}
			vat, ok := f.IncludeVAT()
			if vat != tt.wantVAT || ok != tt.wantVATOK {
				t.Errorf("IncludeVAT() = %v, %v", vat, ok)
			}
		})
	}
}
