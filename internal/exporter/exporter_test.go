package exporter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danutsss/invoice-xml-export/internal/config"
	"github.com/danutsss/invoice-xml-export/internal/types"
	"github.com/danutsss/invoice-xml-export/internal/ucrm"
)

type fakeBackend struct {
	invoices   []types.Invoice
	clients    map[int]*types.Client
	statesOf   []int
	query      ucrm.InvoiceQuery
	invoiceErr error
	statesErr  error
}

func (f *fakeBackend) Client(ctx context.Context, id int) (*types.Client, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, &ucrm.APIError{StatusCode: 404, Path: "clients"}
}

func (f *fakeBackend) Countries(ctx context.Context) ([]types.NamedEntity, error) {
	return []types.NamedEntity{{ID: 184, Name: "Romania"}, {ID: 249, Name: "United States"}}, nil
}

func (f *fakeBackend) StatesOf(ctx context.Context, ids []int) ([]types.NamedEntity, error) {
	f.statesOf = ids
	if f.statesErr != nil {
		return nil, f.statesErr
	}
	return []types.NamedEntity{{ID: 5, Name: "California"}}, nil
}

func (f *fakeBackend) Invoices(ctx context.Context, q ucrm.InvoiceQuery) ([]types.Invoice, error) {
	f.query = q
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	return f.invoices, nil
}

func (f *fakeBackend) Organizations(ctx context.Context) ([]types.NamedEntity, error) {
	return []types.NamedEntity{{ID: 1, Name: "Zero Sapte"}}, nil
}

func intPtr(v int) *int { return &v }

func sampleBackend() *fakeBackend {
	inv := func(number string) types.Invoice {
		return types.Invoice{
			Number:          number,
			ClientID:        1,
			ClientFirstName: "John",
			ClientLastName:  "Doe",
			ClientStreet1:   "1 Main St",
			ClientCity:      "Fresno",
			ClientZipCode:   "93650",
			ClientCountryID: intPtr(249),
			ClientStateID:   intPtr(5),
			CreatedDate:     "2023-05-01T00:00:00+0300",
			DueDate:         "2023-05-15T00:00:00+0300",
			Total:           decimal.NewFromInt(119),
		}
	}

	return &fakeBackend{
		invoices: []types.Invoice{inv("1"), inv("2"), inv("3")},
		clients:  map[int]*types.Client{1: {ID: 1, ClientType: types.ClientTypeIndividual}},
	}
}

func newTestExporter(backend Backend, chunkSize int) *Exporter {
	cfg := config.Default()
	cfg.Export.ChunkSize = chunkSize
	logger, _ := test.NewNullLogger()
	return New(backend, cfg, logger)
}

func TestRun(t *testing.T) {
	backend := sampleBackend()
	exp := newTestExporter(backend, 2)

	result := exp.Run(context.Background(), Request{
		OrganizationID: "1",
		Since:          "01.05.2023",
		Until:          "2023-05-31",
		IncludeVAT:     true,
	})
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}

	if len(result.Documents) != 2 {
		t.Errorf("got %d documents, want 2", len(result.Documents))
	}
	want := ucrm.InvoiceQuery{OrganizationID: "1", CreatedDateFrom: "2023-05-01", CreatedDateTo: "2023-05-31"}
	if backend.query != want {
		t.Errorf("query = %+v, want %+v", backend.query, want)
	}
	if !reflect.DeepEqual(backend.statesOf, []int{54, 249}) {
		t.Errorf("states fetched for %v", backend.statesOf)
	}
	if !strings.Contains(result.Documents[0], "<ClientAdresa>1 Main St, Fresno, 93650, California, United States</ClientAdresa>") {
		t.Error("address does not use the merged state list")
	}
}

func TestRunFailures(t *testing.T) {
	apiErr := &ucrm.APIError{StatusCode: 500, Path: "invoices"}

	tests := []struct {
		name    string
		mutate  func(*fakeBackend)
		req     Request
		wantErr error
	}{
		{"invoices", func(b *fakeBackend) { b.invoiceErr = apiErr }, Request{}, ucrm.ErrRequestFailed},
		{"states", func(b *fakeBackend) { b.statesErr = apiErr }, Request{}, ucrm.ErrRequestFailed},
		{"bad since", func(*fakeBackend) {}, Request{Since: "soon"}, ErrInvalidRequestDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := sampleBackend()
			tt.mutate(backend)

			result := newTestExporter(backend, 100).Run(context.Background(), tt.req)
			if result.Success || !errors.Is(result.Error, tt.wantErr) {
				t.Errorf("Run() = %v, want %v", result.Error, tt.wantErr)
			}
			if result.Documents != nil {
				t.Error("failed export returned documents")
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2023-05-01", "2023-05-01", false},
		{"01.05.2023", "2023-05-01", false},
		{"2023-05-01T10:30", "2023-05-01", false},
		{"2023-05-01T10:30:00+03:00", "2023-05-01", false},
		{"2023/05/01", "2023-05-01", false},
		{"May 1st", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeDate(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOrganizations(t *testing.T) {
	orgs, err := newTestExporter(sampleBackend(), 100).Organizations(context.Background())
	if err != nil || len(orgs) != 1 {
		t.Errorf("Organizations() = %v, %v", orgs, err)
	}
}
