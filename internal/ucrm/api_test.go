package ucrm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	return New(server.URL+"/api/v1.0/", "secret-key", WithLogger(logger))
}

func TestGetSendsAuthHeader(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(AuthHeader); got != "secret-key" {
			t.Errorf("%s = %q", AuthHeader, got)
		}
		if r.URL.Path != "/api/v1.0/countries" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[{"id":184,"name":"Romania"},{"id":54,"name":"Canada"}]`))
	})

	countries, err := api.Countries(context.Background())
	if err != nil {
		t.Fatalf("Countries() error = %v", err)
	}
	if len(countries) != 2 || countries[0].Name != "Romania" {
		t.Errorf("Countries() = %+v", countries)
	}
}

func TestStatesOfMergesInOrder(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("countryId") {
		case "54":
			w.Write([]byte(`[{"id":1,"name":"Ontario"}]`))
		case "249":
			w.Write([]byte(`[{"id":2,"name":"Texas"},{"id":3,"name":"Ohio"}]`))
		default:
			t.Errorf("unexpected countryId %q", r.URL.Query().Get("countryId"))
		}
	})

	states, err := api.StatesOf(context.Background(), []int{54, 249})
	if err != nil {
		t.Fatalf("StatesOf() error = %v", err)
	}
	want := []string{"Ontario", "Texas", "Ohio"}
	if len(states) != len(want) {
		t.Fatalf("StatesOf() returned %d states, want %d", len(states), len(want))
	}
	for i, name := range want {
		if states[i].Name != name {
			t.Errorf("states[%d] = %q, want %q", i, states[i].Name, name)
		}
	}
}

func TestInvoicesQuery(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("organizationId") != "1" || q.Get("createdDateFrom") != "2023-01-01" || q.Get("proforma") != "0" {
			t.Errorf("query = %v", q)
		}
		if _, ok := q["createdDateTo"]; ok {
			t.Error("empty createdDateTo should be omitted")
		}
		w.Write([]byte(`[{"id":7,"number":"2023-7","clientId":3,"total":119.5,"clientCountryId":null}]`))
	})

	invoices, err := api.Invoices(context.Background(), InvoiceQuery{OrganizationID: "1", CreatedDateFrom: "2023-01-01"})
	if err != nil {
		t.Fatalf("Invoices() error = %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("Invoices() returned %d invoices", len(invoices))
	}
	inv := invoices[0]
	if inv.Number != "2023-7" || inv.ClientID != 3 || inv.Total.StringFixed(2) != "119.50" {
		t.Errorf("invoice = %+v", inv)
	}
	if inv.ClientCountryID != nil {
		t.Errorf("ClientCountryID = %v, want nil", *inv.ClientCountryID)
	}
}

func TestClientDecodesAttributes(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1.0/clients/12" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":12,"clientType":1,"companyTaxId":null,"attributes":[{"key":"cnp","value":"1900101123456"}]}`))
	})

	client, err := api.Client(context.Background(), 12)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if client.IsCompany() {
		t.Error("client should be an individual")
	}
	if cnp, ok := client.Attribute("cnp"); !ok || cnp != "1900101123456" {
		t.Errorf("Attribute(cnp) = %q, %v", cnp, ok)
	}
}

func TestAPIError(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not found"}`, http.StatusNotFound)
	})

	_, err := api.Client(context.Background(), 99)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("error = %v, want ErrRequestFailed", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T is not an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Path != "clients/99" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestMalformedJSON(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	if _, err := api.Organizations(context.Background()); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("error = %v, want ErrRequestFailed", err)
	}
}
