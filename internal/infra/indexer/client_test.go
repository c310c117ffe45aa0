package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_BuildersAndFeeInfo(t *testing.T) {
	builder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fee-info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"nonRegistrationFee":[{"token_index":0,"amount":"100"}],
			"registrationFee":[{"token_index":0,"amount":"200"},{"token_index":1,"amount":"5"}]
		}`))
	}))
	defer builder.Close()

	idx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/indexer/builders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"url":"` + builder.URL + `/"}]`))
	}))
	defer idx.Close()

	c := NewClient(idx.URL+"/v1/indexer", 5*time.Second)
	builders, err := c.Builders(context.Background())
	if err != nil {
		t.Fatalf("Builders: %v", err)
	}
	if len(builders) != 1 {
		t.Fatalf("expected 1 builder, got %d", len(builders))
	}

	info, err := c.FeeInfo(context.Background(), builders[0].URL)
	if err != nil {
		t.Fatalf("FeeInfo: %v", err)
	}
	if len(info.RegistrationFee) != 2 || info.NonRegistrationFee[0].Amount != "100" {
		t.Errorf("unexpected fee info %+v", info)
	}
}
