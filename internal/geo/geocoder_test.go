package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "12 Riverside Dr, Nairobi" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"-1.2921","lon":"36.8219","address":{"road":"Riverside Drive","city":"Nairobi","state":"Nairobi County","postcode":"00100","country_code":"ke"}}]`))
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL, time.Second)
	res, err := g.Resolve(context.Background(), "12 Riverside Dr, Nairobi")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Coordinates.Latitude != -1.2921 || res.Coordinates.Longitude != 36.8219 {
		t.Fatalf("coordinates = %+v", res.Coordinates)
	}
	if res.Address.City != "Nairobi" || res.Address.Country != "KE" {
		t.Fatalf("address = %+v", res.Address)
	}
}

func TestResolveFallsBackToTown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"0.0","lon":"0.0","address":{"town":"Naivasha","country_code":"ke"}}]`))
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL, time.Second)
	res, err := g.Resolve(context.Background(), "Naivasha")
	if err != nil {
		t.Fatal(err)
	}
	if res.Address.City != "Naivasha" {
		t.Fatalf("city = %q, want town fallback", res.Address.City)
	}
}

func TestResolveNoHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL, time.Second)
	_, err := g.Resolve(context.Background(), "nowhere at all")
	if !apperr.Is(err, apperr.KindExternal) {
		t.Fatalf("unresolvable address should be external, got %v", err)
	}
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGeocoder(srv.URL, time.Second)
	_, err := g.Resolve(context.Background(), "12 Riverside Dr")
	if !apperr.Is(err, apperr.KindExternal) {
		t.Fatalf("5xx should be external, got %v", err)
	}
}

func TestResolveEmptyAddress(t *testing.T) {
	g := NewHTTPGeocoder("http://unused", time.Second)
	_, err := g.Resolve(context.Background(), "   ")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("blank address should fail validation, got %v", err)
	}
}
