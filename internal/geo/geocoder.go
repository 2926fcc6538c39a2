package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
)

// Result is a resolved address.
type Result struct {
	Coordinates entity.Coordinates
	Address     entity.Address
}

// Geocoder resolves a free-form address to coordinates and a normalized
// address. Implementations must respect ctx deadlines; callers treat failure
// as non-fatal.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*Result, error)
}

// HTTPGeocoder queries a Nominatim-compatible search endpoint.
type HTTPGeocoder struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func NewHTTPGeocoder(baseURL string, timeout time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

type nominatimHit struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Address struct {
		Road     string `json:"road"`
		City     string `json:"city"`
		Town     string `json:"town"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country_code"`
	} `json:"address"`
}

func (g *HTTPGeocoder) Resolve(ctx context.Context, address string) (*Result, error) {
	if strings.TrimSpace(address) == "" {
		return nil, apperr.Validation("address is required for geocoding")
	}
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, apperr.External(err, "geocoder request build failed")
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, apperr.External(err, "geocoder unavailable")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.External(nil, "geocoder returned status %d", resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, apperr.External(err, "geocoder response decode failed")
	}
	if len(hits) == 0 {
		return nil, apperr.External(nil, "address could not be resolved")
	}
	hit := hits[0]
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return nil, apperr.External(err, "geocoder returned invalid latitude")
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return nil, apperr.External(err, "geocoder returned invalid longitude")
	}
	city := hit.Address.City
	if city == "" {
		city = hit.Address.Town
	}
	return &Result{
		Coordinates: entity.Coordinates{Longitude: lon, Latitude: lat},
		Address: entity.Address{
			Street:     hit.Address.Road,
			City:       city,
			State:      hit.Address.State,
			PostalCode: hit.Address.Postcode,
			Country:    strings.ToUpper(hit.Address.Country),
		},
	}, nil
}
