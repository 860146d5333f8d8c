package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/receiptgw/receipt-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

// Geocoder resolves a free-text postal address to coordinates. Resolution
// is strictly best-effort: any timeout or service failure yields
// (nil, nil) and must never fail the caller.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*float64, *float64)
}

// NominatimGeocoder queries a Nominatim-compatible search endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	client    *fasthttp.Client
}

func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		timeout:   timeout,
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}
}

// JoinAddressParts builds the query string the way issuer fields arrive:
// non-empty parts joined with ", ". An all-empty input yields "".
func JoinAddressParts(parts ...*string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p == nil {
			continue
		}
		if s := strings.TrimSpace(*p); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*float64, *float64) {
	if strings.TrimSpace(address) == "" {
		return nil, nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req.SetRequestURI(fmt.Sprintf("%s/search?%s", g.baseURL, q.Encode()))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(g.userAgent)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(g.timeout)
	}

	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		logger.Warn("geocoding request failed", "address", address, "error", err)
		return nil, nil
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		logger.Warn("geocoding returned non-200", "address", address, "status", resp.StatusCode())
		return nil, nil
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		logger.Warn("geocoding response not parseable", "address", address, "error", err)
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, nil
	}

	return &lat, &lon
}
