package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestJoinAddressParts(t *testing.T) {
	t.Run("joins non-empty parts with comma", func(t *testing.T) {
		got := JoinAddressParts(strPtr("Bahnhofstrasse 1"), strPtr("8001"), strPtr("Zurich"), strPtr("Switzerland"))
		assert.Equal(t, "Bahnhofstrasse 1, 8001, Zurich, Switzerland", got)
	})

	t.Run("skips nil and blank parts", func(t *testing.T) {
		got := JoinAddressParts(nil, strPtr("  "), strPtr("Zurich"), nil)
		assert.Equal(t, "Zurich", got)
	})

	t.Run("all empty yields empty string", func(t *testing.T) {
		assert.Equal(t, "", JoinAddressParts(nil, strPtr("")))
	})
}

func TestNominatimGeocoder_Geocode(t *testing.T) {
	t.Run("resolves coordinates on match", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Write([]byte(`[{"lat":"47.3769","lon":"8.5417"}]`))
		}))
		defer srv.Close()

		g := NewNominatimGeocoder(srv.URL, "receipt-gateway-test", 2*time.Second)
		lat, lon := g.Geocode(context.Background(), "Zurich, Switzerland")
		require.NotNil(t, lat)
		require.NotNil(t, lon)
		assert.InDelta(t, 47.3769, *lat, 0.0001)
		assert.InDelta(t, 8.5417, *lon, 0.0001)
	})

	t.Run("empty address short-circuits without a call", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		g := NewNominatimGeocoder(srv.URL, "receipt-gateway-test", 2*time.Second)
		lat, lon := g.Geocode(context.Background(), "   ")
		assert.Nil(t, lat)
		assert.Nil(t, lon)
		assert.False(t, called)
	})

	t.Run("no match yields nil coordinates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		g := NewNominatimGeocoder(srv.URL, "receipt-gateway-test", 2*time.Second)
		lat, lon := g.Geocode(context.Background(), "nowhere")
		assert.Nil(t, lat)
		assert.Nil(t, lon)
	})

	t.Run("server error is swallowed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		g := NewNominatimGeocoder(srv.URL, "receipt-gateway-test", 2*time.Second)
		lat, lon := g.Geocode(context.Background(), "Zurich")
		assert.Nil(t, lat)
		assert.Nil(t, lon)
	})

	t.Run("timeout is swallowed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
		}))
		defer srv.Close()

		g := NewNominatimGeocoder(srv.URL, "receipt-gateway-test", 50*time.Millisecond)
		lat, lon := g.Geocode(context.Background(), "Zurich")
		assert.Nil(t, lat)
		assert.Nil(t, lon)
	})

	t.Run("malformed body is swallowed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		g := NewNominatimGeocoder(srv.URL, "receipt-gateway-test", 2*time.Second)
		lat, lon := g.Geocode(context.Background(), "Zurich")
		assert.Nil(t, lat)
		assert.Nil(t, lon)
	})
}
