package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		assert.Equal(t, "mintA,mintB,mintC", r.URL.Query().Get("ids"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"mintA": {"price": "1.0001"},
			"mintB": {"price": "not-a-number"},
			"mintC": {"price": "-3"}
		}}`))
	}))
	defer server.Close()

	c := NewPriceClientWithHTTP(server.URL, server.Client())
	prices, err := c.Prices(context.Background(), []string{"mintA", "mintB", "mintC"})
	require.NoError(t, err)

	// Unparseable and non-positive prices are dropped, not zeroed.
	assert.Equal(t, map[string]float64{"mintA": 1.0001}, prices)
}

func TestPrices_EmptyInputSkipsNetwork(t *testing.T) {
	c := NewPriceClient("http://127.0.0.1:0")
	prices, err := c.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestPrices_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewPriceClientWithHTTP(server.URL, server.Client())
	_, err := c.Prices(context.Background(), []string{"mintA"})
	assert.Error(t, err)
}
