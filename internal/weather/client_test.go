package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

func testClient(baseURL string) *Client {
	cfg := DefaultClientConfig()
	cfg.AviationWeatherBaseURL = baseURL
	cfg.DATISBaseURL = baseURL
	cfg.MOSBaseURL = baseURL + "/mos?site=%s"
	cfg.RunwaysCSVURL = baseURL + "/runways.csv"
	cfg.RequestTimeoutSeconds = 5
	cfg.MaxRetries = 1
	return NewClient(cfg, logger.NewNop())
}

func TestClientFetchMETAR(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metar", r.URL.Path)
		assert.Equal(t, "KBOS", r.URL.Query().Get("ids"))
		assert.Equal(t, "raw", r.URL.Query().Get("format"))
		w.Write([]byte("KBOS 010651Z 27015KT 10SM SKC 21/17 A2992"))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Fetch(context.Background(), KindMETAR, "kbos")
	require.NoError(t, err)
	assert.Contains(t, body, "KBOS")
}

func TestClientInvalidStation(t *testing.T) {
	t.Parallel()
	client := testClient("http://127.0.0.1:0")

	for _, station := range []string{"", "K", "TOOLONGID", "kb os"} {
		_, err := client.Fetch(context.Background(), KindMETAR, station)
		assert.ErrorIs(t, err, ErrInvalidStation, "station %q", station)
	}

	_, err := client.Fetch(context.Background(), Kind("bogus"), "KBOS")
	assert.Error(t, err)
}

func TestClientStatusMapping(t *testing.T) {
	t.Parallel()
	var status atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()
	client := testClient(srv.URL)

	status.Store(http.StatusNotFound)
	_, err := client.Fetch(context.Background(), KindMETAR, "KBOS")
	assert.ErrorIs(t, err, ErrNoData)

	status.Store(http.StatusBadRequest)
	_, err = client.Fetch(context.Background(), KindMETAR, "KBOS")
	assert.ErrorIs(t, err, ErrInvalidStation)

	status.Store(http.StatusBadGateway)
	_, err = client.Fetch(context.Background(), KindMETAR, "KBOS")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Fetch(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), KindMETAR, "KBOS")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientEmptyBodyIsNoData(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), KindTAF, "KBOS")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestClientFetchDATIS(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/KBOS", r.URL.Path)
		w.Write([]byte(`[{"airport":"KBOS","type":"dep","code":"A","datis":"BOS DEP INFO A"},` +
			`{"airport":"KBOS","type":"arr","code":"A","datis":"BOS ARR INFO A"}]`))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Fetch(context.Background(), KindDATIS, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, "BOS DEP INFO A\n\nBOS ARR INFO A", body)
}

func TestExtractDATIS(t *testing.T) {
	t.Parallel()
	out, err := extractDATIS(`[{"airport":"KJFK","datis":"JFK INFO B"}]`)
	require.NoError(t, err)
	assert.Equal(t, "JFK INFO B", out)

	// Blank broadcasts drop out of the concatenation
	out, err = extractDATIS(`[{"datis":"  "},{"datis":"KEPT"}]`)
	require.NoError(t, err)
	assert.Equal(t, "KEPT", out)

	_, err = extractDATIS(`[]`)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = extractDATIS(`{"error":"not found"}`)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestClientURLFor(t *testing.T) {
	t.Parallel()
	client := NewClient(DefaultClientConfig(), logger.NewNop())

	assert.Equal(t,
		"https://aviationweather.gov/api/data/metar?ids=KBOS&format=raw&taf=false",
		client.urlFor(KindMETAR, "KBOS"))
	assert.Equal(t,
		"https://aviationweather.gov/api/data/taf?ids=KBOS&format=raw",
		client.urlFor(KindTAF, "KBOS"))
	assert.Equal(t,
		"https://aviationweather.gov/api/data/windtemp?region=bos&level=low&fcst=06",
		client.urlFor(KindWindsAloft, "KBOS"))
	assert.Equal(t, "https://datis.clowd.io/api/KBOS", client.urlFor(KindDATIS, "KBOS"))
	assert.Contains(t, client.urlFor(KindMOS, "KBOS"), "issuedby=KBOS")
	assert.Equal(t,
		"https://davidmegginson.github.io/ourairports-data/runways.csv",
		client.urlFor(KindRunways, "KBOS"))
}
