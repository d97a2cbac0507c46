package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"renfe-backend/lib/archive"
	"renfe-backend/lib/scrapers/renfe"
	"renfe-backend/services/trains"
)

const resultsPage = `<html><body>
	<div id="tren_i_1" class="selectedTren" role="listitem">
		<img alt="Tipo de tren AVE">
		<h5 aria-hidden="true">06:30 h</h5>
		<h5 aria-hidden="true">09:15 h</h5>
		<span class="text-number">2 horas 45 minutos</span>
		<span class="precio-final" title="49,00 €">desde 49,00 €</span>
	</div>
</body></html>`

type stubFetcher struct {
	result renfe.SearchResult
	err    error
}

func (f stubFetcher) Search(ctx context.Context, query renfe.SearchQuery) (renfe.SearchResult, error) {
	return f.result, f.err
}

type stubFlow struct {
	html string
	err  error
}

func (f stubFlow) Run(ctx context.Context, query renfe.SearchQuery) (string, error) {
	return f.html, f.err
}

func testServer(t *testing.T, fetcher trains.ResultsFetcher, flow trains.FlowRunner) *httptest.Server {
	t.Helper()
	store, err := archive.NewStore(filepath.Join(t.TempDir(), "responses"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(New(trains.NewService(fetcher, flow, store)).Routes())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestHealth(t *testing.T) {
	server := testServer(t, stubFetcher{}, stubFlow{})

	var body map[string]string
	status := getJSON(t, server.URL+"/health", &body)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])
}

func TestSearchEndpoint(t *testing.T) {
	server := testServer(t, stubFetcher{
		result: renfe.SearchResult{HTML: resultsPage, StatusCode: 200},
	}, stubFlow{})

	var body map[string]json.RawMessage
	status := getJSON(
		t,
		server.URL+"/trains?origin=Madrid&destination=Barcelona&date_out=2026-09-10&adults=2",
		&body,
	)
	require.Equal(t, http.StatusOK, status)

	// the query is echoed back around the results
	require.JSONEq(t, `"Madrid"`, string(body["origin"]))
	require.JSONEq(t, `"Barcelona"`, string(body["destination"]))
	require.JSONEq(t, `"2026-09-10"`, string(body["date_out"]))
	require.JSONEq(t, `null`, string(body["date_return"]))
	require.JSONEq(t, `2`, string(body["adults"]))
	require.JSONEq(t, `null`, string(body["trains_return"]))

	var trainsOut []renfe.Train
	require.NoError(t, json.Unmarshal(body["trains_out"], &trainsOut))
	require.Len(t, trainsOut, 1)
	require.Equal(t, "i_1", trainsOut[0].TrainID)
	require.Equal(t, 49.00, trainsOut[0].PriceFrom)
	require.Equal(t, "EUR", trainsOut[0].Currency)
}

func TestSearchEndpointMissingParams(t *testing.T) {
	server := testServer(t, stubFetcher{}, stubFlow{})

	var body map[string]string
	status := getJSON(t, server.URL+"/trains?origin=Madrid", &body)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotEmpty(t, body["error"])
}

func TestSearchEndpointBadAdults(t *testing.T) {
	server := testServer(t, stubFetcher{}, stubFlow{})

	status := getJSON(
		t,
		server.URL+"/trains?origin=Madrid&destination=Barcelona&date_out=2026-09-10&adults=many",
		nil,
	)
	require.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestSearchEndpointDefaultsToOneAdult(t *testing.T) {
	server := testServer(t, stubFetcher{
		result: renfe.SearchResult{HTML: resultsPage, StatusCode: 200},
	}, stubFlow{})

	status := getJSON(
		t,
		server.URL+"/trains?origin=Madrid&destination=Barcelona&date_out=2026-09-10",
		nil,
	)
	require.Equal(t, http.StatusOK, status)
}

func TestSearchEndpointUpstreamFailure(t *testing.T) {
	server := testServer(t, stubFetcher{err: errors.New("connection refused")}, stubFlow{})

	var body map[string]string
	status := getJSON(
		t,
		server.URL+"/trains?origin=Madrid&destination=Barcelona&date_out=2026-09-10",
		&body,
	)
	require.Equal(t, http.StatusBadGateway, status)
	require.NotEmpty(t, body["error"])
}

func TestFlowEndpoint(t *testing.T) {
	server := testServer(t, stubFetcher{}, stubFlow{html: resultsPage})

	var body trains.FlowResult
	status := getJSON(
		t,
		server.URL+"/trains-flow?origin=Madrid&destination=Barcelona&date_out=2026-09-10",
		&body,
	)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body.Message)
	require.NotEmpty(t, body.Filepath)
	require.Len(t, body.Trains, 1)
}

func TestFlowEndpointFailure(t *testing.T) {
	server := testServer(t, stubFetcher{}, stubFlow{err: errors.New("browser crashed")})

	status := getJSON(
		t,
		server.URL+"/trains-flow?origin=Madrid&destination=Barcelona&date_out=2026-09-10",
		nil,
	)
	require.Equal(t, http.StatusBadGateway, status)
}

func TestResponsesEndpoint(t *testing.T) {
	server := testServer(t, stubFetcher{
		result: renfe.SearchResult{HTML: resultsPage, StatusCode: 200},
	}, stubFlow{})

	// seed the archive through a search
	status := getJSON(
		t,
		server.URL+"/trains?origin=Madrid&destination=Barcelona&date_out=2026-09-10",
		nil,
	)
	require.Equal(t, http.StatusOK, status)

	var entries []archive.Entry
	status = getJSON(t, server.URL+"/responses?limit=10", &entries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 2)

	status = getJSON(t, server.URL+"/responses?limit=nope", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
}
