package renfe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	formatted, err := formatDate("2026-09-10")
	require.NoError(t, err)
	require.Equal(t, "10/09/2026", formatted)

	_, err = formatDate("10/09/2026")
	require.Error(t, err)
	_, err = formatDate("2026-13-40")
	require.Error(t, err)
	_, err = formatDate("")
	require.Error(t, err)
}

func TestBuildSearchForm(t *testing.T) {
	origin := FindStation(context.Background(), "MADRID (TODAS)")
	destination := FindStation(context.Background(), "BARCELONA-SANTS")

	form := buildSearchForm(origin, destination, "10/09/2026", "", 2)

	require.Equal(t, "MADRID (TODAS)", form["desOrigen"])
	require.Equal(t, "BARCELONA-SANTS", form["desDestino"])
	require.Equal(t, "0071,MADRI,null", form["cdgoOrigen"])
	require.Equal(t, "0071,71801,null", form["cdgoDestino"])
	require.Equal(t, "10/09/2026", form["FechaIdaSel"])
	require.Equal(t, "10/09/2026", form["_fechaIdaVisual"])
	require.Equal(t, "", form["FechaVueltaSel"])
	require.Equal(t, "2", form["adultos_"])
	require.Equal(t, "0", form["ninos_"])
	require.Equal(t, "SI", form["vengoderenfecom"])
	require.Equal(t, "autocomplete", form["tipoBusqueda"])
	require.Equal(t, "es", form["Idioma"])
	require.Equal(t, "ES", form["Pais"])
}

func TestClientSearch(t *testing.T) {
	var received url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		received = r.PostForm
		w.Write([]byte(`<html><body>
			<div id="tren_i_1" class="selectedTren" role="listitem">
				<h5 aria-hidden="true">06:30 h</h5>
				<h5 aria-hidden="true">09:15 h</h5>
			</div>
		</body></html>`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{SearchURL: server.URL})
	require.NoError(t, err)

	result, err := client.Search(context.Background(), SearchQuery{
		Origin:      "Madrid (todas)",
		Destination: "Barcelona-Sants",
		DateOut:     "2026-09-10",
		DateReturn:  "2026-09-12",
		Adults:      1,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, result.StatusCode)

	require.Equal(t, "0071,MADRI,null", received.Get("cdgoOrigen"))
	require.Equal(t, "0071,71801,null", received.Get("cdgoDestino"))
	require.Equal(t, "10/09/2026", received.Get("FechaIdaSel"))
	require.Equal(t, "12/09/2026", received.Get("FechaVueltaSel"))
	require.Equal(t, "1", received.Get("adultos_"))

	trains := ParseTrainList(context.Background(), result.HTML)
	require.Len(t, trains, 1)
	require.Equal(t, "i_1", trains[0].TrainID)
}

func TestClientSearchInvalidDate(t *testing.T) {
	client, err := NewClient(ClientOptions{SearchURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), SearchQuery{
		Origin:      "Madrid",
		Destination: "Barcelona",
		DateOut:     "next tuesday",
		Adults:      1,
	})
	require.Error(t, err)
}
