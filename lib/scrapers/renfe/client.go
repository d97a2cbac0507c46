package renfe

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"renfe-backend/lib/restyutil"
	"renfe-backend/lib/telemetry"
)

// DefaultSearchURL is the ticket shop's search endpoint. It accepts the
// same form POST the renfe.com homepage submits.
const DefaultSearchURL = "https://venta.renfe.com/vol/buscarTren.do?Idioma=es&Pais=ES"

// SearchQuery describes one one-way or round-trip availability search.
// Dates are YYYY-MM-DD, DateReturn may be empty.
type SearchQuery struct {
	Origin      string
	Destination string
	DateOut     string
	DateReturn  string
	Adults      int
}

// SearchResult carries the raw results page alongside the upstream
// status code so callers can archive exactly what the server returned.
type SearchResult struct {
	HTML       string
	StatusCode int
}

type ClientOptions struct {
	// defaults to DefaultSearchURL when empty
	SearchURL string
	// optional request/response dump destination, nil disables dumping
	Output restyutil.InstrumentOutput
}

// Client performs direct searches against the ticket shop, without
// driving a browser through the homepage UI.
type Client struct {
	http      *resty.Client
	searchURL string
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept-language", "es-ES,es;q=0.9")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/renfe/http")
	restyutil.InstrumentClient(client, opts.Output)

	searchURL := opts.SearchURL
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Client{http: client, searchURL: searchURL}, nil
}

// formatDate converts YYYY-MM-DD into the DD/MM/YYYY the search form
// expects.
func formatDate(date string) (string, error) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("expected a YYYY-MM-DD date, got %q: %w", date, err)
	}
	return parsed.Format("02/01/2006"), nil
}

// buildSearchForm assembles the full form the homepage search widget
// submits. All fields are sent even when they hold defaults, the
// endpoint rejects sparse submissions.
func buildSearchForm(origin, destination Station, dateOut, dateReturn string, adults int) map[string]string {
	return map[string]string{
		"tipoBusqueda":      "autocomplete",
		"currenLocation":    "menuBusqueda",
		"vengoderenfecom":   "SI",
		"desOrigen":         origin.DesgEstacion,
		"desDestino":        destination.DesgEstacion,
		"cdgoOrigen":        origin.Clave,
		"cdgoDestino":       destination.Clave,
		"idiomaBusqueda":    "ES",
		"FechaIdaSel":       dateOut,
		"FechaVueltaSel":    dateReturn,
		"_fechaIdaVisual":   dateOut,
		"_fechaVueltaVisual": dateReturn,
		"minPriceDeparture": "false",
		"minPriceReturn":    "false",
		"adultos_":          fmt.Sprint(adults),
		"ninos_":            "0",
		"ninosMenores":      "0",
		"codPromocional":    "",
		"plazaH":            "false",
		"sinEnlace":         "false",
		"conMascota":        "false",
		"conBicicleta":      "false",
		"asistencia":        "false",
		"franjaHoraI":       "",
		"franjaHoraV":       "",
		"Idioma":            "es",
		"Pais":              "ES",
	}
}

// Search POSTs the availability form and returns the raw results page.
// Station names are resolved through the catalog first, unknown names
// degrade to synthesized entries rather than failing the search.
func (c *Client) Search(ctx context.Context, query SearchQuery) (SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("origin", query.Origin),
		attribute.String("destination", query.Destination),
		attribute.String("date_out", query.DateOut),
	)

	dateOut, err := formatDate(query.DateOut)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid outbound date")
		return SearchResult{}, err
	}
	dateReturn := ""
	if query.DateReturn != "" {
		dateReturn, err = formatDate(query.DateReturn)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid return date")
			return SearchResult{}, err
		}
	}

	origin := FindStation(ctx, query.Origin)
	destination := FindStation(ctx, query.Destination)

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(buildSearchForm(origin, destination, dateOut, dateReturn, query.Adults)).
		Post(c.searchURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return SearchResult{}, fmt.Errorf("failed to request train search: %w", err)
	}

	return SearchResult{
		HTML:       string(res.Body()),
		StatusCode: res.StatusCode(),
	}, nil
}
