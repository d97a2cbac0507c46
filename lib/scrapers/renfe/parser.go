package renfe

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"renfe-backend/lib/htmlutil"
)

var tracer = otel.Tracer("scrapers/renfe")

// the results page marks one train's container with this combination of
// tag, class and ARIA role
const trainRowSelector = `div.selectedTren[role="listitem"]`

// fare cards carry both class tokens simultaneously, goquery tests
// token membership so unrelated classes containing the substring do not
// match
const fareCardSelector = "div.seleccion-resumen-bottom.card"

var (
	serviceTypeRegex = regexp.MustCompile(`Tipo de tren\s+(\w+)`)
	// a single contiguous digit/comma run, thousands separators are not
	// special-cased (see the parser tests for the pinned behavior on
	// "1.234,56"-style input)
	priceRunRegex = regexp.MustCompile(`[\d,]+`)
	// leading run of a fare header before the first digit or € sign
	fareNameRegex = regexp.MustCompile(`^([^\d€]+)`)
)

const (
	accessibleMarker = "Plaza H disponible"
	ecoMarker        = "Cero emisiones"
)

// parsePrice converts a comma-decimal price run ("49,00") into a float.
func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

// ParseTrainList extracts every train row (with nested fare cards) from
// a results page or fragment, in document order.
//
// It never fails: malformed fields degrade to documented defaults,
// malformed rows or fare cards are skipped with a warning, and an
// unparsable document yields an empty list. Callers that need to tell
// "no trains" apart from "unparsable page" have to consult the logs or
// the archived HTML.
func ParseTrainList(ctx context.Context, htmlContent string) []Train {
	ctx, span := tracer.Start(ctx, "ParseTrainList")
	defer span.End()

	trains := []Train{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse results html", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return trains
	}

	rows := doc.Find(trainRowSelector)
	span.SetAttributes(attribute.Int("rows", rows.Length()))
	if rows.Length() == 0 {
		slog.WarnContext(ctx, "no train rows found in document")
		return trains
	}
	slog.InfoContext(ctx, "found train rows", "count", rows.Length())

	rows.Each(func(i int, row *goquery.Selection) {
		trains = append(trains, parseTrainRow(ctx, i, row))
	})

	return trains
}

// ParseReturnTrainList extracts only the train rows nested under a
// return-leg container, an element whose id contains "vuelta". One-way
// results pages have no such container, that is not an error.
func ParseReturnTrainList(ctx context.Context, htmlContent string) []Train {
	ctx, span := tracer.Start(ctx, "ParseReturnTrainList")
	defer span.End()

	trains := []Train{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse results html", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return trains
	}

	rows := doc.Find(`[id*="vuelta"]`).Find(trainRowSelector)
	span.SetAttributes(attribute.Int("rows", rows.Length()))
	rows.Each(func(i int, row *goquery.Selection) {
		trains = append(trains, parseTrainRow(ctx, i, row))
	})

	return trains
}

func parseTrainRow(ctx context.Context, idx int, row *goquery.Selection) Train {
	train := Train{
		TrainID:     extractTrainID(row, idx),
		ServiceType: extractServiceType(row),
		Currency:    Currency,
		Fares:       []FareOption{},
	}

	train.DepartureTime, train.ArrivalTime = extractTimes(ctx, idx, row)
	train.Duration = htmlutil.CleanText(row.Find("span.text-number").First().Text())
	train.PriceFrom = extractPriceFrom(ctx, idx, train.TrainID, row)
	train.Badges = extractBadges(row)

	row.Find(fareCardSelector).Each(func(j int, card *goquery.Selection) {
		train.Fares = append(train.Fares, parseFareCard(ctx, train.TrainID, j, card))
	})

	info := row.Find("div.info-varios").First()
	if info.Length() > 0 {
		text := info.Text()
		train.Accessible = strings.Contains(text, accessibleMarker)
		train.EcoFriendly = strings.Contains(text, ecoMarker)
	}

	return train
}

// extractTrainID reads the row's id attribute ("tren_i_1") minus its
// fixed prefix, falling back to a positional placeholder.
func extractTrainID(row *goquery.Selection, idx int) string {
	id := row.AttrOr("id", "")
	if id == "" {
		return "unknown_" + strconv.Itoa(idx)
	}
	return strings.TrimPrefix(id, "tren_")
}

func extractServiceType(row *goquery.Selection) string {
	serviceType := "Tren"
	row.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt := img.AttrOr("alt", "")
		groups := serviceTypeRegex.FindStringSubmatch(alt)
		if groups == nil {
			return true
		}
		serviceType = groups[1]
		return false
	})
	return serviceType
}

// extractTimes takes the first two screen-reader-hidden h5 time labels
// as departure then arrival, stripping the trailing hour suffix.
func extractTimes(ctx context.Context, idx int, row *goquery.Selection) (string, string) {
	labels := row.Find(`h5[aria-hidden="true"]`)
	if labels.Length() < 2 {
		slog.WarnContext(
			ctx, "expected at least two time labels",
			"row", idx, "found", labels.Length(),
		)
		return "", ""
	}
	departure := strings.ReplaceAll(htmlutil.CleanText(labels.Eq(0).Text()), " h", "")
	arrival := strings.ReplaceAll(htmlutil.CleanText(labels.Eq(1).Text()), " h", "")
	return departure, arrival
}

// extractPriceFrom reads the advertised minimum price off the final
// price element's title attribute, the visible text may be abbreviated.
func extractPriceFrom(ctx context.Context, idx int, trainID string, row *goquery.Selection) float64 {
	title, ok := row.Find("span.precio-final").First().Attr("title")
	if !ok {
		return 0.0
	}
	run := priceRunRegex.FindString(title)
	if run == "" {
		return 0.0
	}
	price, err := parsePrice(run)
	if err != nil {
		slog.WarnContext(
			ctx, "unparsable price-from value",
			"row", idx, "train_id", trainID, "value", run, "err", err,
		)
		return 0.0
	}
	return price
}

func extractBadges(row *goquery.Selection) []string {
	badges := []string{}
	row.Find(".badge-amarillo-junto, .badge-azul-junto").Each(func(_ int, badge *goquery.Selection) {
		text := htmlutil.CleanText(badge.Text())
		if text != "" {
			badges = append(badges, text)
		}
	})
	return badges
}

func parseFareCard(ctx context.Context, trainID string, idx int, card *goquery.Selection) FareOption {
	fare := FareOption{
		Name:     extractFareName(card),
		Currency: Currency,
		Features: []string{},
	}

	if raw, ok := card.Attr("data-precio-tarifa"); ok {
		price, err := parsePrice(raw)
		if err != nil {
			slog.WarnContext(
				ctx, "unparsable fare price",
				"train_id", trainID, "fare", idx, "value", raw, "err", err,
			)
		} else {
			fare.Price = price
		}
	}

	if code, ok := card.Attr("data-cod-tarifa"); ok {
		fare.Code = &code
	}
	if tpEnlace, ok := card.Attr("data-cod-tpenlacesilencio"); ok {
		fare.TpEnlace = &tpEnlace
	}

	card.Find("li").Each(func(_ int, item *goquery.Selection) {
		text := htmlutil.CleanText(item.Text())
		if text != "" {
			fare.Features = append(fare.Features, text)
		}
	})

	return fare
}

// extractFareName prefers the header span carrying the padding-right
// style marker, then falls back to the header text before the first
// digit or currency symbol.
func extractFareName(card *goquery.Selection) string {
	header := card.Find("div.card-header").First()
	if header.Length() == 0 {
		return "Desconocida"
	}

	name := ""
	header.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if !strings.Contains(span.AttrOr("style", ""), "padding-right") {
			return true
		}
		name = htmlutil.CleanText(span.Text())
		return false
	})
	if name != "" {
		return name
	}

	groups := fareNameRegex.FindStringSubmatch(htmlutil.CleanText(header.Text()))
	if groups != nil {
		name = strings.TrimSpace(groups[1])
	}
	if name == "" {
		return "Desconocida"
	}
	return name
}
