package renfe

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
)

//go:embed resources/estaciones.json
var stationsJSON []byte

// Station is one entry of renfe.com's station autocomplete catalog.
// Clave is the composite "<admon>,<code>,null" key the search form
// expects for origin and destination.
type Station struct {
	DesgEstacion      string `json:"desgEstacion"`
	DesgEstacionPlano string `json:"desgEstacionPlano"`
	CdgoEstacion      string `json:"cdgoEstacion"`
	CdgoAdmon         string `json:"cdgoAdmon"`
	Clave             string `json:"clave"`
}

var (
	stationsOnce sync.Once
	stationList  []Station
)

// Stations returns the embedded station catalog.
func Stations() []Station {
	stationsOnce.Do(func() {
		err := json.Unmarshal(stationsJSON, &stationList)
		if err != nil {
			// the catalog is embedded at build time
			panic(err)
		}
	})
	return stationList
}

// FindStation resolves a user-provided station name or code to a
// catalog entry. It tries, in order: an exact match on the
// accent-stripped display name, an exact match on the station code, and
// a substring match on the display name. When all three miss it
// synthesizes a best-effort entry from the query so a search can still
// be attempted, logging the closest catalog name as a hint.
func FindStation(ctx context.Context, name string) Station {
	query := strings.ToUpper(strings.TrimSpace(name))
	catalog := Stations()

	for _, station := range catalog {
		if strings.ToUpper(station.DesgEstacionPlano) == query {
			return station
		}
	}
	for _, station := range catalog {
		if station.CdgoEstacion == query {
			return station
		}
	}
	for _, station := range catalog {
		if strings.Contains(strings.ToUpper(station.DesgEstacionPlano), query) {
			return station
		}
	}

	if nearest, ok := nearestStation(query); ok {
		slog.WarnContext(
			ctx, "station not in catalog, synthesizing entry",
			"query", name, "closest_match", nearest.DesgEstacion,
		)
	} else {
		slog.WarnContext(ctx, "station not in catalog, synthesizing entry", "query", name)
	}

	code := query
	if runes := []rune(code); len(runes) > 5 {
		code = string(runes[:5])
	}
	return Station{
		DesgEstacion:      query,
		DesgEstacionPlano: query,
		CdgoEstacion:      code,
		CdgoAdmon:         "0071",
		Clave:             "0071," + code + ",null",
	}
}

// nearestStation picks the catalog entry most similar to the query, for
// log hints only. ok is false when nothing is close enough to be worth
// suggesting.
func nearestStation(query string) (Station, bool) {
	var best Station
	bestScore := 0.0
	for _, station := range Stations() {
		score := matchr.JaroWinkler(query, strings.ToUpper(station.DesgEstacionPlano), true)
		if score > bestScore {
			bestScore = score
			best = station
		}
	}
	return best, bestScore >= 0.85
}
