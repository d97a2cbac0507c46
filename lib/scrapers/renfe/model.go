package renfe

// Currency is the only currency renfe.com sells tickets in.
const Currency = "EUR"

// FareOption is one purchasable price tier for a single train
// (Básico, Elige, Elige Confort, Prémium...).
type FareOption struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	// opaque tier identifier from data-cod-tarifa, nil when the card
	// does not carry one
	Code *string `json:"code"`
	// connecting-fare correlation id from data-cod-tpenlacesilencio
	TpEnlace *string  `json:"tp_enlace"`
	Features []string `json:"features"`
}

// Train is one scheduled service between the queried origin and
// destination on the queried date, together with its fare tiers.
//
// departure, arrival and duration are kept as the free-text strings the
// results page renders, normalizing them into time types is left to
// callers. PriceFrom is the page's own advertised "from" price, it is
// not reconciled against the fare list.
type Train struct {
	// unique only within one parsed page, "unknown_<i>" when the row
	// carried no id attribute
	TrainID       string       `json:"train_id"`
	ServiceType   string       `json:"service_type"`
	DepartureTime string       `json:"departure_time"`
	ArrivalTime   string       `json:"arrival_time"`
	Duration      string       `json:"duration"`
	PriceFrom     float64      `json:"price_from"`
	Currency      string       `json:"currency"`
	Fares         []FareOption `json:"fares"`
	Badges        []string     `json:"badges"`
	Accessible    bool         `json:"accessible"`
	EcoFriendly   bool         `json:"eco_friendly"`
}
