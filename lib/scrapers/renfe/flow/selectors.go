package flow

// Selectors for the renfe.com homepage search widget and its lightpick
// date picker. They track the live site and are the most
// change-sensitive part of the flow, keep them in one place.
const (
	originInput      = "#origin"
	destinationInput = "#destination"
	passengersInput  = "#adultos_"

	datePickerTrigger = "#first-input"
	datePickerRoot    = "#daterangev2"
	monthsContainer   = "#daterangev2 .lightpick__months"
	// panel index is 1 or 2, the picker shows two months side by side
	monthPanel      = "#daterangev2 > section > div.lightpick__inner > div.lightpick__months > section:nth-child(%d)"
	nextMonthButton = "button.lightpick__next-action"

	roundTripLabel = `.lightpick__label:has-text("Viaje de ida y vuelta")`
	oneWayLabel    = `.lightpick__label:has-text("Viaje solo ida")`

	acceptDatesButton = "#daterangev2 > section > div.lightpick__footer-buttons > button:nth-child(2), button.lightpick__apply-action-sub"
)

// cookie consent banners vary between deployments, try the specific
// ids first and the generic text matches last
var cookieSelectors = []string{
	"button#onetrust-accept-btn-handler",
	"button.onetrust-close-btn-handler",
	`button:has-text("Aceptar")`,
	`button:has-text("Aceptar todas")`,
	`button:has-text("Accept")`,
	".cookies-banner button",
	"#cookies-accept-btn",
}

var searchButtonSelectors = []string{
	`#ticketSearchBt button span:has-text("Buscar billete")`,
	`button:has-text("Buscar billete")`,
	`button[type="submit"]`,
	`button:has-text("Buscar")`,
	`button:has-text("Buscar billetes")`,
	".rf-btn--submit",
	`input[type="submit"]`,
	"button.btn-search",
}
