package flow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// the picker advances one month per click, 18 steps covers the whole
// booking horizon with margin
const maxMonthSteps = 18

var spanishMonths = map[time.Month]string{
	time.January:   "Enero",
	time.February:  "Febrero",
	time.March:     "Marzo",
	time.April:     "Abril",
	time.May:       "Mayo",
	time.June:      "Junio",
	time.July:      "Julio",
	time.August:    "Agosto",
	time.September: "Septiembre",
	time.October:   "Octubre",
	time.November:  "Noviembre",
	time.December:  "Diciembre",
}

// monthMatches reports whether a panel header ("Septiembre 2026")
// names the target date's month.
func monthMatches(target time.Time, monthText string) bool {
	if monthText == "" {
		return false
	}
	month := strings.ToLower(spanishMonths[target.Month()])
	return strings.Contains(strings.ToLower(monthText), month)
}

// exactDay matches a day cell's text without the substring ambiguity a
// plain text filter has, "1" must not match the "11" cell.
func exactDay(day int) *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + strconv.Itoa(day) + `\s*$`)
}
