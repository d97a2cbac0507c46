// Package flow drives the renfe.com homepage search widget with a real
// browser. It exists as a fallback for when the direct POST endpoint
// starts rejecting non-browser traffic, the UI path picks up whatever
// cookies and tokens the homepage hands out along the way.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"renfe-backend/lib/scrapers/renfe"
)

var tracer = otel.Tracer("scrapers/renfe/flow")

const DefaultHomeURL = "https://www.renfe.com/es/es"

type Config struct {
	Headless       bool    `json:"headless"`
	SlowMo         float64 `json:"slow_mo"`
	Locale         string  `json:"locale"`
	ViewportWidth  int     `json:"viewport_width"`
	ViewportHeight int     `json:"viewport_height"`
	// defaults to DefaultHomeURL when empty
	HomeURL string `json:"home_url"`
}

func DefaultConfig() Config {
	return Config{
		Headless:       true,
		SlowMo:         0,
		Locale:         "es-ES",
		ViewportWidth:  1280,
		ViewportHeight: 720,
		HomeURL:        DefaultHomeURL,
	}
}

type Runner struct {
	config Config
}

func NewRunner(config Config) Runner {
	if config.HomeURL == "" {
		config.HomeURL = DefaultHomeURL
	}
	if config.Locale == "" {
		config.Locale = "es-ES"
	}
	return Runner{config: config}
}

// Run performs the whole homepage search flow and returns the final
// page's HTML. When the flow fails after the page exists, the HTML
// captured at the point of failure is returned alongside the error so
// the caller can still archive it.
func (r Runner) Run(ctx context.Context, query renfe.SearchQuery) (string, error) {
	ctx, span := tracer.Start(ctx, "flow.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("origin", query.Origin),
		attribute.String("destination", query.Destination),
		attribute.String("date_out", query.DateOut),
	)

	dateOut, err := time.Parse("2006-01-02", query.DateOut)
	if err != nil {
		return "", fmt.Errorf("expected a YYYY-MM-DD outbound date, got %q: %w", query.DateOut, err)
	}
	var dateReturn time.Time
	roundTrip := query.DateReturn != ""
	if roundTrip {
		dateReturn, err = time.Parse("2006-01-02", query.DateReturn)
		if err != nil {
			return "", fmt.Errorf("expected a YYYY-MM-DD return date, got %q: %w", query.DateReturn, err)
		}
	}

	driver, err := playwright.Run()
	if err != nil {
		return "", fmt.Errorf("failed to start playwright: %w", err)
	}
	defer driver.Stop()

	browser, err := driver.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.config.Headless),
		SlowMo:   playwright.Float(r.config.SlowMo),
	})
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Locale: playwright.String(r.config.Locale),
		Viewport: &playwright.Size{
			Width:  r.config.ViewportWidth,
			Height: r.config.ViewportHeight,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}

	driveErr := r.drive(ctx, page, query, dateOut, dateReturn, roundTrip)
	html, contentErr := page.Content()
	if driveErr != nil {
		span.RecordError(driveErr)
		span.SetStatus(codes.Error, "flow failed")
		if contentErr != nil {
			return "", driveErr
		}
		return html, driveErr
	}
	if contentErr != nil {
		return "", fmt.Errorf("failed to read results page: %w", contentErr)
	}
	return html, nil
}

func (r Runner) drive(
	ctx context.Context,
	page playwright.Page,
	query renfe.SearchQuery,
	dateOut, dateReturn time.Time,
	roundTrip bool,
) error {
	slog.InfoContext(ctx, "navigating to homepage", "url", r.config.HomeURL)
	_, err := page.Goto(r.config.HomeURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("failed to load homepage: %w", err)
	}

	r.acceptCookies(ctx, page)

	origin := renfe.FindStation(ctx, query.Origin)
	destination := renfe.FindStation(ctx, query.Destination)
	slog.InfoContext(
		ctx, "resolved stations",
		"origin", origin.DesgEstacion, "origin_key", origin.Clave,
		"destination", destination.DesgEstacion, "destination_key", destination.Clave,
	)

	err = page.Locator(originInput).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return fmt.Errorf("search widget never appeared: %w", err)
	}

	err = selectStation(ctx, page, originInput, origin.DesgEstacion)
	if err != nil {
		return err
	}
	err = selectStation(ctx, page, destinationInput, destination.DesgEstacion)
	if err != nil {
		return err
	}

	err = r.pickDates(ctx, page, dateOut, dateReturn, roundTrip)
	if err != nil {
		return err
	}

	err = page.Locator(passengersInput).Fill(strconv.Itoa(query.Adults))
	if err != nil {
		slog.InfoContext(ctx, "passenger field not editable, keeping default", "err", err)
	}

	err = r.submitSearch(ctx, page)
	if err != nil {
		return err
	}

	page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
	return nil
}

func (r Runner) acceptCookies(ctx context.Context, page playwright.Page) {
	for _, selector := range cookieSelectors {
		button := page.Locator(selector).First()
		visible, err := button.IsVisible()
		if err != nil || !visible {
			continue
		}
		err = button.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(1000)})
		if err != nil {
			continue
		}
		page.WaitForTimeout(300)
		slog.InfoContext(ctx, "accepted cookie banner", "selector", selector)
		return
	}
	slog.InfoContext(ctx, "no cookie banner found")
}

// selectStation types into an autocomplete field and confirms the first
// suggestion with the keyboard. The plain fill fallback covers widget
// versions whose dropdown does not open headless.
func selectStation(ctx context.Context, page playwright.Page, selector, name string) error {
	field := page.Locator(selector)

	err := func() error {
		err := field.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)})
		if err != nil {
			return err
		}
		page.WaitForTimeout(500)
		err = field.Fill(name)
		if err != nil {
			return err
		}
		page.WaitForTimeout(1000)
		err = field.Press("ArrowDown")
		if err != nil {
			return err
		}
		page.WaitForTimeout(300)
		err = field.Press("Enter")
		if err != nil {
			return err
		}
		page.WaitForTimeout(500)
		return nil
	}()
	if err == nil {
		slog.InfoContext(ctx, "selected station from dropdown", "selector", selector, "station", name)
		return nil
	}

	slog.WarnContext(
		ctx, "dropdown selection failed, falling back to direct fill",
		"selector", selector, "station", name, "err", err,
	)
	err = field.Fill(name)
	if err != nil {
		return fmt.Errorf("failed to fill station field %s: %w", selector, err)
	}
	err = field.Press("Enter")
	if err != nil {
		return fmt.Errorf("failed to confirm station field %s: %w", selector, err)
	}
	return nil
}

func (r Runner) pickDates(
	ctx context.Context,
	page playwright.Page,
	dateOut, dateReturn time.Time,
	roundTrip bool,
) error {
	err := page.Locator(datePickerTrigger).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return fmt.Errorf("failed to open date picker: %w", err)
	}
	err = page.Locator(datePickerRoot).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return fmt.Errorf("date picker never appeared: %w", err)
	}
	page.WaitForTimeout(200)

	tripLabel := oneWayLabel
	if roundTrip {
		tripLabel = roundTripLabel
	}
	label := page.Locator(tripLabel).First()
	if visible, err := label.IsVisible(); err == nil && visible {
		if err := label.Click(); err == nil {
			page.WaitForTimeout(150)
		}
	}

	err = r.navigateToMonth(ctx, page, dateOut)
	if err != nil {
		return err
	}
	if !selectDay(page, dateOut.Day()) {
		return fmt.Errorf("could not select outbound day %s in date picker", dateOut.Format("2006-01-02"))
	}

	if roundTrip {
		err = r.navigateToMonth(ctx, page, dateReturn)
		if err != nil {
			return err
		}
		if !selectDay(page, dateReturn.Day()) {
			return fmt.Errorf("could not select return day %s in date picker", dateReturn.Format("2006-01-02"))
		}
	}

	accept := page.Locator(acceptDatesButton).First()
	if visible, err := accept.IsVisible(); err == nil && visible {
		if err := accept.Click(); err != nil {
			slog.WarnContext(ctx, "could not confirm date picker", "err", err)
		}
		page.WaitForTimeout(200)
	} else {
		slog.WarnContext(ctx, "date picker confirm button not visible")
	}

	slog.InfoContext(ctx, "dates selected in date picker")
	return nil
}

// navigateToMonth advances the two-panel picker until the target month
// is visible in either panel.
func (r Runner) navigateToMonth(ctx context.Context, page playwright.Page, target time.Time) error {
	err := page.Locator(monthsContainer).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		return fmt.Errorf("date picker months never appeared: %w", err)
	}

	for step := 0; step < maxMonthSteps; step++ {
		first := visibleMonth(page, 1)
		second := visibleMonth(page, 2)
		slog.DebugContext(
			ctx, "visible date picker months",
			"first", first, "second", second, "step", step,
		)
		if monthMatches(target, first) || monthMatches(target, second) {
			return nil
		}
		err := page.Locator(nextMonthButton).Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(2000),
		})
		if err != nil {
			return fmt.Errorf("failed to advance date picker: %w", err)
		}
		page.WaitForTimeout(200)
	}
	return fmt.Errorf("month %s not reachable within %d steps", target.Format("2006-01"), maxMonthSteps)
}

// visibleMonth reads the header of one month panel, empty when the
// panel does not exist.
func visibleMonth(page playwright.Page, panel int) string {
	header := page.Locator(fmt.Sprintf(monthPanel, panel) + " > header")
	count, err := header.Count()
	if err != nil || count == 0 {
		return ""
	}

	span := header.Locator("div > span > span:nth-child(1)").First()
	if count, err := span.Count(); err == nil && count > 0 {
		text, err := span.TextContent()
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}

	text, err := header.TextContent()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func selectDay(page playwright.Page, day int) bool {
	for panel := 1; panel <= 2; panel++ {
		cell := page.Locator(
			fmt.Sprintf(monthPanel, panel)+" div.lightpick__days > div.lightpick__day.is-available",
			playwright.PageLocatorOptions{HasText: exactDay(day)},
		).First()
		visible, err := cell.IsVisible()
		if err != nil || !visible {
			continue
		}
		err = cell.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(2000)})
		if err != nil {
			continue
		}
		page.WaitForTimeout(150)
		return true
	}
	return false
}

func (r Runner) submitSearch(ctx context.Context, page playwright.Page) error {
	for _, selector := range searchButtonSelectors {
		button := page.Locator(selector).First()
		visible, err := button.IsVisible()
		if err != nil || !visible {
			continue
		}
		err = button.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(1000)})
		if err != nil {
			slog.DebugContext(ctx, "search button click failed", "selector", selector, "err", err)
			continue
		}
		slog.InfoContext(ctx, "submitted search", "selector", selector)
		return nil
	}

	// no clickable button, submit the form directly
	_, err := page.Evaluate(`() => {
		const form = document.querySelector('form');
		if (form) {
			form.submit();
		}
	}`)
	if err != nil {
		return fmt.Errorf("could not click search nor submit the form: %w", err)
	}
	slog.InfoContext(ctx, "submitted search form via javascript")
	return nil
}
