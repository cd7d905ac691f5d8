package calendar

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"sigmapips/internal/domain/models"
	xhttp "sigmapips/pkg/http"
	"sigmapips/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

const defaultCalendarURL = "https://www.forexfactory.com/calendar"

// Event is one scheduled economic release.
type Event struct {
	Time     string
	Currency string
	Impact   string // "high", "medium", "low"
	Title    string
}

// ScraperOption configures Scraper.
type ScraperOption func(*Scraper)

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ScraperOption {
	return func(s *Scraper) {
		s.timeout = d
	}
}

// Scraper pulls today's economic calendar from ForexFactory and filters it
// to the currencies behind an instrument. Implements
// service.EconomicCalendar.
type Scraper struct {
	logger  *logger.Logger
	client  *xhttp.Client
	baseURL string
	timeout time.Duration
}

// NewScraper creates a calendar scraper.
func NewScraper(lgr *logger.Logger, baseURL string, opts ...ScraperOption) *Scraper {
	if baseURL == "" {
		baseURL = defaultCalendarURL
	}

	s := &Scraper{
		logger:  lgr,
		baseURL: baseURL,
		timeout: 15 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.client = xhttp.NewClient(xhttp.WithTimeout(s.timeout))
	return s
}

// Upcoming returns formatted calendar text for the instrument's currencies.
func (s *Scraper) Upcoming(ctx context.Context, instrument string) (string, error) {
	var page []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL,
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (compatible; sigmapips/1.0)",
		},
	}, &page)
	if err != nil {
		return "", &models.EnrichmentUnavailable{Source: "calendar", Err: err}
	}

	events, err := parseCalendarHTML(page, currenciesFor(instrument))
	if err != nil {
		return "", &models.EnrichmentUnavailable{Source: "calendar", Err: err}
	}

	return formatEvents(instrument, events), nil
}

// parseCalendarHTML extracts calendar rows, keeping only the requested
// currencies. An empty currency filter keeps everything.
func parseCalendarHTML(page []byte, currencies []string) ([]Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse calendar html: %w", err)
	}

	keep := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		keep[c] = true
	}

	var events []Event
	lastTime := ""
	doc.Find("tr.calendar__row").Each(func(_ int, row *goquery.Selection) {
		title := strings.TrimSpace(row.Find(".calendar__event").Text())
		if title == "" {
			return
		}

		// time cells are omitted for subsequent events in the same slot
		if t := strings.TrimSpace(row.Find(".calendar__time").Text()); t != "" {
			lastTime = t
		}

		currency := strings.TrimSpace(row.Find(".calendar__currency").Text())
		if len(keep) > 0 && !keep[currency] {
			return
		}

		events = append(events, Event{
			Time:     lastTime,
			Currency: currency,
			Impact:   impactOf(row),
			Title:    title,
		})
	})

	return events, nil
}

func impactOf(row *goquery.Selection) string {
	span := row.Find(".calendar__impact span").First()
	class, _ := span.Attr("class")
	switch {
	case strings.Contains(class, "icon--ff-impact-red"):
		return "high"
	case strings.Contains(class, "icon--ff-impact-ora"):
		return "medium"
	case strings.Contains(class, "icon--ff-impact-yel"):
		return "low"
	default:
		return "low"
	}
}

func formatEvents(instrument string, events []Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Economic Calendar for %s\n", instrument)

	if len(events) == 0 {
		b.WriteString("\nNo scheduled events today.")
		return b.String()
	}

	for _, e := range events {
		fmt.Fprintf(&b, "\n%s %s %s - %s", impactEmoji(e.Impact), e.Time, e.Currency, e.Title)
	}
	return b.String()
}

func impactEmoji(impact string) string {
	switch impact {
	case "high":
		return "🔴"
	case "medium":
		return "🟠"
	default:
		return "🟡"
	}
}

// non-pair symbols map onto their quote economy
var instrumentCurrencies = map[string][]string{
	"NATGAS": {"USD"},
	"WTIUSD": {"USD"},
	"SPX500": {"USD"},
	"NAS100": {"USD"},
	"US30":   {"USD"},
	"GER40":  {"EUR"},
	"UK100":  {"GBP"},
}

// currenciesFor resolves the currencies whose events matter for an
// instrument. Six-letter pairs split into base and quote.
func currenciesFor(instrument string) []string {
	if cs, ok := instrumentCurrencies[instrument]; ok {
		return cs
	}
	if len(instrument) == 6 {
		return []string{instrument[:3], instrument[3:]}
	}
	return nil
}
