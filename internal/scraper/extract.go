package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"feedmill/internal/models"
)

// Item is one candidate entry found on a listing page.
type Item struct {
	Title       string
	Link        string
	Description string
}

// ExtractItems parses a listing page and returns candidate items.
// It prefers <article> blocks; when a page has none it falls back to
// heading anchors. Relative links are resolved against baseURL and
// duplicates (same resolved link) are dropped, first occurrence wins.
func ExtractItems(html, baseURL string) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	var items []Item

	doc.Find("article").Each(func(_ int, art *goquery.Selection) {
		a := art.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}

		title := cleanText(a.Text())
		if title == "" {
			title, _ = a.Attr("title")
			title = cleanText(title)
		}

		href, _ := a.Attr("href")

		link := resolve(base, href)
		if title == "" || link == "" {
			return
		}

		items = append(items, Item{
			Title:       title,
			Link:        link,
			Description: cleanText(art.Find("p").First().Text()),
		})
	})

	// Fallback for pages that don't use <article>: heading anchors.
	if len(items) == 0 {
		doc.Find("h1 a[href], h2 a[href], h3 a[href]").Each(func(_ int, a *goquery.Selection) {
			title := cleanText(a.Text())

			href, _ := a.Attr("href")

			link := resolve(base, href)
			if title == "" || link == "" {
				return
			}

			desc := cleanText(a.Closest("h1,h2,h3").NextFiltered("p").Text())

			items = append(items, Item{Title: title, Link: link, Description: desc})
		})
	}

	return dedupByLink(items), nil
}

// Scrape fetches a source's listing page and converts what it finds
// into records for the source's feed group. All scraped records share
// the supplied publication time since listing pages rarely expose
// reliable dates.
func (c *Client) Scrape(src models.Source, maxItems int, published time.Time) ([]models.Record, error) {
	html, err := c.Fetch(src.URL)
	if err != nil {
		return nil, err
	}

	items, err := ExtractItems(html, src.URL)
	if err != nil {
		return nil, err
	}

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	records := make([]models.Record, 0, len(items))
	for _, it := range items {
		records = append(records, models.Record{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			Published:   published,
			Group:       src.Name,
			Row:         src.Row,
		})
	}

	return records, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupByLink(items []Item) []Item {
	seen := make(map[string]bool, len(items))

	var out []Item

	for _, it := range items {
		if seen[it.Link] {
			continue
		}

		seen[it.Link] = true

		out = append(out, it)
	}

	return out
}
