package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/museum-events/internal/extract"
)

// Selectors locate event fields on a listing page. Item selects one element
// per event; the other selectors are evaluated inside it.
type Selectors struct {
	Item        string `yaml:"item" json:"item"`
	Title       string `yaml:"title" json:"title"`
	Date        string `yaml:"date" json:"date"`
	Time        string `yaml:"time" json:"time"`
	Description string `yaml:"description" json:"description"`
	Location    string `yaml:"location" json:"location"`
	Link        string `yaml:"link" json:"link"`
}

// HTMLAdapter scrapes an event listing page. Schema.org JSON-LD events are
// preferred; CSS selectors are used when the page has none.
type HTMLAdapter struct {
	URL       string
	Selectors Selectors
	fetcher   *Fetcher
}

// NewHTMLAdapter creates an HTMLAdapter for pageURL
func NewHTMLAdapter(pageURL string, sel Selectors, f *Fetcher) *HTMLAdapter {
	return &HTMLAdapter{URL: pageURL, Selectors: sel, fetcher: f}
}

// Name returns the strategy name
func (a *HTMLAdapter) Name() string {
	return "html"
}

// FetchRawRecords fetches and parses the page
func (a *HTMLAdapter) FetchRawRecords(ctx context.Context) ([]extract.RawRecord, error) {
	body, err := a.fetcher.Get(ctx, a.URL)
	if err != nil {
		return nil, err
	}
	return ParseHTML(bytes.NewReader(body), a.URL, a.Selectors)
}

// ParseHTML extracts event records from an HTML document
func ParseHTML(r io.Reader, pageURL string, sel Selectors) ([]extract.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	records := jsonLDEvents(doc)
	if len(records) > 0 || sel.Item == "" {
		return records, nil
	}

	base, _ := url.Parse(pageURL)

	doc.Find(sel.Item).Each(func(i int, item *goquery.Selection) {
		title := selText(item, sel.Title)
		if title == "" {
			return
		}

		records = append(records, extract.RawRecord{
			"title":       title,
			"date":        selDate(item, sel.Date),
			"time":        selText(item, sel.Time),
			"description": selText(item, sel.Description),
			"location":    selText(item, sel.Location),
			"url":         selLink(item, sel.Link, base),
		})
	})

	return records, nil
}

// jsonLDEvents collects schema.org Event objects from ld+json blocks
func jsonLDEvents(doc *goquery.Document) []extract.RawRecord {
	records := make([]extract.RawRecord, 0)

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		collectLDEvents(data, &records)
	})

	return records
}

func collectLDEvents(v interface{}, out *[]extract.RawRecord) {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			collectLDEvents(item, out)
		}
	case map[string]interface{}:
		if graph, ok := t["@graph"]; ok {
			collectLDEvents(graph, out)
		}
		if isEventType(t["@type"]) {
			*out = append(*out, extract.RawRecord{
				"name":          ldString(t["name"]),
				"startDate":     ldString(t["startDate"]),
				"description":   ldString(t["description"]),
				"url":           ldString(t["url"]),
				"location.name": ldLocation(t["location"]),
			})
		}
	}
}

// isEventType matches Event and its subtypes such as ExhibitionEvent
func isEventType(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.HasSuffix(t, "Event")
	case []interface{}:
		for _, item := range t {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func ldString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func ldLocation(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		return ldString(t["name"])
	case []interface{}:
		if len(t) > 0 {
			return ldLocation(t[0])
		}
	}
	return ""
}

func selText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(item.Find(selector).First().Text()), " ")
}

// selDate prefers a machine-readable datetime attribute over the visible text
func selDate(item *goquery.Selection, selector string) string {
	var node *goquery.Selection
	if selector != "" {
		node = item.Find(selector).First()
		if dt := datetimeAttr(node); dt != "" {
			return dt
		}
		if dt := datetimeAttr(node.Find("time[datetime]").First()); dt != "" {
			return dt
		}
	}
	if dt := datetimeAttr(item.Find("time[datetime]").First()); dt != "" {
		return dt
	}
	if node == nil {
		return ""
	}
	return strings.Join(strings.Fields(node.Text()), " ")
}

func datetimeAttr(s *goquery.Selection) string {
	dt, _ := s.Attr("datetime")
	return strings.TrimSpace(dt)
}

func selLink(item *goquery.Selection, selector string, base *url.URL) string {
	node := item.Find("a[href]").First()
	if selector != "" {
		node = item.Find(selector).First()
	}
	href, ok := node.Attr("href")
	if !ok {
		// the item itself may be the link
		href, ok = item.Attr("href")
	}
	href = strings.TrimSpace(href)
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String()
}
