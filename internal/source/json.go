package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/museum-events/internal/extract"
)

// listKeys hold the event list in wrapped responses (Tribe Events, generic APIs)
var listKeys = []string{"events", "data", "items", "results"}

// JSONAdapter reads events from a JSON endpoint such as the WordPress REST API
// or The Events Calendar
type JSONAdapter struct {
	URL     string
	fetcher *Fetcher
}

// NewJSONAdapter creates a JSONAdapter for endpoint
func NewJSONAdapter(endpoint string, f *Fetcher) *JSONAdapter {
	return &JSONAdapter{URL: endpoint, fetcher: f}
}

// Name returns the strategy name
func (a *JSONAdapter) Name() string {
	return "json"
}

// FetchRawRecords fetches and flattens the endpoint's items
func (a *JSONAdapter) FetchRawRecords(ctx context.Context) ([]extract.RawRecord, error) {
	body, err := a.fetcher.Get(ctx, a.URL)
	if err != nil {
		return nil, err
	}
	return ParseJSON(body)
}

// ParseJSON accepts a top-level array of items or an object wrapping one under
// a known key. Each item is flattened to dotted keys (title.rendered,
// venue.venue); HTML is stripped from rendered and description fields.
func ParseJSON(data []byte) ([]extract.RawRecord, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	items, ok := doc.([]interface{})
	if !ok {
		obj, isObj := doc.(map[string]interface{})
		if !isObj {
			return nil, fmt.Errorf("parsing JSON: unexpected top-level %T", doc)
		}
		for _, k := range listKeys {
			if list, ok := obj[k].([]interface{}); ok {
				items = list
				break
			}
		}
	}

	records := make([]extract.RawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		row := make(extract.RawRecord)
		flatten("", obj, row)
		records = append(records, row)
	}

	return records, nil
}

func flatten(prefix string, v interface{}, out extract.RawRecord) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, child := range t {
			if s, ok := scalar(child); ok && s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			out[prefix] = strings.Join(parts, ", ")
		}
	default:
		s, ok := scalar(t)
		if !ok {
			return
		}
		if isMarkupKey(prefix) {
			s = stripHTML(s)
		}
		out[prefix] = s
	}
}

// isMarkupKey reports whether a flattened key usually carries HTML
func isMarkupKey(key string) bool {
	if strings.HasSuffix(key, ".rendered") {
		return true
	}
	last := key[strings.LastIndex(key, ".")+1:]
	return last == "description" || last == "excerpt" || last == "content"
}

func scalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") && !strings.Contains(s, "&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
