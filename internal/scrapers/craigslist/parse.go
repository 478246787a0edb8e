package craigslist

import (
	"bytes"
	"encoding/json"
	"net/url"
	"partsfinder-backend/pkg/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// row is one search result as it appears in the page markup.
type row struct {
	Title    string
	Href     string
	Price    string
	Location string
	Image    string
}

func parseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// parseResultsPage reads every static search result row, hrefs are resolved against
// origin. Rows with neither a title nor a link are skipped.
func parseResultsPage(doc *goquery.Document, origin string) []row {
	base, _ := url.Parse(origin)

	var rows []row
	doc.Find("li.cl-static-search-result").Each(func(_ int, item *goquery.Selection) {
		title := textutil.CleanText(item.Find(".title").First().Text())
		if title == "" {
			title = textutil.CleanText(item.AttrOr("title", ""))
		}

		href := strings.TrimSpace(item.Find("a").First().AttrOr("href", ""))
		if href != "" && base != nil {
			resolved, err := base.Parse(href)
			if err == nil {
				href = resolved.String()
			}
		}

		if title == "" && href == "" {
			return
		}

		image, _ := item.Find("img").First().Attr("src")

		rows = append(rows, row{
			Title:    title,
			Href:     href,
			Price:    textutil.CleanText(item.Find(".price").First().Text()),
			Location: textutil.CleanText(item.Find(".location").First().Text()),
			Image:    strings.TrimSpace(image),
		})
	})
	return rows
}

// structuredEntry is one item of the JSON-LD result list.
type structuredEntry struct {
	Name     string
	Image    string
	Price    string
	Location string
}

type ldAddress struct {
	Locality string `json:"addressLocality"`
	Region   string `json:"addressRegion"`
}

type ldItem struct {
	Name   string          `json:"name"`
	Image  json.RawMessage `json:"image"`
	Offers struct {
		Price             json.RawMessage `json:"price"`
		AvailableAtOrFrom struct {
			Address ldAddress `json:"address"`
		} `json:"availableAtOrFrom"`
	} `json:"offers"`
}

type ldResults struct {
	ItemListElement []struct {
		Item ldItem `json:"item"`
	} `json:"itemListElement"`
}

// firstString accepts either a JSON string or an array whose first element is a string.
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return single
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	var number json.Number
	if json.Unmarshal(raw, &number) == nil {
		return number.String()
	}
	return ""
}

// parseStructuredData decodes the embedded JSON-LD block, a missing or malformed
// block yields no entries.
func parseStructuredData(doc *goquery.Document) []structuredEntry {
	script := doc.Find("script#ld_searchpage_results").First()
	if script.Length() == 0 {
		return nil
	}

	var results ldResults
	err := json.Unmarshal([]byte(script.Text()), &results)
	if err != nil {
		return nil
	}

	entries := make([]structuredEntry, 0, len(results.ItemListElement))
	for _, element := range results.ItemListElement {
		item := element.Item
		address := item.Offers.AvailableAtOrFrom.Address

		var location []string
		if address.Locality != "" {
			location = append(location, address.Locality)
		}
		if address.Region != "" {
			location = append(location, address.Region)
		}

		entries = append(entries, structuredEntry{
			Name:     strings.TrimSpace(item.Name),
			Image:    firstString(item.Image),
			Price:    firstString(item.Offers.Price),
			Location: strings.Join(location, ", "),
		})
	}
	return entries
}

const titleSimilarityThreshold = 0.95

// enrich fills in the image, price and location of rows from the structured entry
// with the closest title. Values already present on a row are kept.
func enrich(rows []row, entries []structuredEntry) {
	if len(entries) == 0 {
		return
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	for i := range rows {
		r := &rows[i]
		if r.Title == "" {
			continue
		}
		match := textutil.BestMatch(r.Title, names, titleSimilarityThreshold)
		if match.Index < 0 {
			continue
		}
		entry := entries[match.Index]

		if r.Image == "" {
			r.Image = entry.Image
		}
		if r.Price == "" && entry.Price != "" {
			cents, ok := parseAmountCents(entry.Price)
			if ok {
				r.Price = formatDollars(cents)
			}
		}
		if r.Location == "" {
			r.Location = entry.Location
		}
	}
}
