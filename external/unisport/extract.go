package unisport

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/unisportai/unisport-sync/internal/usecase"
)

var markersArrayRegex = regexp.MustCompile(`(?s)var\s+markers\s*=\s*\[(.*?)\];`)
var markerEntryRegex = regexp.MustCompile(`(?s)\[(.*?)\]`)

// parseMarkers scans the raw page source for the inline JS marker array
// and returns its entries plus the count of records dropped for
// unparsable coordinates. A page without the array yields no markers.
func parseMarkers(html string) ([]usecase.ExternalMarker, int) {
	groups := markersArrayRegex.FindStringSubmatch(html)
	if groups == nil {
		return nil, 0
	}

	dropped := 0
	var markers []usecase.ExternalMarker
	for _, entry := range markerEntryRegex.FindAllStringSubmatch(groups[1], -1) {
		fields := splitQuoteAware(entry[1])
		if len(fields) < 3 {
			dropped++
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if latErr != nil || lngErr != nil {
			dropped++
			continue
		}

		name := strings.TrimSpace(strings.Trim(strings.TrimSpace(fields[2]), `"'`))
		if name == "" {
			dropped++
			continue
		}

		markers = append(markers, usecase.ExternalMarker{
			Name:      name,
			Latitude:  lat,
			Longitude: lng,
		})
	}
	return markers, dropped
}

// splitQuoteAware splits on commas outside quoted segments so marker
// names containing commas survive.
func splitQuoteAware(raw string) []string {
	var fields []string
	var buf strings.Builder
	inQuote := false
	var quote rune

	for _, r := range raw {
		switch {
		case inQuote:
			buf.WriteRune(r)
			if r == quote {
				inQuote = false
			}
		case r == '"' || r == '\'':
			inQuote = true
			quote = r
			buf.WriteRune(r)
		case r == ',':
			fields = append(fields, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	if buf.Len() > 0 || len(fields) > 0 {
		fields = append(fields, buf.String())
	}
	return fields
}

// parseMenuSports walks the filter menu's top-level entries and collects
// the sport names nested under each. A sport name equal to the entry name
// is the menu's self-reference and is filtered out.
func parseMenuSports(doc *goquery.Document) []usecase.ExternalMenuSports {
	var out []usecase.ExternalMenuSports
	doc.Find("div.bs_flmenu > ul").First().ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		name := strings.TrimSpace(li.Find("span.bs_spname").First().Text())
		if name == "" {
			return
		}

		var sports []string
		li.Find("ul > li > a").Each(func(_ int, a *goquery.Selection) {
			sport := strings.TrimSpace(a.Text())
			if sport == "" || sport == name {
				return
			}
			sports = append(sports, sport)
		})

		out = append(out, usecase.ExternalMenuSports{Name: name, Sports: sports})
	})
	return out
}

// parseMenuLinks walks the same menu and takes each entry's first anchor,
// resolved against the base URL, with the spid query parameter as the
// site-internal location id.
func parseMenuLinks(doc *goquery.Document, base *url.URL) []usecase.ExternalMenuLink {
	var out []usecase.ExternalMenuLink
	doc.Find("div.bs_flmenu > ul").First().ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		name := strings.TrimSpace(li.Find("span.bs_spname").First().Text())
		if name == "" {
			return
		}

		entry := usecase.ExternalMenuLink{Name: name}
		if href, ok := li.Find("a[href]").First().Attr("href"); ok {
			if resolved := resolveHref(base, href); resolved != nil {
				entry.DetailLink = resolved.String()
				if spid := resolved.Query().Get("spid"); spid != "" {
					entry.InternalID = &spid
				}
			}
		}
		out = append(out, entry)
	})
	return out
}

func resolveHref(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(ref)
}
