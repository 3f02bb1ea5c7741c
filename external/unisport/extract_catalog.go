package unisport

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/unisportai/unisport-sync/internal/platform/logging"
	"github.com/unisportai/unisport-sync/internal/usecase"
)

const aggregateOfferPrefix = "alle freien Kursplätze"

// Accepted time-range spellings. The site mixes colons and dots between
// hours and minutes, but never dots on both sides.
var timeRangeRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`),
	regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2})\.(\d{2})`),
	regexp.MustCompile(`(\d{1,2})\.(\d{2})\s*-\s*(\d{1,2}):(\d{2})`),
}

// parseOffers extracts the offer index entries, skipping the aggregate
// free-slots link and deduplicating by resolved href.
func parseOffers(doc *goquery.Document, pageURL *url.URL) []usecase.ExternalOffer {
	var out []usecase.ExternalOffer
	seen := make(map[string]struct{})

	doc.Find("dl.bs_menu dd a").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" || strings.HasPrefix(name, aggregateOfferPrefix) {
			return
		}

		href, ok := a.Attr("href")
		if !ok {
			return
		}
		resolved := resolveHref(pageURL, href)
		if resolved == nil {
			return
		}

		link := resolved.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, usecase.ExternalOffer{Name: name, DetailLink: link})
	})
	return out
}

// parseOfferMetadata picks the offer's header image and the description
// paragraphs between the page title and the course table. Content above
// the title belongs to the site chrome, not the offer. Paragraphs are
// deduped with order kept and joined by blank lines.
func parseOfferMetadata(doc *goquery.Document, pageURL *url.URL) (*string, *string) {
	title := doc.Find("h1").First()
	if title.Length() == 0 {
		title = doc.Find("div.bs_head").First()
	}
	if title.Length() == 0 {
		return nil, nil
	}
	section := title.NextUntil("table")

	var imageURL *string
	section.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		imgs := sel.Find("img[src]")
		if sel.Is("img[src]") {
			imgs = sel
		}
		found := false
		imgs.EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, _ := img.Attr("src")
			lower := strings.ToLower(src)
			if src == "" || strings.Contains(lower, "logo") || strings.Contains(lower, "icon") {
				return true
			}
			found = true
			if resolved := resolveHref(pageURL, src); resolved != nil {
				value := resolved.String()
				imageURL = &value
			}
			return false
		})
		return !found
	})

	var parts []string
	seen := make(map[string]struct{})
	appendPart := func(p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}
	section.Each(func(_ int, sel *goquery.Selection) {
		if sel.Is("p") {
			appendPart(sel)
			return
		}
		sel.Find("p").Each(func(_ int, p *goquery.Selection) {
			appendPart(p)
		})
	})

	var description *string
	if len(parts) > 0 {
		value := strings.Join(parts, "\n\n")
		description = &value
	}
	return imageURL, description
}

// parseCourses extracts the offer page's course table. Rows without a
// course number are structural and skipped.
func parseCourses(doc *goquery.Document, pageURL *url.URL) []usecase.ExternalCourse {
	var out []usecase.ExternalCourse
	doc.Find("table.bs_kurse tr").Each(func(_ int, tr *goquery.Selection) {
		number := strings.TrimSpace(tr.Find("td.bs_sknr").First().Text())
		if number == "" {
			return
		}

		item := usecase.ExternalCourse{
			CourseNumber:   number,
			Details:        optionalText(tr.Find("td.bs_sdet").First()),
			Price:          optionalText(tr.Find("td.bs_spreis").First()),
			BookingStatus:  optionalText(tr.Find("td.bs_sbuch").First()),
			InstructorText: strings.TrimSpace(tr.Find("td.bs_skl").First().Text()),
		}
		if href, ok := tr.Find("td.bs_szr a[href]").First().Attr("href"); ok {
			if resolved := resolveHref(pageURL, href); resolved != nil {
				value := resolved.String()
				item.ScheduleHref = &value
			}
		}
		out = append(out, item)
	})
	return out
}

// parseCourseDates extracts the rows of a course's dates page. A row
// needs at least weekday, date, time range and location cells; rows with
// an unparsable date or time range are dropped and counted, never
// guessed at.
func parseCourseDates(ctx context.Context, doc *goquery.Document, logger *logging.Logger) usecase.ExternalCourseDatesPage {
	if logger == nil {
		logger = logging.NewNop()
	}

	var page usecase.ExternalCourseDatesPage
	doc.Find("table.bs_kurse tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 4 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(1).Text())
		day, err := time.Parse("02.01.2006", dateText)
		if err != nil {
			page.DroppedDates++
			logger.WarnContext(ctx, "course date unparsable, row dropped", "date", dateText)
			return
		}

		timeText := strings.TrimSpace(cells.Eq(2).Text())
		startHour, startMin, endHour, endMin, ok := parseTimeRange(timeText)
		if !ok {
			page.DroppedTimes++
			logger.WarnContext(ctx, "course time range unparsable, row dropped", "time_range", timeText)
			return
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, time.UTC)
		end := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, time.UTC)
		page.Dates = append(page.Dates, usecase.ExternalCourseDate{
			StartTime:    start,
			EndTime:      &end,
			LocationName: strings.TrimSpace(cells.Eq(3).Text()),
		})
	})
	return page
}

func parseTimeRange(raw string) (startHour, startMin, endHour, endMin int, ok bool) {
	for _, re := range timeRangeRegexes {
		groups := re.FindStringSubmatch(raw)
		if groups == nil {
			continue
		}
		sh, _ := strconv.Atoi(groups[1])
		sm, _ := strconv.Atoi(groups[2])
		eh, _ := strconv.Atoi(groups[3])
		em, _ := strconv.Atoi(groups[4])
		if sh > 23 || eh > 23 || sm > 59 || em > 59 {
			return 0, 0, 0, 0, false
		}
		return sh, sm, eh, em, true
	}
	return 0, 0, 0, 0, false
}

func optionalText(s *goquery.Selection) *string {
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return nil
	}
	return &text
}
