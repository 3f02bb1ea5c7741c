package usecase

import (
	"context"

	"github.com/unisportai/unisport-sync/internal/domain/location"
	"github.com/unisportai/unisport-sync/internal/platform/logging"
)

// MergeReport summarizes one location merge for the run audit record.
type MergeReport struct {
	Markers            int         `json:"markers"`
	DuplicateMarkers   int         `json:"duplicate_markers"`
	ExactMatches       int         `json:"exact_matches"`
	FuzzyMatches       []NameMatch `json:"fuzzy_matches"`
	SecondaryOnly      int         `json:"secondary_only"`
	MissingCoordinates int         `json:"missing_coordinates"`
	MissingSports      int         `json:"missing_sports"`
	MissingLinks       int         `json:"missing_links"`
}

// LocationMerger builds canonical locations from the three map-page
// sources. Markers lead; the two menu sources are reconciled onto them by
// name, and leftovers are emitted as partial entities afterwards.
type LocationMerger struct {
	matcher *NameMatcher
	logger  *logging.Logger
}

func NewLocationMerger(matcher *NameMatcher, logger *logging.Logger) *LocationMerger {
	if matcher == nil {
		matcher = NewNameMatcher(DefaultFuzzyThreshold, nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LocationMerger{matcher: matcher, logger: logger}
}

// Merge walks markers in source order with first-occurrence-wins dedupe,
// attaches sports and links from the menu sources, then sweeps unconsumed
// menu entries into partial locations. Unresolved fields stay nil.
func (m *LocationMerger) Merge(ctx context.Context, bundle ExternalLocationBundle) ([]location.Location, MergeReport) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LocationMerger.Merge")
	defer span.End()

	report := MergeReport{Markers: len(bundle.Markers)}

	sportsConsumed := make([]bool, len(bundle.MenuSports))
	linksConsumed := make([]bool, len(bundle.MenuLinks))
	byName := make(map[string]int)
	merged := make([]location.Location, 0, len(bundle.Markers))

	for _, marker := range bundle.Markers {
		if _, ok := byName[marker.Name]; ok {
			report.DuplicateMarkers++
			continue
		}

		lat := marker.Latitude
		lng := marker.Longitude
		loc := location.Location{
			Name:      marker.Name,
			Latitude:  &lat,
			Longitude: &lng,
		}

		if idx, match, ok := m.matchMenuSports(ctx, marker.Name, bundle.MenuSports, sportsConsumed); ok {
			sportsConsumed[idx] = true
			loc.Sports = bundle.MenuSports[idx].Sports
			report.count(match)
		}
		if idx, match, ok := m.matchMenuLinks(ctx, marker.Name, bundle.MenuLinks, linksConsumed); ok {
			linksConsumed[idx] = true
			link := bundle.MenuLinks[idx]
			if link.DetailLink != "" {
				detailLink := link.DetailLink
				loc.DetailLink = &detailLink
			}
			loc.InternalID = link.InternalID
			report.count(match)
		}

		byName[marker.Name] = len(merged)
		merged = append(merged, loc)
	}

	for idx, entry := range bundle.MenuSports {
		if sportsConsumed[idx] {
			continue
		}
		if _, ok := byName[entry.Name]; ok {
			continue
		}
		byName[entry.Name] = len(merged)
		merged = append(merged, location.Location{Name: entry.Name, Sports: entry.Sports})
		report.SecondaryOnly++
	}

	for idx, entry := range bundle.MenuLinks {
		if linksConsumed[idx] {
			continue
		}
		link := entry
		if pos, ok := byName[link.Name]; ok {
			if merged[pos].DetailLink == nil && link.DetailLink != "" {
				detailLink := link.DetailLink
				merged[pos].DetailLink = &detailLink
				merged[pos].InternalID = link.InternalID
			}
			continue
		}

		loc := location.Location{Name: link.Name, InternalID: link.InternalID}
		if link.DetailLink != "" {
			detailLink := link.DetailLink
			loc.DetailLink = &detailLink
		}
		byName[link.Name] = len(merged)
		merged = append(merged, loc)
		report.SecondaryOnly++
	}

	for _, loc := range merged {
		if !loc.HasCoordinates() {
			report.MissingCoordinates++
		}
		if len(loc.Sports) == 0 {
			report.MissingSports++
		}
		if loc.DetailLink == nil {
			report.MissingLinks++
		}
	}

	m.logger.InfoContext(ctx, "location merge finished",
		"locations", len(merged),
		"exact_matches", report.ExactMatches,
		"fuzzy_matches", len(report.FuzzyMatches),
		"secondary_only", report.SecondaryOnly,
	)
	return merged, report
}

func (m *LocationMerger) matchMenuSports(ctx context.Context, target string, entries []ExternalMenuSports, consumed []bool) (int, NameMatch, bool) {
	candidates := make([]string, 0, len(entries))
	for idx, entry := range entries {
		if consumed[idx] {
			continue
		}
		candidates = append(candidates, entry.Name)
	}

	match, ok := m.matcher.Match(ctx, target, candidates)
	if !ok {
		return 0, NameMatch{}, false
	}
	for idx, entry := range entries {
		if !consumed[idx] && entry.Name == match.Matched {
			return idx, match, true
		}
	}
	return 0, NameMatch{}, false
}

func (m *LocationMerger) matchMenuLinks(ctx context.Context, target string, entries []ExternalMenuLink, consumed []bool) (int, NameMatch, bool) {
	candidates := make([]string, 0, len(entries))
	for idx, entry := range entries {
		if consumed[idx] {
			continue
		}
		candidates = append(candidates, entry.Name)
	}

	match, ok := m.matcher.Match(ctx, target, candidates)
	if !ok {
		return 0, NameMatch{}, false
	}
	for idx, entry := range entries {
		if !consumed[idx] && entry.Name == match.Matched {
			return idx, match, true
		}
	}
	return 0, NameMatch{}, false
}

func (r *MergeReport) count(match NameMatch) {
	if match.Fuzzy {
		r.FuzzyMatches = append(r.FuzzyMatches, match)
		return
	}
	r.ExactMatches++
}
