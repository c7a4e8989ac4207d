package importer

import (
	"context"
	"fmt"
	"time"

	"kaoqin/internal/config"
	"kaoqin/internal/ics"
	appLog "kaoqin/internal/log"
	"kaoqin/internal/model"
)

// CourseSink receives aggregated course records. *store.Store satisfies it.
type CourseSink interface {
	UpsertCourses(courses []model.Course) (created, updated int, err error)
}

// Summary reports one import run.
type Summary struct {
	Sources       int `json:"sources"`
	Events        int `json:"events"`
	Occurrences   int `json:"occurrences"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	SkippedNoCode int `json:"skipped_no_code"`
}

// Service drives the full pipeline: fetch feeds, parse ICS, expand
// recurrences over the semester window, fold occurrences into course
// records and persist them.
type Service struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher *ics.Fetcher
	sink    CourseSink
}

func NewService(cfg *config.Config, loc *time.Location, fetcher *ics.Fetcher, sink CourseSink) *Service {
	return &Service{cfg: cfg, loc: loc, fetcher: fetcher, sink: sink}
}

// expandWindow is the semester span in the display timezone.
func (s *Service) expandWindow() (time.Time, time.Time) {
	start := s.cfg.SemesterAnchor(s.loc)
	end := start.AddDate(0, 0, s.cfg.MaxWeeks*7).Add(-time.Second)
	return start, end
}

// ImportBody runs parse, expand, aggregate and persist for one ICS payload.
// Used both by the refresh pipeline and the upload endpoint.
func (s *Service) ImportBody(body []byte, src ics.Source) (Summary, error) {
	var sum Summary

	events, err := ics.ParseICS(src, body)
	if err != nil {
		return sum, fmt.Errorf("importer: parse %s: %w", src.ID, err)
	}
	sum.Events = len(events)

	rangeStart, rangeEnd := s.expandWindow()
	expanded, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		DisplayLocation: s.loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return sum, fmt.Errorf("importer: expand %s: %w", src.ID, err)
	}
	sum.Occurrences = len(expanded.Occurrences)

	result := Aggregate(expanded.Occurrences, s.cfg.Semester)
	sum.SkippedNoCode = result.SkippedNoCode

	courses := make([]model.Course, 0, len(result.Records))
	for _, rec := range result.Records {
		courses = append(courses, rec.Course())
	}

	created, updated, err := s.sink.UpsertCourses(courses)
	if err != nil {
		return sum, fmt.Errorf("importer: store %s: %w", src.ID, err)
	}
	sum.Created = created
	sum.Updated = updated
	sum.Sources = 1

	appLog.Info("import done",
		"source", src.ID,
		"events", sum.Events,
		"occurrences", sum.Occurrences,
		"created", created,
		"updated", updated,
		"skipped_no_code", sum.SkippedNoCode)
	return sum, nil
}

// RefreshAll fetches every configured feed and imports each body. Individual
// feed failures are logged and skipped so one broken portal does not block
// the rest.
func (s *Service) RefreshAll(ctx context.Context) (Summary, error) {
	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, entry := range s.cfg.ICS {
		sources = append(sources, ics.Source{ID: entry.ID, URL: entry.URL})
	}
	if len(sources) == 0 {
		appLog.Info("refresh skipped, no ICS sources configured")
		return Summary{}, nil
	}

	results, errs := s.fetcher.FetchAll(ctx, sources)
	for _, err := range errs {
		appLog.Error("fetch feed", err)
	}

	var total Summary
	for _, res := range results {
		sum, err := s.ImportBody(res.Body, res.Source)
		if err != nil {
			appLog.Error("import feed", err, "source", res.Source.ID)
			continue
		}
		total.Sources += sum.Sources
		total.Events += sum.Events
		total.Occurrences += sum.Occurrences
		total.Created += sum.Created
		total.Updated += sum.Updated
		total.SkippedNoCode += sum.SkippedNoCode
	}

	if total.Sources == 0 && len(errs) > 0 {
		return total, fmt.Errorf("importer: all %d sources failed", len(sources))
	}
	return total, nil
}
