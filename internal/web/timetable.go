package web

import (
	"fmt"
	"html/template"
	"net/http"

	appLog "kaoqin/internal/log"
	"kaoqin/internal/schedule"
	"kaoqin/internal/timetable"
)

// timetableResponse is the JSON response shape for /api/timetable.
type timetableResponse struct {
	Week      int    `json:"week"`
	MaxWeeks  int    `json:"max_weeks"`
	WeekLabel string `json:"week_label"`
	Semester  string `json:"semester"`
	DateRange string `json:"date_range"`
	// InSession is false when today falls outside the semester span; the
	// served week then defaults to 1.
	InSession  bool                             `json:"in_session"`
	DayHeaders []string                         `json:"day_headers"`
	Slots      []slotDTO                        `json:"slots"`
	Cells      map[string][]timetable.Placement `json:"cells"`
	Unparsed   []string                         `json:"unparsed,omitempty"`
}

type slotDTO struct {
	Index       int    `json:"index"`
	Label       string `json:"label"`
	TimeDisplay string `json:"time_display"`
}

// resolveWeek picks the week to display: explicit ?week= wins, otherwise
// the current semester week, otherwise week 1.
func (s *Server) resolveWeek(r *http.Request) (week int, inSession bool) {
	inSession = true
	week, ok := s.calendar.CurrentWeek()
	if !ok {
		week = 1
		inSession = false
	}
	if q := r.URL.Query().Get("week"); q != "" {
		if n := parseIntDefault(q, week); n >= 1 && n <= s.calendar.MaxWeeks() {
			week = n
		}
	}
	return week, inSession
}

func (s *Server) buildTimetable(r *http.Request) (timetableResponse, error) {
	week, inSession := s.resolveWeek(r)
	semesterFilter := r.URL.Query().Get("semester")

	courses, err := s.store.AllCourses(semesterFilter)
	if err != nil {
		return timetableResponse{}, err
	}

	grid, unparsed := s.builder.Build(week, courses)
	if len(unparsed) > 0 {
		appLog.Info("courses with unparseable schedule text", "week", week, "course_ids", fmt.Sprint(unparsed))
	}

	monday, sunday := s.calendar.WeekDateRange(week)

	slots := make([]slotDTO, 0, len(s.builder.Slots()))
	for _, slot := range s.builder.Slots() {
		slots = append(slots, slotDTO{Index: slot.Index, Label: slot.Label, TimeDisplay: slot.TimeDisplay})
	}

	cells := make(map[string][]timetable.Placement, len(grid))
	for key, placements := range grid {
		cells[fmt.Sprintf("%d-%d", key.Weekday, key.Slot)] = placements
	}

	return timetableResponse{
		Week:       week,
		MaxWeeks:   s.calendar.MaxWeeks(),
		WeekLabel:  fmt.Sprintf("第%d周", week),
		Semester:   s.cfg.Semester,
		DateRange:  monday.Format("2006-01-02") + " ~ " + sunday.Format("2006-01-02"),
		InSession:  inSession,
		DayHeaders: schedule.DayHeaders[:],
		Slots:      slots,
		Cells:      cells,
		Unparsed:   unparsed,
	}, nil
}

// handleTimetable returns the weekly grid as JSON.
//
// GET /api/timetable?week=7&semester=2025-2026学年第一学期
func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request) {
	resp, err := s.buildTimetable(r)
	if err != nil {
		appLog.Error("timetable build failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build timetable")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// pageRow is one display row of the rendered HTML grid.
type pageRow struct {
	Slot  slotDTO
	Cells [7][]timetable.Placement
}

type pageData struct {
	Resp timetableResponse
	Rows []pageRow
	Prev int
	Next int
}

// handleTimetablePage renders the server-side HTML grid. The root element
// carries data-ready="true" once rendered, which the headless snapshot
// capture waits for.
func (s *Server) handleTimetablePage(w http.ResponseWriter, r *http.Request) {
	resp, err := s.buildTimetable(r)
	if err != nil {
		appLog.Error("timetable page build failed", err)
		http.Error(w, "failed to build timetable", http.StatusInternalServerError)
		return
	}

	rows := make([]pageRow, 0, len(resp.Slots))
	for _, slot := range resp.Slots {
		row := pageRow{Slot: slot}
		for day := 0; day < 7; day++ {
			row.Cells[day] = resp.Cells[fmt.Sprintf("%d-%d", day, slot.Index)]
		}
		rows = append(rows, row)
	}

	data := pageData{Resp: resp, Rows: rows, Prev: resp.Week - 1, Next: resp.Week + 1}
	if data.Prev < 1 {
		data.Prev = 1
	}
	if data.Next > resp.MaxWeeks {
		data.Next = resp.MaxWeeks
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := timetableTmpl.Execute(w, data); err != nil {
		appLog.Error("timetable template render failed", err)
	}
}

var timetableTmpl = template.Must(template.New("timetable").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>{{.Resp.Semester}} {{.Resp.WeekLabel}}</title>
<style>
  body { font-family: "PingFang SC", "Microsoft YaHei", sans-serif; margin: 16px; }
  h1 { font-size: 20px; margin: 0 0 4px; }
  .meta { color: #666; margin-bottom: 12px; }
  .nav a { margin-right: 12px; }
  table { border-collapse: collapse; width: 100%; table-layout: fixed; }
  th, td { border: 1px solid #ccc; padding: 4px; vertical-align: top; }
  th { background: #f5f5f5; }
  td.slot { width: 90px; background: #fafafa; text-align: center; }
  .slot-time { color: #888; font-size: 11px; }
  .course { border-radius: 4px; padding: 4px; margin-bottom: 4px; font-size: 12px; }
  .course .cname { font-weight: bold; }
  .course .detail { color: #444; font-size: 11px; }
</style>
</head>
<body>
<div data-ready="true">
  <h1>{{.Resp.Semester}} · {{.Resp.WeekLabel}}</h1>
  <div class="meta">{{.Resp.DateRange}}{{if not .Resp.InSession}}（当前不在学期内）{{end}}</div>
  <div class="nav">
    <a href="/timetable?week={{.Prev}}">上一周</a>
    <a href="/timetable?week={{.Next}}">下一周</a>
  </div>
  <table>
    <tr>
      <th>节次</th>
      {{range .Resp.DayHeaders}}<th>{{.}}</th>{{end}}
    </tr>
    {{range .Rows}}
    <tr>
      <td class="slot">{{.Slot.Label}}<div class="slot-time">{{.Slot.TimeDisplay}}</div></td>
      {{range $day := .Cells}}
      <td>
        {{range $day}}
        <div class="course" style="background: {{.ColorBG}}">
          <div class="cname">{{.Name}}</div>
          <div class="detail">{{.Teacher}} {{.Place}}</div>
          <div class="detail">{{.RawTime}} · {{.WeekRange}}</div>
        </div>
        {{end}}
      </td>
      {{end}}
    </tr>
    {{end}}
  </table>
</div>
</body>
</html>
`))
