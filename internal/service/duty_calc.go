package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
)

const (
	dutyDateLayout = "2006-01-02"
	dutyTimeLayout = "15:04"
)

// dutyTotals 出车记录派生合计
type dutyTotals struct {
	Km    float64
	Hours float64
	Days  int
}

// parsedDuty 校验通过后的出车字段
type parsedDuty struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime string
	EndTime   string
	StartKm   float64
	EndKm     float64
	DutyType  string
}

// parseDutyRequest 校验并解析出车字段，收集全部问题
func parseDutyRequest(req *dto.DutyRequest) (*parsedDuty, error) {
	var problems []string
	out := &parsedDuty{
		StartTime: strings.TrimSpace(req.DutyStartTime),
		EndTime:   strings.TrimSpace(req.DutyEndTime),
		DutyType:  strings.TrimSpace(req.DutyType),
	}

	parseDate := func(field, v string) time.Time {
		v = strings.TrimSpace(v)
		if v == "" {
			problems = append(problems, field+" is required")
			return time.Time{}
		}
		t, err := time.Parse(dutyDateLayout, v)
		if err != nil {
			problems = append(problems, field+" must be YYYY-MM-DD")
		}
		return t
	}
	parseClock := func(field, v string) {
		if v == "" {
			problems = append(problems, field+" is required")
			return
		}
		if _, err := time.Parse(dutyTimeLayout, v); err != nil || len(v) != 5 {
			problems = append(problems, field+" must be HH:MM")
		}
	}

	out.StartDate = parseDate("dutyStartDate", req.DutyStartDate)
	out.EndDate = parseDate("dutyEndDate", req.DutyEndDate)
	parseClock("dutyStartTime", out.StartTime)
	parseClock("dutyEndTime", out.EndTime)

	parseKm := func(field string, n *dto.LooseNumber) (float64, bool) {
		if n == nil {
			problems = append(problems, field+" is required")
			return 0, false
		}
		v, present, err := n.Float()
		switch {
		case !present:
			problems = append(problems, field+" is required")
		case err != nil:
			problems = append(problems, field+" must be a number")
		case v < 0:
			problems = append(problems, field+" must be >= 0")
		default:
			return v, true
		}
		return 0, false
	}

	startKm, startOK := parseKm("dutyStartKm", req.DutyStartKm)
	endKm, endOK := parseKm("dutyEndKm", req.DutyEndKm)
	if startOK && endOK {
		out.StartKm, out.EndKm = startKm, endKm
		if out.EndKm < out.StartKm {
			problems = append(problems, "dutyEndKm must be >= dutyStartKm")
		}
	}

	if out.DutyType == "" {
		problems = append(problems, "dutyType is required")
	}

	if err := newValidationError(problems); err != nil {
		return nil, err
	}
	return out, nil
}

// computeDutyTotals 派生总里程、总时长、总天数
func computeDutyTotals(d *parsedDuty) dutyTotals {
	totals := dutyTotals{Km: d.EndKm - d.StartKm}

	daysDiff := d.EndDate.Sub(d.StartDate).Hours() / 24
	totals.Days = int(math.Ceil(daysDiff)) + 1
	if totals.Days < 1 {
		totals.Days = 1
	}

	start := combineDateClock(d.StartDate, d.StartTime)
	end := combineDateClock(d.EndDate, d.EndTime)
	// 同一天且结束不晚于开始，视为跨零点
	if !end.After(start) && d.StartDate.Equal(d.EndDate) {
		end = end.Add(24 * time.Hour)
	}
	totals.Hours = round2f(end.Sub(start).Hours())
	if totals.Hours <= 0 {
		totals.Hours = 1
	}
	return totals
}

func combineDateClock(date time.Time, clock string) time.Time {
	c, err := time.Parse(dutyTimeLayout, clock)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC)
}

func round2f(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatDuration 9.5 → "9h 30m"
func formatDuration(hours float64) string {
	h := int(math.Floor(hours))
	m := int(math.Round((hours - float64(h)) * 60))
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func formatDateRange(start, end time.Time) string {
	s, e := start.Format(dutyDateLayout), end.Format(dutyDateLayout)
	if s == e {
		return s
	}
	return s + " to " + e
}

func toDutyResponse(record *model.DutyRecord) *dto.DutyResponse {
	return &dto.DutyResponse{
		Duty:              record,
		TotalKm:           record.TotalKm,
		TotalHours:        record.TotalHours,
		TotalDays:         record.TotalDays,
		FormattedDuration: formatDuration(record.TotalHours),
		DateRange:         formatDateRange(record.DutyStartDate, record.DutyEndDate),
		TimeRange:         record.DutyStartTime + " - " + record.DutyEndTime,
	}
}
