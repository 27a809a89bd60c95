package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"fleet-ledger/backend/internal/model"
)

// ── 出车记录 DTO ──

// DutyRequest 出车记录提交
// 字段校验在业务层统一收集，此处不做 binding 约束
type DutyRequest struct {
	DutyStartDate string       `json:"duty_start_date"`
	DutyStartTime string       `json:"duty_start_time"`
	DutyEndDate   string       `json:"duty_end_date"`
	DutyEndTime   string       `json:"duty_end_time"`
	DutyStartKm   *LooseNumber `json:"duty_start_km"`
	DutyEndKm     *LooseNumber `json:"duty_end_km"`
	DutyType      string       `json:"duty_type"`
	Notes         string       `json:"notes"`
}

// LooseNumber 里程读数：数字或数字字符串均可绑定
// 无法解析的值原样保留，由业务层与其他字段问题一并报告
type LooseNumber string

// Number 由数值构造 LooseNumber
func Number(v float64) *LooseNumber {
	n := LooseNumber(strconv.FormatFloat(v, 'f', -1, 64))
	return &n
}

func (n *LooseNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = LooseNumber(s)
		return nil
	}
	*n = LooseNumber(bytes.TrimSpace(b))
	return nil
}

// Float 解析为数值；空串视为未填写
func (n LooseNumber) Float() (v float64, present bool, err error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	return v, true, err
}

// DutyResponse 出车记录及展示字段
type DutyResponse struct {
	Duty              *model.DutyRecord `json:"duty"`
	TotalKm           float64           `json:"total_km"`
	TotalHours        float64           `json:"total_hours"`
	TotalDays         int               `json:"total_days"`
	FormattedDuration string            `json:"formatted_duration"`
	DateRange         string            `json:"date_range"`
	TimeRange         string            `json:"time_range"`
}

// DutyStatusResponse 出车记录是否存在
type DutyStatusResponse struct {
	Exists bool          `json:"exists"`
	Duty   *DutyResponse `json:"duty,omitempty"`
}
