package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

const maxImportRows = 5000

// 导入表中的关键列
const (
	ColumnDutyID     = "Duty Id"
	ColumnDriverCode = "Driver Code"
)

var (
	ErrUnsupportedFile   = errors.New("仅支持 .xlsx 与 .csv 文件")
	ErrImportNoData      = errors.New("导入文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrInvalidStatus     = errors.New("订单状态只能为 0 或 1")
	ErrDriverInactive    = errors.New("司机已停用")
)

// dateColumns 导入时统一为 DD-MM-YYYY 的列
var dateColumns = map[string]bool{
	"Start Date":           true,
	"End Date":             true,
	"Actual Start Date":    true,
	"Allotment Date":       true,
	"Dispatched Date":      true,
	"Cancelled On":         true,
	"Duty Slip Entry Date": true,
	"Duty created at":      true,
}

// IngestRow 导入文件解析后的单行（Row 为表格中的行号）
type IngestRow struct {
	Row    int
	Fields model.DataPairs
}

// BookingService 订单业务接口
type BookingService interface {
	ParseUploadFile(filename string, reader io.Reader) ([]IngestRow, error)
	IngestRows(ctx context.Context, actor Actor, rows []IngestRow) (*dto.ImportBookingResponse, error)

	ListBookings(ctx context.Context, req *dto.BookingListRequest) ([]model.Booking, int64, error)
	GetBooking(ctx context.Context, bookingID string) (*dto.BookingDetailResponse, error)
	AssignDriver(ctx context.Context, actor Actor, bookingID string, driverID *string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, actor Actor, bookingID string, status int) (*model.Booking, error)
	ListDriverBookings(ctx context.Context, driverID string, page *dto.PaginationRequest) ([]model.Booking, int64, error)
}

type bookingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, logger: logger}
}

// ────────────────────── ParseUploadFile ──────────────────────

// ParseUploadFile 解析导入文件，保留列序；全空行保留，由 IngestRows 计为 skipped
func (s *bookingService) ParseUploadFile(filename string, reader io.Reader) ([]IngestRow, error) {
	var table [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		table, err = readXLSX(reader)
	case ".csv":
		table, err = readCSV(reader)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, err
	}
	if len(table) < 2 {
		return nil, ErrImportNoData
	}
	if len(table)-1 > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]IngestRow, 0, len(table)-1)
	for i := 1; i < len(table); i++ {
		record := table[i]
		item := IngestRow{Row: i + 1}
		for col, key := range header {
			if key == "" {
				continue
			}
			value := ""
			if col < len(record) {
				value = strings.TrimSpace(record[col])
			}
			item.Fields = append(item.Fields, model.DataPair{Key: key, Value: value})
		}
		rows = append(rows, item)
	}
	return rows, nil
}

// readXLSX 读取首个工作表；RawCellValue 使日期单元格以序列号返回
func readXLSX(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法解析Excel文件: %v", ErrInvalidFormat, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	return rows, nil
}

func readCSV(reader io.Reader) ([][]string, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: 无法解析CSV文件: %v", ErrInvalidFormat, err)
	}
	return rows, nil
}

// ────────────────────── 日期归一化 ──────────────────────

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeDate 将表格日期统一为 DD-MM-YYYY
// 支持 Excel 序列号、time.Time 与 / - 分隔的 2 位或 4 位年份字符串；无法识别时原样返回
func NormalizeDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format("02-01-2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format("02-01-2006")
	case float64:
		return serialToDate(t)
	case float32:
		return serialToDate(float64(t))
	case int:
		return serialToDate(float64(t))
	case int64:
		return serialToDate(float64(t))
	case string:
		return normalizeDateString(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func serialToDate(serial float64) string {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return ""
	}
	days := int(math.Floor(serial))
	return excelEpoch.AddDate(0, 0, days).Format("02-01-2006")
}

func normalizeDateString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "-/") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToDate(f)
		}
		return s
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("02-01-2006")
		}
	}

	datePart := s
	if idx := strings.IndexAny(datePart, " T"); idx > 0 {
		datePart = datePart[:idx]
	}
	parts := strings.FieldsFunc(datePart, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 3 {
		return s
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return s
		}
	}

	day, month, year := parts[0], parts[1], parts[2]
	if first, _ := strconv.Atoi(parts[0]); first > 1900 {
		day, month, year = parts[2], parts[1], parts[0]
	}
	if len(year) == 2 {
		year = "20" + year
	}
	return pad2(day) + "-" + pad2(month) + "-" + year
}

func pad2(v string) string {
	if len(v) == 1 {
		return "0" + v
	}
	return v
}

// ────────────────────── MergeData ──────────────────────

// MergeData 字段级合并：空值不覆盖已有值，仅存在于旧记录的键保留，新键按序追加
func MergeData(existing, incoming model.DataPairs) model.DataPairs {
	out := make(model.DataPairs, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, kv := range existing {
		if i, ok := index[kv.Key]; ok {
			out[i] = kv
			continue
		}
		index[kv.Key] = len(out)
		out = append(out, kv)
	}

	for _, kv := range incoming {
		blank := strings.TrimSpace(kv.Value) == ""
		if i, ok := index[kv.Key]; ok {
			if !blank {
				out[i].Value = kv.Value
			}
			continue
		}
		index[kv.Key] = len(out)
		out = append(out, kv)
	}
	return out
}

func isBlankRow(fields model.DataPairs) bool {
	for _, kv := range fields {
		if strings.TrimSpace(kv.Value) != "" {
			return false
		}
	}
	return true
}

func normalizeRowDates(fields model.DataPairs) model.DataPairs {
	out := make(model.DataPairs, len(fields))
	for i, kv := range fields {
		if dateColumns[kv.Key] {
			kv.Value = NormalizeDate(kv.Value)
		}
		out[i] = kv
	}
	return out
}

// ────────────────────── IngestRows ──────────────────────

type ingestOutcome int

const (
	outcomeCreated ingestOutcome = iota
	outcomeUpdated
	outcomeReassigned
	outcomeUnassigned
	outcomeSkippedSettled
)

// IngestRows 逐行导入：按 Duty Id 匹配已有订单合并，否则新建
// 单行失败记录到 errors，不中断整批
func (s *bookingService) IngestRows(ctx context.Context, actor Actor, rows []IngestRow) (*dto.ImportBookingResponse, error) {
	resp := &dto.ImportBookingResponse{Total: len(rows)}
	driverCache := make(map[string]*model.Driver)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlankRow(row.Fields) {
			resp.Skipped++
			continue
		}

		fields := normalizeRowDates(row.Fields)
		dutyID, _ := fields.Get(ColumnDutyID)
		dutyID = strings.TrimSpace(dutyID)
		code, _ := fields.Get(ColumnDriverCode)
		code = strings.TrimSpace(code)

		var driver *model.Driver
		if code != "" {
			d, err := s.resolveDriver(ctx, driverCache, code)
			if err != nil {
				resp.Errors = append(resp.Errors, dto.ImportBookingError{Row: row.Row, Error: err.Error()})
				continue
			}
			driver = d
		}

		outcome, err := s.ingestRow(ctx, actor, dutyID, driver, fields)
		if err != nil {
			s.logger.Error("订单导入行失败", zap.Int("row", row.Row), zap.String("duty_id", dutyID), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.ImportBookingError{Row: row.Row, Error: err.Error()})
			continue
		}

		switch outcome {
		case outcomeCreated:
			resp.Created++
		case outcomeUpdated:
			resp.Updated++
		case outcomeReassigned:
			resp.Updated++
			resp.Reassigned++
		case outcomeUnassigned:
			resp.Updated++
			resp.Unassigned++
		case outcomeSkippedSettled:
			resp.Skipped++
		}
	}

	s.logger.Info("订单导入完成",
		zap.Int("total", resp.Total),
		zap.Int("created", resp.Created),
		zap.Int("updated", resp.Updated),
		zap.Int("reassigned", resp.Reassigned),
		zap.Int("unassigned", resp.Unassigned),
		zap.Int("skipped", resp.Skipped),
		zap.Int("errors", len(resp.Errors)),
	)
	return resp, nil
}

func (s *bookingService) resolveDriver(ctx context.Context, cache map[string]*model.Driver, code string) (*model.Driver, error) {
	if d, ok := cache[code]; ok {
		return d, nil
	}
	d, err := s.repo.Driver.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("司机编号不存在: %s", code)
		}
		s.logger.Error("查询司机失败", zap.String("driver_code", code), zap.Error(err))
		return nil, err
	}
	cache[code] = d
	return d, nil
}

func (s *bookingService) ingestRow(ctx context.Context, actor Actor, dutyID string, driver *model.Driver, fields model.DataPairs) (ingestOutcome, error) {
	if dutyID != "" {
		existing, err := s.repo.Booking.GetByExternalDutyID(ctx, dutyID)
		if err == nil {
			return s.mergeInto(ctx, actor, existing, driver, fields)
		}
		if !isNotFound(err) {
			return 0, err
		}
	}

	booking := &model.Booking{
		Data:   MergeData(nil, fields),
		Status: model.BookingStatusOpen,
		Settlement: model.Settlement{
			Status: model.SettlementPending,
		},
	}
	booking.CreatedBy = strPtr(actor.ID)
	booking.Version = 1
	if dutyID != "" {
		booking.ExternalDutyID = strPtr(dutyID)
	}
	if driver != nil {
		booking.DriverID = strPtr(driver.DriverID)
	}

	err := s.repo.Booking.Create(ctx, booking)
	if errors.Is(err, pkgerrors.ErrRecordExists) && dutyID != "" {
		// 并发导入同一 Duty Id：改为合并
		existing, getErr := s.repo.Booking.GetByExternalDutyID(ctx, dutyID)
		if getErr != nil {
			return 0, getErr
		}
		return s.mergeInto(ctx, actor, existing, driver, fields)
	}
	if err != nil {
		return 0, err
	}
	return outcomeCreated, nil
}

// mergeInto 合并到已有订单；已结算订单整行跳过，须先冲正
func (s *bookingService) mergeInto(ctx context.Context, actor Actor, booking *model.Booking, driver *model.Driver, fields model.DataPairs) (ingestOutcome, error) {
	if booking.Settlement.IsSettled {
		return outcomeSkippedSettled, nil
	}

	outcome := outcomeUpdated
	switch {
	case driver != nil:
		if booking.HasDriver() && *booking.DriverID != driver.DriverID {
			outcome = outcomeReassigned
			detachDriverEntries(booking)
		}
		booking.DriverID = strPtr(driver.DriverID)
	case booking.HasDriver():
		detachDriverEntries(booking)
		booking.DriverID = nil
		outcome = outcomeUnassigned
	}

	booking.Data = MergeData(booking.Data, fields)
	booking.UpdatedBy = strPtr(actor.ID)
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		return 0, err
	}
	return outcome, nil
}

// detachDriverEntries 换司机后旧司机的出车记录与收款不再挂在订单上
func detachDriverEntries(booking *model.Booking) {
	booking.DutyRecordID = nil
	booking.ReceivingID = nil
}

// ────────────────────── 查询与维护 ──────────────────────

func (s *bookingService) ListBookings(ctx context.Context, req *dto.BookingListRequest) ([]model.Booking, int64, error) {
	filter := repository.BookingFilter{
		DriverID: req.DriverID,
		Status:   req.Status,
		LabelID:  req.LabelID,
		Settled:  req.Settled,
		Keyword:  strings.TrimSpace(req.Keyword),
	}
	bookings, total, err := s.repo.Booking.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询订单列表失败", zap.Error(err))
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*dto.BookingDetailResponse, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	resp := &dto.BookingDetailResponse{Booking: booking}

	var duty *model.DutyRecord
	if booking.HasDriver() {
		duty, err = s.repo.DutyRecord.GetByDriverAndBooking(ctx, *booking.DriverID, bookingID)
	} else {
		duty, err = s.repo.DutyRecord.GetByBooking(ctx, bookingID)
	}
	switch {
	case err == nil:
		resp.Duty = toDutyResponse(duty)
	case !isNotFound(err):
		s.logger.Error("查询出车记录失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	expense, receiving, err := loadLedgerSides(ctx, s.repo, booking)
	if err != nil {
		s.logger.Error("读取支出/收款失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	resp.Expense = expense
	resp.Receiving = receiving
	if expense != nil || receiving != nil {
		calc := CalculateSettlement(expense, receiving)
		resp.Calculation = &calc
	}
	return resp, nil
}

// AssignDriver 分配或取消分配司机（driverID 为 nil 表示取消）
func (s *bookingService) AssignDriver(ctx context.Context, actor Actor, bookingID string, driverID *string) (*model.Booking, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Settlement.IsSettled {
		return nil, ErrAlreadySettled
	}

	if driverID != nil && *driverID != "" {
		driver, err := s.repo.Driver.GetByID(ctx, *driverID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrDriverNotFound
			}
			s.logger.Error("查询司机失败", zap.String("driver_id", *driverID), zap.Error(err))
			return nil, err
		}
		if !driver.IsActive {
			return nil, ErrDriverInactive
		}
		if booking.HasDriver() && *booking.DriverID != driver.DriverID {
			detachDriverEntries(booking)
		}
		booking.DriverID = strPtr(driver.DriverID)
		booking.Driver = driver
	} else {
		detachDriverEntries(booking)
		booking.DriverID = nil
		booking.Driver = nil
	}

	booking.UpdatedBy = strPtr(actor.ID)
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("分配司机失败", zap.String("booking_id", bookingID), zap.Error(err))
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, actor Actor, bookingID string, status int) (*model.Booking, error) {
	if status != model.BookingStatusOpen && status != model.BookingStatusCompleted {
		return nil, ErrInvalidStatus
	}
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}

	booking.Status = status
	if status == model.BookingStatusCompleted {
		now := time.Now()
		booking.CompletedAt = &now
	} else {
		booking.CompletedAt = nil
	}
	booking.UpdatedBy = strPtr(actor.ID)
	if err := s.repo.Booking.Update(ctx, booking); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新订单状态失败", zap.String("booking_id", bookingID), zap.Error(err))
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListDriverBookings(ctx context.Context, driverID string, page *dto.PaginationRequest) ([]model.Booking, int64, error) {
	filter := repository.BookingFilter{DriverID: driverID}
	bookings, total, err := s.repo.Booking.List(ctx, filter, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询司机订单失败", zap.String("driver_id", driverID), zap.Error(err))
		return nil, 0, err
	}
	return bookings, total, nil
}
