package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNotSettled   = errors.New("订单尚未结算，无法导出结算单")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportWalletStatement 导出钱包流水为 Excel
	ExportWalletStatement(ctx context.Context, owner WalletOwner) (*bytes.Buffer, string, error)
	// SettlementStatementPDF 导出订单结算单 PDF（含校验二维码）
	SettlementStatementPDF(ctx context.Context, bookingID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportWalletStatement — 钱包流水 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行标题，第 2 行表头
//   - 每笔流水一行：时间 / 方向 / 类别 / 金额 / 余额 / 说明
//   - 末行合计入账与出账

func (s *exportService) ExportWalletStatement(ctx context.Context, owner WalletOwner) (*bytes.Buffer, string, error) {
	if !owner.valid() {
		return nil, "", ErrUnknownWalletOwner
	}
	balance, err := s.repo.Wallet.GetBalance(ctx, owner.Kind, owner.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", owner.notFoundErr()
		}
		s.logger.Error("查询钱包余额失败", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, "", err
	}
	txns, err := s.repo.Transaction.ListAllByOwner(ctx, owner.Kind, owner.ID)
	if err != nil {
		s.logger.Error("查询钱包流水失败", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Statement"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "C", 14)
	f.SetColWidth(sheetName, "D", "E", 14)
	f.SetColWidth(sheetName, "F", "F", 48)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Wallet statement %s %s (balance %s)", owner.Kind, owner.ID, balance.StringFixed(2)))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	for i, title := range []string{"Date", "Type", "Category", "Amount", "Balance After", "Description"} {
		f.SetCellValue(sheetName, cell(colName(i), row), title)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell("F", row), headerStyle)

	totalCredit, totalDebit := decimal.Zero, decimal.Zero
	row = 3
	for _, t := range txns {
		amount, _ := t.Amount.Float64()
		after, _ := t.BalanceAfter.Float64()
		f.SetCellValue(sheetName, cell("A", row), t.CreatedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, cell("B", row), t.Type)
		f.SetCellValue(sheetName, cell("C", row), t.Category)
		f.SetCellValue(sheetName, cell("D", row), amount)
		f.SetCellValue(sheetName, cell("E", row), after)
		f.SetCellValue(sheetName, cell("F", row), t.Description)

		if t.Type == model.TxnCredit {
			totalCredit = totalCredit.Add(t.Amount)
		} else {
			totalDebit = totalDebit.Add(t.Amount)
		}
		row++
	}

	f.SetCellValue(sheetName, cell("A", row), "Total credit")
	f.SetCellValue(sheetName, cell("B", row), totalCredit.StringFixed(2))
	f.SetCellValue(sheetName, cell("C", row), "Total debit")
	f.SetCellValue(sheetName, cell("D", row), totalDebit.StringFixed(2))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("wallet_%s_%s.xlsx", owner.Kind, owner.ID), nil
}

// ═══════════════════════════════════════════════════════════
// SettlementStatementPDF — 结算单 PDF
// ═══════════════════════════════════════════════════════════

// settlementQRPayload 结算单二维码内容
func settlementQRPayload(b *model.Booking) string {
	return fmt.Sprintf("settlement:%s:%s:%s", b.BookingID, b.Settlement.Status, b.Settlement.SettlementAmount.StringFixed(2))
}

func (s *exportService) SettlementStatementPDF(ctx context.Context, bookingID string) (*bytes.Buffer, string, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, "", err
	}
	st := booking.Settlement
	if st.Status != model.SettlementCompleted && st.Status != model.SettlementReversed {
		return nil, "", ErrExportNotSettled
	}

	expense, receiving, err := loadLedgerSides(ctx, s.repo, booking)
	if err != nil {
		s.logger.Error("读取支出/收款失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, "", err
	}
	calc := CalculateSettlement(expense, receiving)

	qrPNG, err := qrcode.Encode(settlementQRPayload(booking), qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Settlement Statement", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SETTLEMENT STATEMENT")
	pdf.Ln(14)

	driverName, driverCode := "-", "-"
	if booking.Driver != nil {
		driverName, driverCode = booking.Driver.Name, booking.Driver.DriverCode
	}
	dutyID := "-"
	if booking.ExternalDutyID != nil {
		dutyID = *booking.ExternalDutyID
	}
	settledAt := "-"
	if st.SettledAt != nil {
		settledAt = st.SettledAt.Format("2006-01-02 15:04")
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking        : %s", booking.BookingID),
		fmt.Sprintf("Duty Id        : %s", dutyID),
		fmt.Sprintf("Driver         : %s (%s)", driverName, driverCode),
		fmt.Sprintf("Expense total  : %s", calc.ExpenseTotal.StringFixed(2)),
		fmt.Sprintf("Receiving total: %s", calc.ReceivingTotal.StringFixed(2)),
		fmt.Sprintf("Difference     : %s", calc.Difference.StringFixed(2)),
		fmt.Sprintf("Adjustment     : %s", st.AdminAdjustments.StringFixed(2)),
		fmt.Sprintf("Settled amount : %s", st.SettlementAmount.StringFixed(2)),
		fmt.Sprintf("Status         : %s", st.Status),
		fmt.Sprintf("Settled at     : %s", settledAt),
	}
	if st.Status == model.SettlementReversed {
		lines = append(lines, fmt.Sprintf("Reversal reason: %s", st.ReversalReason))
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, explainDifference(st.SettlementAmount), "", "", false)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("settlement-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("settlement-qr", 150, 20, 40, 40, false, opts, 0, "")

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		s.logger.Error("生成 PDF 失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("settlement_%s.pdf", booking.BookingID), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
