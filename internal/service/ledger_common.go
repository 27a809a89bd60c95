package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
)

var (
	ErrEntryClaimed      = fmt.Errorf("%w: 该记录已被其他管理员认领", ErrForbidden)
	ErrEntryNotClaimed   = errors.New("该记录未被认领")
	ErrExpenseNotFound   = errors.New("支出记录不存在")
	ErrReceivingNotFound = errors.New("收款记录不存在")
)

// ── 出车记录前置校验 ──

// requireDuty 支出/收款录入前须已存在 (driver, booking) 的出车记录
func requireDuty(ctx context.Context, repo *repository.Repository, logger *zap.Logger, driverID, bookingID string) error {
	if _, err := repo.DutyRecord.GetByDriverAndBooking(ctx, driverID, bookingID); err != nil {
		if isNotFound(err) {
			return &DutyInfoRequiredError{DriverID: driverID, BookingID: bookingID}
		}
		logger.Error("查询出车记录失败", zap.String("booking_id", bookingID), zap.Error(err))
		return err
	}
	return nil
}

// ── 认领状态机 ──

// claimEntry 后台编辑前认领：unclaimed/released → claimed(actor)
// 司机自助路径不参与认领
func claimEntry(claim *model.EntryClaim, actor Actor, now time.Time) error {
	if actor.IsDriver() {
		return nil
	}
	if claim.ClaimState == model.ClaimClaimed {
		if claim.ClaimedBy != nil && *claim.ClaimedBy == actor.ID {
			return nil
		}
		return ErrEntryClaimed
	}
	claim.ClaimState = model.ClaimClaimed
	claim.ClaimedBy = strPtr(actor.ID)
	claim.ClaimedAt = &now
	return nil
}

// releaseClaim claimed → released，仅认领人或 admin 可释放
func releaseClaim(claim *model.EntryClaim, actor Actor) error {
	if claim.ClaimState != model.ClaimClaimed {
		return ErrEntryNotClaimed
	}
	if actor.Role != model.RoleAdmin && (claim.ClaimedBy == nil || *claim.ClaimedBy != actor.ID) {
		return ErrForbidden
	}
	claim.ClaimState = model.ClaimReleased
	claim.ClaimedBy = nil
	claim.ClaimedAt = nil
	return nil
}

// ── 票据解析 ──

type rawBillingItem struct {
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Note     string          `json:"note"`
}

// parseBillingItems 解析票据列表并逐项校验
// raw 可为 JSON 数组或 JSON 编码的字符串；图片按 billingItems[i].image 匹配上传，
// 无新上传时沿用 existing 同位置的图片
func parseBillingItems(raw json.RawMessage, existing model.BillingItems, attachments []dto.Attachment) (model.BillingItems, []string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return model.BillingItems{}, nil, nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, nil, invalidFormat("billingItems invalid JSON")
		}
		raw = []byte(strings.TrimSpace(encoded))
		if len(raw) == 0 {
			return model.BillingItems{}, nil, nil
		}
	}

	var items []rawBillingItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, invalidFormat("billingItems invalid JSON")
	}

	uploads := make(map[string]string, len(attachments))
	for _, a := range attachments {
		uploads[a.Field] = a.Path
	}

	var problems []string
	out := make(model.BillingItems, 0, len(items))
	for i, item := range items {
		if !model.BillingCategories[item.Category] {
			problems = append(problems, fmt.Sprintf("billingItems[%d].category invalid: %q", i, item.Category))
		}
		amount, err := parseAmount(item.Amount)
		if err != nil {
			problems = append(problems, fmt.Sprintf("billingItems[%d].amount must be a number", i))
		}

		bi := model.BillingItem{Category: item.Category, Amount: amount, Note: item.Note}
		if path, ok := uploads[fmt.Sprintf("billingItems[%d].image", i)]; ok {
			bi.Image = strPtr(path)
		} else if i < len(existing) && existing[i].Image != nil {
			bi.Image = existing[i].Image
		}
		out = append(out, bi)
	}
	return out, problems, nil
}

// parseAmount 接受 JSON 数字或数字字符串
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, errors.New("missing amount")
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, err
		}
		text = strings.TrimSpace(text)
	}
	return decimal.NewFromString(text)
}

func decOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func allowancesFrom(req *dto.LedgerEntryRequest) model.Allowances {
	return model.Allowances{
		DailyAllowance:      decOrZero(req.DailyAllowance),
		OutstationAllowance: decOrZero(req.OutstationAllowance),
		NightAllowance:      decOrZero(req.NightAllowance),
	}
}

// touchAudit 写入编辑来源
func touchAudit(audit *model.EntryAudit, actor Actor, now time.Time) {
	audit.LastEditedBy = strPtr(actor.ID)
	audit.LastEditedRole = actor.Role
	audit.LastEditedAt = &now
}

func newAudit(actor Actor) model.EntryAudit {
	audit := model.EntryAudit{CreatedByRole: actor.Role}
	if actor.IsAdmin() {
		audit.CreatedByAdmin = strPtr(actor.ID)
	}
	return audit
}

// settledDriverID 结算所记入的司机；旧数据未记录时取当前司机
func settledDriverID(booking *model.Booking) string {
	if id := booking.Settlement.DriverID; id != nil && *id != "" {
		return *id
	}
	if booking.HasDriver() {
		return *booking.DriverID
	}
	return ""
}

// loadLedgerSides 读取订单某一司机的支出与收款，缺失一侧返回 nil
// 已结算订单取结算司机，否则取当前司机；未分配时按订单取最近一条支出
func loadLedgerSides(ctx context.Context, repo *repository.Repository, booking *model.Booking) (*model.Expense, *model.Receiving, error) {
	driverID := ""
	if booking.Settlement.IsSettled {
		driverID = settledDriverID(booking)
	} else if booking.HasDriver() {
		driverID = *booking.DriverID
	}

	var (
		expense   *model.Expense
		receiving *model.Receiving
		err       error
	)
	if driverID != "" {
		expense, err = repo.Expense.GetByDriverAndBooking(ctx, driverID, booking.BookingID)
	} else {
		expense, err = repo.Expense.GetLatestByBooking(ctx, booking.BookingID)
	}
	if err != nil {
		if !isNotFound(err) {
			return nil, nil, err
		}
		expense = nil
	}

	err = nil
	switch {
	case driverID != "":
		receiving, err = repo.Receiving.GetByDriverAndBooking(ctx, driverID, booking.BookingID)
	case booking.ReceivingID != nil:
		receiving, err = repo.Receiving.GetByID(ctx, *booking.ReceivingID)
	}
	if err != nil {
		if !isNotFound(err) {
			return nil, nil, err
		}
		receiving = nil
	}
	return expense, receiving, nil
}
