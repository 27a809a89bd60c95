package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
)

var (
	ErrInsufficientBalance = errors.New("钱包余额不足")
	ErrInvalidAmount       = errors.New("金额必须大于 0")
	ErrSameWallet          = errors.New("转出与转入钱包不能相同")
	ErrUnknownWalletOwner  = errors.New("未知的钱包归属类型")
	ErrDriverNotInDebt     = errors.New("该司机当前没有欠款")
	ErrAmountExceedsDebt   = errors.New("收款金额超过司机欠款")
)

// WalletOwner 钱包归属：司机或后台账号
type WalletOwner struct {
	Kind string
	ID   string
}

// DriverWallet 司机钱包
func DriverWallet(id string) WalletOwner { return WalletOwner{Kind: model.OwnerDriver, ID: id} }

// AdminWallet 后台账号钱包
func AdminWallet(id string) WalletOwner { return WalletOwner{Kind: model.OwnerAdmin, ID: id} }

func (o WalletOwner) valid() bool {
	return (o.Kind == model.OwnerDriver || o.Kind == model.OwnerAdmin) && o.ID != ""
}

func (o WalletOwner) notFoundErr() error {
	if o.Kind == model.OwnerAdmin {
		return ErrAdminNotFound
	}
	return ErrDriverNotFound
}

// WalletService 钱包业务接口
type WalletService interface {
	Credit(ctx context.Context, actor Actor, owner WalletOwner, amount decimal.Decimal, description string) (*dto.WalletMutationResponse, error)
	Debit(ctx context.Context, actor Actor, owner WalletOwner, amount decimal.Decimal, description string) (*dto.WalletMutationResponse, error)
	Transfer(ctx context.Context, actor Actor, from, to WalletOwner, amount decimal.Decimal, description string) (*dto.WalletTransferResponse, error)
	CollectFromDriver(ctx context.Context, actor Actor, req *dto.CollectFromDriverRequest) (*dto.WalletTransferResponse, error)
	GetWalletDetails(ctx context.Context, owner WalletOwner) (*dto.WalletDetailsResponse, error)
	ListTransactions(ctx context.Context, owner WalletOwner, page *dto.PaginationRequest) ([]model.WalletTransaction, int64, error)
}

type walletService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewWalletService 创建 WalletService 实例
func NewWalletService(repo *repository.Repository, logger *zap.Logger) WalletService {
	return &walletService{repo: repo, logger: logger}
}

// ────────────────────── 余额变更核心 ──────────────────────

// walletChange 一次余额变更：Delta 为正入账，为负出账
type walletChange struct {
	Owner       WalletOwner
	Delta       decimal.Decimal
	Category    string
	Description string
	ActorID     string
	Reference   *string
	BookingID   *string
	DedupKey    *string
}

// applyWalletChange 锁定余额行、写新余额并追加一条流水
// 必须在事务内调用；后台钱包不允许为负
func applyWalletChange(ctx context.Context, txRepo *repository.Repository, ch walletChange) (*model.WalletTransaction, decimal.Decimal, error) {
	if !ch.Owner.valid() {
		return nil, decimal.Zero, ErrUnknownWalletOwner
	}

	balance, err := txRepo.Wallet.LockBalance(ctx, ch.Owner.Kind, ch.Owner.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, decimal.Zero, ch.Owner.notFoundErr()
		}
		return nil, decimal.Zero, err
	}

	newBalance := balance.Add(ch.Delta)
	if ch.Owner.Kind == model.OwnerAdmin && newBalance.IsNegative() {
		return nil, balance, ErrInsufficientBalance
	}

	if err := txRepo.Wallet.SetBalance(ctx, ch.Owner.Kind, ch.Owner.ID, newBalance); err != nil {
		return nil, balance, err
	}

	txnType := model.TxnCredit
	if ch.Delta.IsNegative() {
		txnType = model.TxnDebit
	}
	txn := &model.WalletTransaction{
		TransactionID: uuid.NewString(),
		OwnerKind:     ch.Owner.Kind,
		Amount:        ch.Delta.Abs(),
		Type:          txnType,
		Category:      ch.Category,
		Description:   ch.Description,
		BalanceAfter:  newBalance,
		Reference:     ch.Reference,
		BookingID:     ch.BookingID,
		DedupKey:      ch.DedupKey,
	}
	if ch.ActorID != "" {
		txn.FromAdminID = strPtr(ch.ActorID)
	}
	if ch.Owner.Kind == model.OwnerAdmin {
		txn.AdminID = strPtr(ch.Owner.ID)
	} else {
		txn.DriverID = strPtr(ch.Owner.ID)
	}

	if err := txRepo.Transaction.Create(ctx, txn); err != nil {
		return nil, balance, err
	}
	return txn, newBalance, nil
}

func walletCategory(owner WalletOwner) string {
	if owner.Kind == model.OwnerAdmin {
		return model.CategoryAdminWallet
	}
	return model.CategoryUserWallet
}

// ────────────────────── Credit / Debit ──────────────────────

func (s *walletService) Credit(ctx context.Context, actor Actor, owner WalletOwner, amount decimal.Decimal, description string) (*dto.WalletMutationResponse, error) {
	return s.mutate(ctx, actor, owner, amount, description, false)
}

func (s *walletService) Debit(ctx context.Context, actor Actor, owner WalletOwner, amount decimal.Decimal, description string) (*dto.WalletMutationResponse, error) {
	return s.mutate(ctx, actor, owner, amount, description, true)
}

func (s *walletService) mutate(ctx context.Context, actor Actor, owner WalletOwner, amount decimal.Decimal, description string, debit bool) (*dto.WalletMutationResponse, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Problems: []string{ErrInvalidAmount.Error()}}
	}
	if !owner.valid() {
		return nil, ErrUnknownWalletOwner
	}

	delta := amount
	if debit {
		delta = amount.Neg()
	}

	var resp dto.WalletMutationResponse
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		txn, balance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       owner,
			Delta:       delta,
			Category:    walletCategory(owner),
			Description: description,
			ActorID:     actor.ID,
		})
		if err != nil {
			return err
		}
		resp.Transaction = txn
		resp.Balance = balance
		return nil
	})
	if err != nil {
		if !isWalletBusinessErr(err) {
			s.logger.Error("钱包变更失败",
				zap.String("owner_kind", owner.Kind), zap.String("owner_id", owner.ID), zap.Error(err))
		}
		return nil, err
	}
	return &resp, nil
}

// ────────────────────── Transfer ──────────────────────

func (s *walletService) Transfer(ctx context.Context, actor Actor, from, to WalletOwner, amount decimal.Decimal, description string) (*dto.WalletTransferResponse, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Problems: []string{ErrInvalidAmount.Error()}}
	}
	if !from.valid() || !to.valid() {
		return nil, ErrUnknownWalletOwner
	}
	if from == to {
		return nil, ErrSameWallet
	}

	ref := uuid.NewString()
	resp := dto.WalletTransferResponse{Reference: ref}
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		debit, fromBalance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       from,
			Delta:       amount.Neg(),
			Category:    model.CategoryTransfer,
			Description: description,
			ActorID:     actor.ID,
			Reference:   &ref,
		})
		if err != nil {
			return err
		}
		credit, toBalance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       to,
			Delta:       amount,
			Category:    model.CategoryTransfer,
			Description: description,
			ActorID:     actor.ID,
			Reference:   &ref,
		})
		if err != nil {
			return err
		}
		resp.Debit, resp.Credit = debit, credit
		resp.FromBalance, resp.ToBalance = fromBalance, toBalance
		return nil
	})
	if err != nil {
		if !isWalletBusinessErr(err) {
			s.logger.Error("钱包转账失败", zap.String("reference", ref), zap.Error(err))
		}
		return nil, err
	}
	return &resp, nil
}

// ────────────────────── CollectFromDriver ──────────────────────

// CollectFromDriver 司机线下还款：司机钱包入账冲减欠款，同时后台钱包入账
func (s *walletService) CollectFromDriver(ctx context.Context, actor Actor, req *dto.CollectFromDriverRequest) (*dto.WalletTransferResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Problems: []string{ErrInvalidAmount.Error()}}
	}

	ref := uuid.NewString()
	description := req.Description
	if description == "" {
		description = "driver settlement collection"
	}

	resp := dto.WalletTransferResponse{Reference: ref}
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		balance, err := txRepo.Wallet.LockBalance(ctx, model.OwnerDriver, req.DriverID)
		if err != nil {
			if isNotFound(err) {
				return ErrDriverNotFound
			}
			return err
		}
		if !balance.IsNegative() {
			return ErrDriverNotInDebt
		}
		if req.Amount.GreaterThan(balance.Abs()) {
			return ErrAmountExceedsDebt
		}

		credit, driverBalance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       DriverWallet(req.DriverID),
			Delta:       req.Amount,
			Category:    model.CategoryTransfer,
			Description: description,
			ActorID:     actor.ID,
			Reference:   &ref,
		})
		if err != nil {
			return err
		}
		adminCredit, adminBalance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       AdminWallet(actor.ID),
			Delta:       req.Amount,
			Category:    model.CategoryTransfer,
			Description: description,
			ActorID:     actor.ID,
			Reference:   &ref,
		})
		if err != nil {
			return err
		}
		resp.Credit, resp.Debit = credit, adminCredit
		resp.ToBalance, resp.FromBalance = driverBalance, adminBalance
		return nil
	})
	if err != nil {
		if !isWalletBusinessErr(err) {
			s.logger.Error("司机还款登记失败", zap.String("driver_id", req.DriverID), zap.Error(err))
		}
		return nil, err
	}
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *walletService) GetWalletDetails(ctx context.Context, owner WalletOwner) (*dto.WalletDetailsResponse, error) {
	if !owner.valid() {
		return nil, ErrUnknownWalletOwner
	}
	balance, err := s.repo.Wallet.GetBalance(ctx, owner.Kind, owner.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, owner.notFoundErr()
		}
		s.logger.Error("查询钱包余额失败", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, err
	}
	summary, err := s.repo.Transaction.SummarizeByOwner(ctx, owner.Kind, owner.ID)
	if err != nil {
		s.logger.Error("汇总钱包流水失败", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, err
	}

	return &dto.WalletDetailsResponse{
		OwnerKind:        owner.Kind,
		OwnerID:          owner.ID,
		Balance:          balance,
		TotalCredit:      summary.TotalCredit,
		TotalDebit:       summary.TotalDebit,
		TransactionCount: summary.Count,
		Explanation:      explainBalance(owner.Kind, balance),
	}, nil
}

func (s *walletService) ListTransactions(ctx context.Context, owner WalletOwner, page *dto.PaginationRequest) ([]model.WalletTransaction, int64, error) {
	if !owner.valid() {
		return nil, 0, ErrUnknownWalletOwner
	}
	txns, total, err := s.repo.Transaction.ListByOwner(ctx, owner.Kind, owner.ID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询钱包流水失败", zap.String("owner_id", owner.ID), zap.Error(err))
		return nil, 0, err
	}
	return txns, total, nil
}

// explainBalance 余额说明（正数：公司欠司机）
func explainBalance(ownerKind string, balance decimal.Decimal) string {
	amount := balance.Abs().StringFixed(2)
	if ownerKind == model.OwnerAdmin {
		return fmt.Sprintf("wallet balance %s", balance.StringFixed(2))
	}
	switch balance.Sign() {
	case -1:
		return fmt.Sprintf("driver owes company %s", amount)
	case 1:
		return fmt.Sprintf("company owes driver %s", amount)
	default:
		return "balanced"
	}
}

func isWalletBusinessErr(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDriverNotFound) ||
		errors.Is(err, ErrAdminNotFound) ||
		errors.Is(err, ErrUnknownWalletOwner) ||
		errors.Is(err, ErrDriverNotInDebt) ||
		errors.Is(err, ErrAmountExceedsDebt) ||
		errors.Is(err, ErrSameWallet)
}
