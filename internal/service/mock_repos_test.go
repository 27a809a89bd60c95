package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// ── Mock DriverRepository ──

type mockDriverRepo struct {
	drivers map[string]*model.Driver
}

func newMockDriverRepo() *mockDriverRepo {
	return &mockDriverRepo{drivers: make(map[string]*model.Driver)}
}

func (m *mockDriverRepo) Create(_ context.Context, driver *model.Driver) error {
	for _, d := range m.drivers {
		if d.DriverCode == driver.DriverCode {
			return pkgerrors.ErrRecordExists
		}
	}
	if driver.DriverID == "" {
		driver.DriverID = uuid.NewString()
	}
	cp := *driver
	m.drivers[driver.DriverID] = &cp
	return nil
}

func (m *mockDriverRepo) GetByID(_ context.Context, id string) (*model.Driver, error) {
	if d, ok := m.drivers[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDriverRepo) GetByCode(_ context.Context, code string) (*model.Driver, error) {
	for _, d := range m.drivers {
		if d.DriverCode == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDriverRepo) List(_ context.Context, keyword string, offset, limit int) ([]model.Driver, int64, error) {
	var all []model.Driver
	for _, d := range m.drivers {
		if keyword != "" && !strings.Contains(d.Name, keyword) && !strings.Contains(d.DriverCode, keyword) {
			continue
		}
		all = append(all, *d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DriverCode < all[j].DriverCode })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockDriverRepo) SetActive(_ context.Context, id string, active bool, _ string) error {
	d, ok := m.drivers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.IsActive = active
	return nil
}

// ── Mock AdminRepository ──

type mockAdminRepo struct {
	admins map[string]*model.Admin
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{admins: make(map[string]*model.Admin)}
}

func (m *mockAdminRepo) Create(_ context.Context, admin *model.Admin) error {
	for _, a := range m.admins {
		if a.Email == admin.Email {
			return pkgerrors.ErrRecordExists
		}
	}
	if admin.AdminID == "" {
		admin.AdminID = uuid.NewString()
	}
	cp := *admin
	m.admins[admin.AdminID] = &cp
	return nil
}

func (m *mockAdminRepo) GetByID(_ context.Context, id string) (*model.Admin, error) {
	if a, ok := m.admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdminRepo) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdminRepo) List(_ context.Context) ([]model.Admin, error) {
	var result []model.Admin
	for _, a := range m.admins {
		result = append(result, *a)
	}
	return result, nil
}

// ── Mock WalletRepository ──
// 余额直接读写司机/后台账号 mock 中的 WalletBalance

type mockWalletRepo struct {
	drivers *mockDriverRepo
	admins  *mockAdminRepo
}

func (m *mockWalletRepo) GetBalance(_ context.Context, ownerKind, ownerID string) (decimal.Decimal, error) {
	switch ownerKind {
	case model.OwnerDriver:
		if d, ok := m.drivers.drivers[ownerID]; ok {
			return d.WalletBalance, nil
		}
	case model.OwnerAdmin:
		if a, ok := m.admins.admins[ownerID]; ok {
			return a.WalletBalance, nil
		}
	}
	return decimal.Zero, gorm.ErrRecordNotFound
}

func (m *mockWalletRepo) LockBalance(ctx context.Context, ownerKind, ownerID string) (decimal.Decimal, error) {
	return m.GetBalance(ctx, ownerKind, ownerID)
}

func (m *mockWalletRepo) SetBalance(_ context.Context, ownerKind, ownerID string, balance decimal.Decimal) error {
	switch ownerKind {
	case model.OwnerDriver:
		if d, ok := m.drivers.drivers[ownerID]; ok {
			d.WalletBalance = balance
			return nil
		}
	case model.OwnerAdmin:
		if a, ok := m.admins.admins[ownerID]; ok {
			a.WalletBalance = balance
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock TransactionRepository ──

type mockTransactionRepo struct {
	txns []model.WalletTransaction
}

func (m *mockTransactionRepo) Create(_ context.Context, txn *model.WalletTransaction) error {
	if txn.DedupKey != nil {
		for _, t := range m.txns {
			if t.DedupKey != nil && *t.DedupKey == *txn.DedupKey {
				return pkgerrors.ErrRecordExists
			}
		}
	}
	if txn.TransactionID == "" {
		txn.TransactionID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	m.txns = append(m.txns, *txn)
	return nil
}

func (m *mockTransactionRepo) GetByID(_ context.Context, id string) (*model.WalletTransaction, error) {
	for _, t := range m.txns {
		if t.TransactionID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTransactionRepo) ExistsByDedupKey(_ context.Context, key string) (bool, error) {
	for _, t := range m.txns {
		if t.DedupKey != nil && *t.DedupKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTransactionRepo) ownedBy(ownerKind, ownerID string) []model.WalletTransaction {
	var result []model.WalletTransaction
	for _, t := range m.txns {
		if t.OwnerKind != ownerKind {
			continue
		}
		id := t.DriverID
		if ownerKind == model.OwnerAdmin {
			id = t.AdminID
		}
		if id != nil && *id == ownerID {
			result = append(result, t)
		}
	}
	return result
}

func (m *mockTransactionRepo) ListByOwner(_ context.Context, ownerKind, ownerID string, offset, limit int) ([]model.WalletTransaction, int64, error) {
	all := m.ownedBy(ownerKind, ownerID)
	// 最新在前
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockTransactionRepo) ListAllByOwner(_ context.Context, ownerKind, ownerID string) ([]model.WalletTransaction, error) {
	return m.ownedBy(ownerKind, ownerID), nil
}

func (m *mockTransactionRepo) ListByBooking(_ context.Context, bookingID string) ([]model.WalletTransaction, error) {
	var result []model.WalletTransaction
	for _, t := range m.txns {
		if t.BookingID != nil && *t.BookingID == bookingID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTransactionRepo) SummarizeByOwner(_ context.Context, ownerKind, ownerID string) (*repository.TransactionSummary, error) {
	sum := &repository.TransactionSummary{TotalCredit: decimal.Zero, TotalDebit: decimal.Zero}
	for _, t := range m.ownedBy(ownerKind, ownerID) {
		if t.Type == model.TxnCredit {
			sum.TotalCredit = sum.TotalCredit.Add(t.Amount)
		} else {
			sum.TotalDebit = sum.TotalDebit.Add(t.Amount)
		}
		sum.Count++
	}
	return sum, nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.Booking
	drivers  *mockDriverRepo
}

func (m *mockBookingRepo) load(b *model.Booking) *model.Booking {
	cp := *b
	cp.Data = append(model.DataPairs(nil), b.Data...)
	cp.Labels = append([]model.Label(nil), b.Labels...)
	cp.Driver = nil
	if cp.HasDriver() {
		if d, ok := m.drivers.drivers[*cp.DriverID]; ok {
			dc := *d
			cp.Driver = &dc
		}
	}
	return &cp
}

func (m *mockBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	if booking.ExternalDutyID != nil {
		for _, b := range m.bookings {
			if b.ExternalDutyID != nil && *b.ExternalDutyID == *booking.ExternalDutyID {
				return pkgerrors.ErrRecordExists
			}
		}
	}
	if booking.BookingID == "" {
		booking.BookingID = uuid.NewString()
	}
	if booking.Version == 0 {
		booking.Version = 1
	}
	cp := *booking
	m.bookings[booking.BookingID] = &cp
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return m.load(b), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return m.GetByID(ctx, id)
}

func (m *mockBookingRepo) GetByExternalDutyID(_ context.Context, dutyID string) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.ExternalDutyID != nil && *b.ExternalDutyID == dutyID {
			return m.load(b), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) Update(_ context.Context, booking *model.Booking) error {
	stored, ok := m.bookings[booking.BookingID]
	if !ok || stored.Version != booking.Version {
		return pkgerrors.ErrOptimisticLock
	}
	booking.Version++
	cp := *booking
	cp.Driver = nil
	cp.Labels = stored.Labels
	m.bookings[booking.BookingID] = &cp
	return nil
}

func (m *mockBookingRepo) List(_ context.Context, filter repository.BookingFilter, offset, limit int) ([]model.Booking, int64, error) {
	var all []model.Booking
	for _, b := range m.bookings {
		if filter.DriverID != "" && (b.DriverID == nil || *b.DriverID != filter.DriverID) {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.Settled != nil && b.Settlement.IsSettled != *filter.Settled {
			continue
		}
		all = append(all, *m.load(b))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].BookingID < all[j].BookingID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockBookingRepo) settledByDriver(driverID, status string) []model.Booking {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.DriverID == nil || *b.DriverID != driverID {
			continue
		}
		if status != "" {
			if b.Settlement.Status != status {
				continue
			}
		} else if b.Settlement.Status == model.SettlementPending {
			continue
		}
		result = append(result, *m.load(b))
	}
	return result
}

func (m *mockBookingRepo) ListSettledByDriver(_ context.Context, driverID, status string, offset, limit int) ([]model.Booking, int64, error) {
	all := m.settledByDriver(driverID, status)
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockBookingRepo) SumSettledByDriver(_ context.Context, driverID, status string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range m.settledByDriver(driverID, status) {
		total = total.Add(b.Settlement.SettlementAmount)
	}
	return total, nil
}

func (m *mockBookingRepo) ListPendingSettlement(_ context.Context) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.HasDriver() && b.Settlement.Status == model.SettlementPending {
			result = append(result, *m.load(b))
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ReplaceLabels(_ context.Context, bookingID string, labels []model.Label) error {
	b, ok := m.bookings[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Labels = append([]model.Label(nil), labels...)
	return nil
}

func (m *mockBookingRepo) AddLabels(_ context.Context, bookingID string, labels []model.Label) error {
	b, ok := m.bookings[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, l := range labels {
		found := false
		for _, existing := range b.Labels {
			if existing.LabelID == l.LabelID {
				found = true
				break
			}
		}
		if !found {
			b.Labels = append(b.Labels, l)
		}
	}
	return nil
}

func (m *mockBookingRepo) RemoveLabels(_ context.Context, bookingID string, labels []model.Label) error {
	b, ok := m.bookings[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	drop := make(map[string]bool, len(labels))
	for _, l := range labels {
		drop[l.LabelID] = true
	}
	kept := b.Labels[:0]
	for _, l := range b.Labels {
		if !drop[l.LabelID] {
			kept = append(kept, l)
		}
	}
	b.Labels = kept
	return nil
}

// ── Mock DutyRecordRepository ──

type mockDutyRecordRepo struct {
	records map[string]*model.DutyRecord
}

func (m *mockDutyRecordRepo) Create(_ context.Context, record *model.DutyRecord) error {
	for _, r := range m.records {
		if r.DriverID == record.DriverID && r.BookingID == record.BookingID {
			return pkgerrors.ErrRecordExists
		}
	}
	if record.DutyRecordID == "" {
		record.DutyRecordID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	cp := *record
	m.records[record.DutyRecordID] = &cp
	return nil
}

func (m *mockDutyRecordRepo) Update(_ context.Context, record *model.DutyRecord) error {
	cp := *record
	m.records[record.DutyRecordID] = &cp
	return nil
}

func (m *mockDutyRecordRepo) GetByID(_ context.Context, id string) (*model.DutyRecord, error) {
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDutyRecordRepo) GetByBooking(_ context.Context, bookingID string) (*model.DutyRecord, error) {
	var found *model.DutyRecord
	for _, r := range m.records {
		if r.BookingID == bookingID && (found == nil || r.CreatedAt.Before(found.CreatedAt)) {
			found = r
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockDutyRecordRepo) GetByDriverAndBooking(_ context.Context, driverID, bookingID string) (*model.DutyRecord, error) {
	for _, r := range m.records {
		if r.DriverID == driverID && r.BookingID == bookingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDutyRecordRepo) ListByDriver(_ context.Context, driverID string, offset, limit int) ([]model.DutyRecord, int64, error) {
	var all []model.DutyRecord
	for _, r := range m.records {
		if r.DriverID == driverID {
			all = append(all, *r)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock ExpenseRepository ──

type mockExpenseRepo struct {
	expenses map[string]*model.Expense
}

func (m *mockExpenseRepo) Create(_ context.Context, expense *model.Expense) error {
	for _, e := range m.expenses {
		if e.DriverID == expense.DriverID && e.BookingID == expense.BookingID {
			return pkgerrors.ErrRecordExists
		}
	}
	if expense.ExpenseID == "" {
		expense.ExpenseID = uuid.NewString()
	}
	cp := *expense
	m.expenses[expense.ExpenseID] = &cp
	return nil
}

func (m *mockExpenseRepo) Update(_ context.Context, expense *model.Expense) error {
	cp := *expense
	m.expenses[expense.ExpenseID] = &cp
	return nil
}

func (m *mockExpenseRepo) GetByID(_ context.Context, id string) (*model.Expense, error) {
	if e, ok := m.expenses[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExpenseRepo) GetByDriverAndBooking(_ context.Context, driverID, bookingID string) (*model.Expense, error) {
	for _, e := range m.expenses {
		if e.DriverID == driverID && e.BookingID == bookingID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExpenseRepo) GetLatestByBooking(_ context.Context, bookingID string) (*model.Expense, error) {
	var found *model.Expense
	for _, e := range m.expenses {
		if e.BookingID == bookingID && (found == nil || e.UpdatedAt.After(found.UpdatedAt)) {
			found = e
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *mockExpenseRepo) ListByBooking(_ context.Context, bookingID string) ([]model.Expense, error) {
	var result []model.Expense
	for _, e := range m.expenses {
		if e.BookingID == bookingID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExpenseRepo) ListByDriver(_ context.Context, driverID string, offset, limit int) ([]model.Expense, int64, error) {
	var all []model.Expense
	for _, e := range m.expenses {
		if e.DriverID == driverID {
			all = append(all, *e)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock ReceivingRepository ──

type mockReceivingRepo struct {
	receivings map[string]*model.Receiving
}

func (m *mockReceivingRepo) Create(_ context.Context, receiving *model.Receiving) error {
	for _, r := range m.receivings {
		if r.DriverID == receiving.DriverID && r.BookingID == receiving.BookingID {
			return pkgerrors.ErrRecordExists
		}
	}
	if receiving.ReceivingID == "" {
		receiving.ReceivingID = uuid.NewString()
	}
	cp := *receiving
	m.receivings[receiving.ReceivingID] = &cp
	return nil
}

func (m *mockReceivingRepo) Update(_ context.Context, receiving *model.Receiving) error {
	cp := *receiving
	m.receivings[receiving.ReceivingID] = &cp
	return nil
}

func (m *mockReceivingRepo) GetByID(_ context.Context, id string) (*model.Receiving, error) {
	if r, ok := m.receivings[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReceivingRepo) GetByDriverAndBooking(_ context.Context, driverID, bookingID string) (*model.Receiving, error) {
	for _, r := range m.receivings {
		if r.DriverID == driverID && r.BookingID == bookingID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReceivingRepo) ListByBooking(_ context.Context, bookingID string) ([]model.Receiving, error) {
	var result []model.Receiving
	for _, r := range m.receivings {
		if r.BookingID == bookingID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReceivingRepo) ListByDriver(_ context.Context, driverID string, offset, limit int) ([]model.Receiving, int64, error) {
	var all []model.Receiving
	for _, r := range m.receivings {
		if r.DriverID == driverID {
			all = append(all, *r)
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock LabelRepository ──

type mockLabelRepo struct {
	labels map[string]*model.Label
}

func (m *mockLabelRepo) Create(_ context.Context, label *model.Label) error {
	for _, l := range m.labels {
		if l.Name == label.Name {
			return pkgerrors.ErrRecordExists
		}
	}
	if label.LabelID == "" {
		label.LabelID = uuid.NewString()
	}
	cp := *label
	m.labels[label.LabelID] = &cp
	return nil
}

func (m *mockLabelRepo) Update(_ context.Context, label *model.Label) error {
	for _, l := range m.labels {
		if l.Name == label.Name && l.LabelID != label.LabelID {
			return pkgerrors.ErrRecordExists
		}
	}
	cp := *label
	m.labels[label.LabelID] = &cp
	return nil
}

func (m *mockLabelRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.labels[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.labels, id)
	return nil
}

func (m *mockLabelRepo) GetByID(_ context.Context, id string) (*model.Label, error) {
	if l, ok := m.labels[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLabelRepo) GetByIDs(_ context.Context, ids []string) ([]model.Label, error) {
	var result []model.Label
	for _, id := range ids {
		if l, ok := m.labels[id]; ok {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLabelRepo) List(_ context.Context) ([]model.Label, error) {
	var result []model.Label
	for _, l := range m.labels {
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── 测试辅助 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// testStore 聚合全部 mock，便于测试直接检查内部状态
type testStore struct {
	drivers    *mockDriverRepo
	admins     *mockAdminRepo
	txns       *mockTransactionRepo
	bookings   *mockBookingRepo
	duties     *mockDutyRecordRepo
	expenses   *mockExpenseRepo
	receivings *mockReceivingRepo
	labels     *mockLabelRepo
	repo       *repository.Repository
}

func newTestStore() *testStore {
	drivers := newMockDriverRepo()
	admins := newMockAdminRepo()
	st := &testStore{
		drivers:    drivers,
		admins:     admins,
		txns:       &mockTransactionRepo{},
		bookings:   &mockBookingRepo{bookings: make(map[string]*model.Booking), drivers: drivers},
		duties:     &mockDutyRecordRepo{records: make(map[string]*model.DutyRecord)},
		expenses:   &mockExpenseRepo{expenses: make(map[string]*model.Expense)},
		receivings: &mockReceivingRepo{receivings: make(map[string]*model.Receiving)},
		labels:     &mockLabelRepo{labels: make(map[string]*model.Label)},
	}
	st.repo = &repository.Repository{
		Driver:      drivers,
		Admin:       admins,
		Wallet:      &mockWalletRepo{drivers: drivers, admins: admins},
		Transaction: st.txns,
		Booking:     st.bookings,
		DutyRecord:  st.duties,
		Expense:     st.expenses,
		Receiving:   st.receivings,
		Label:       st.labels,
	}
	return st
}

func (st *testStore) addDriver(id, code string, balance string) *model.Driver {
	d := &model.Driver{
		DriverID:      id,
		Name:          "Driver " + code,
		DriverCode:    code,
		IsActive:      true,
		WalletBalance: decimal.RequireFromString(balance),
	}
	st.drivers.drivers[id] = d
	return d
}

func (st *testStore) addAdmin(id, role string, balance string) *model.Admin {
	a := &model.Admin{
		AdminID:       id,
		Name:          "Admin " + id,
		Email:         id + "@fleet.test",
		Role:          role,
		WalletBalance: decimal.RequireFromString(balance),
	}
	st.admins.admins[id] = a
	return a
}

func (st *testStore) addBooking(id string, driverID *string) *model.Booking {
	b := &model.Booking{
		BookingID:  id,
		DriverID:   driverID,
		Settlement: model.Settlement{Status: model.SettlementPending},
	}
	b.Version = 1
	st.bookings.bookings[id] = b
	return b
}

func (st *testStore) driverBalance(id string) decimal.Decimal {
	return st.drivers.drivers[id].WalletBalance
}

func (st *testStore) adminBalance(id string) decimal.Decimal {
	return st.admins.admins[id].WalletBalance
}
