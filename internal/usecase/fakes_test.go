package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// =====================
// In-memory fakes（tx付き）
// =====================

type fakeState struct {
	products      map[int64]model.Product
	nextProductID int64

	logs      []model.StockLog
	nextLogID int64

	sales      map[int64]model.Sale
	nextSaleID int64

	purchases      map[int64]model.Purchase
	nextPurchaseID int64

	categories     map[int64]model.Category
	nextCategoryID int64

	customers map[int64]model.Customer
	suppliers map[int64]model.Supplier

	audits []model.AuditLog
}

func newFakeState() *fakeState {
	return &fakeState{
		products:       map[int64]model.Product{},
		nextProductID:  1,
		nextLogID:      1,
		sales:          map[int64]model.Sale{},
		nextSaleID:     1,
		purchases:      map[int64]model.Purchase{},
		nextPurchaseID: 1,
		categories:     map[int64]model.Category{},
		nextCategoryID: 1,
		customers:      map[int64]model.Customer{},
		suppliers:      map[int64]model.Supplier{},
	}
}

func (s *fakeState) clone() *fakeState {
	c := newFakeState()
	c.nextProductID = s.nextProductID
	c.nextLogID = s.nextLogID
	c.nextSaleID = s.nextSaleID
	c.nextPurchaseID = s.nextPurchaseID
	c.nextCategoryID = s.nextCategoryID

	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.sales {
		v.Items = append([]model.SaleItem(nil), v.Items...)
		c.sales[k] = v
	}
	for k, v := range s.purchases {
		v.Items = append([]model.PurchaseItem(nil), v.Items...)
		c.purchases[k] = v
	}
	c.logs = append([]model.StockLog(nil), s.logs...)
	c.audits = append([]model.AuditLog(nil), s.audits...)
	return c
}

func (s *fakeState) restore(from *fakeState) {
	*s = *from
}

func (s *fakeState) addProduct(p model.Product) model.Product {
	if p.ID == 0 {
		p.ID = s.nextProductID
		s.nextProductID++
	} else if p.ID >= s.nextProductID {
		s.nextProductID = p.ID + 1
	}
	p.LowStock = p.Stock < p.MinimumQuantity
	s.products[p.ID] = p
	return p
}

func (s *fakeState) addCategory(c model.Category) model.Category {
	if c.ID == 0 {
		c.ID = s.nextCategoryID
		s.nextCategoryID++
	}
	s.categories[c.ID] = c
	return c
}

func (s *fakeState) addCustomer(c model.Customer) model.Customer {
	if c.ID == 0 {
		c.ID = int64(len(s.customers) + 1)
	}
	s.customers[c.ID] = c
	return c
}

func (s *fakeState) addSupplier(sp model.Supplier) model.Supplier {
	if sp.ID == 0 {
		sp.ID = int64(len(s.suppliers) + 1)
	}
	s.suppliers[sp.ID] = sp
	return sp
}

// ---- ProductRepository ----

type fakeProductRepo struct{ s *fakeState }

func (r *fakeProductRepo) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.s.products {
		if p.DeletedAt.Valid {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) &&
			!strings.Contains(strings.ToLower(p.SKU), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindBySKU(ctx context.Context, sku string) (model.Product, bool, error) {
	for _, p := range r.s.products {
		if p.SKU == sku && !p.DeletedAt.Valid {
			return p, true, nil
		}
	}
	return model.Product{}, false, nil
}

func (r *fakeProductRepo) ListLowStock(ctx context.Context, threshold *int64) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.s.products {
		if p.DeletedAt.Valid {
			continue
		}
		if threshold != nil {
			if p.Stock < *threshold {
				out = append(out, p)
			}
		} else if p.LowStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if _, found, _ := r.FindBySKU(ctx, p.SKU); found {
		return model.Product{}, repo.ErrDuplicate
	}
	return r.s.addProduct(p), nil
}

func (r *fakeProductRepo) Update(ctx context.Context, p model.Product) error {
	cur, ok := r.s.products[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	//在庫はここでは触らない
	p.Stock = cur.Stock
	p.LowStock = cur.Stock < p.MinimumQuantity
	p.DeletedAt = cur.DeletedAt
	r.s.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) SoftDelete(ctx context.Context, id int64) error {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.s.products[id] = p
	return nil
}

// ---- CategoryRepository ----

type fakeCategoryRepo struct{ s *fakeState }

func (r *fakeCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) FindByID(ctx context.Context, id int64) (model.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c model.Category) (model.Category, error) {
	for _, existing := range r.s.categories {
		if existing.Name == c.Name {
			return model.Category{}, repo.ErrDuplicate
		}
	}
	return r.s.addCategory(c), nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, c model.Category) error {
	if _, ok := r.s.categories[c.ID]; !ok {
		return repo.ErrNotFound
	}
	for _, existing := range r.s.categories {
		if existing.ID != c.ID && existing.Name == c.Name {
			return repo.ErrDuplicate
		}
	}
	r.s.categories[c.ID] = c
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.categories[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.categories, id)
	return nil
}

// ---- InventoryRepository ----

type fakeInventoryRepo struct{ s *fakeState }

func (r *fakeInventoryRepo) AddStockChecked(ctx context.Context, productID int64, delta int64) (model.Product, error) {
	p, ok := r.s.products[productID]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return model.Product{}, repo.ErrInsufficientStock
	}
	p.Stock += delta
	p.LowStock = p.Stock < p.MinimumQuantity
	r.s.products[productID] = p
	return p, nil
}

// ---- StockLogRepository ----

type fakeStockLogRepo struct{ s *fakeState }

func (r *fakeStockLogRepo) Create(ctx context.Context, log model.StockLog) (model.StockLog, error) {
	log.ID = r.s.nextLogID
	r.s.nextLogID++
	log.CreatedAt = time.Now()
	r.s.logs = append(r.s.logs, log)
	return log, nil
}

func (r *fakeStockLogRepo) List(ctx context.Context, f repo.StockLogFilter) ([]model.StockLog, int64, error) {
	var out []model.StockLog
	for _, l := range r.s.logs {
		if f.ProductID != nil && l.ProductID != *f.ProductID {
			continue
		}
		if f.Type != nil && l.Type != *f.Type {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// ---- SaleRepository ----

type fakeSaleRepo struct{ s *fakeState }

func (r *fakeSaleRepo) Create(ctx context.Context, sale model.Sale) (model.Sale, error) {
	for _, existing := range r.s.sales {
		if existing.InvoiceNumber == sale.InvoiceNumber {
			return model.Sale{}, repo.ErrDuplicate
		}
	}
	sale.ID = r.s.nextSaleID
	r.s.nextSaleID++
	for i := range sale.Items {
		sale.Items[i].ID = int64(i + 1)
		sale.Items[i].SaleID = sale.ID
	}
	r.s.sales[sale.ID] = sale
	return sale, nil
}

func (r *fakeSaleRepo) FindByID(ctx context.Context, id int64) (model.Sale, error) {
	sale, ok := r.s.sales[id]
	if !ok {
		return model.Sale{}, repo.ErrNotFound
	}
	sale.Items = append([]model.SaleItem(nil), sale.Items...)
	return sale, nil
}

func (r *fakeSaleRepo) List(ctx context.Context, f repo.SaleListFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, sale := range r.s.sales {
		if f.CustomerID != nil && (sale.CustomerID == nil || *sale.CustomerID != *f.CustomerID) {
			continue
		}
		out = append(out, sale)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) Update(ctx context.Context, sale model.Sale) error {
	cur, ok := r.s.sales[sale.ID]
	if !ok {
		return repo.ErrNotFound
	}
	sale.Items = cur.Items
	r.s.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) ReplaceItems(ctx context.Context, saleID int64, items []model.SaleItem) error {
	sale, ok := r.s.sales[saleID]
	if !ok {
		return repo.ErrNotFound
	}
	copied := append([]model.SaleItem(nil), items...)
	for i := range copied {
		copied[i].ID = int64(i + 1)
		copied[i].SaleID = saleID
	}
	sale.Items = copied
	r.s.sales[saleID] = sale
	return nil
}

func (r *fakeSaleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.sales[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.sales, id)
	return nil
}

// ---- PurchaseRepository ----

type fakePurchaseRepo struct{ s *fakeState }

func (r *fakePurchaseRepo) Create(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	for _, existing := range r.s.purchases {
		if existing.InvoiceNumber == p.InvoiceNumber {
			return model.Purchase{}, repo.ErrDuplicate
		}
	}
	p.ID = r.s.nextPurchaseID
	r.s.nextPurchaseID++
	for i := range p.Items {
		p.Items[i].ID = int64(i + 1)
		p.Items[i].PurchaseID = p.ID
	}
	r.s.purchases[p.ID] = p
	return p, nil
}

func (r *fakePurchaseRepo) FindByID(ctx context.Context, id int64) (model.Purchase, error) {
	p, ok := r.s.purchases[id]
	if !ok {
		return model.Purchase{}, repo.ErrNotFound
	}
	p.Items = append([]model.PurchaseItem(nil), p.Items...)
	return p, nil
}

func (r *fakePurchaseRepo) List(ctx context.Context, f repo.PurchaseListFilter) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for _, p := range r.s.purchases {
		if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) Update(ctx context.Context, p model.Purchase) error {
	cur, ok := r.s.purchases[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Items = cur.Items
	r.s.purchases[p.ID] = p
	return nil
}

func (r *fakePurchaseRepo) ReplaceItems(ctx context.Context, purchaseID int64, items []model.PurchaseItem) error {
	p, ok := r.s.purchases[purchaseID]
	if !ok {
		return repo.ErrNotFound
	}
	copied := append([]model.PurchaseItem(nil), items...)
	for i := range copied {
		copied[i].ID = int64(i + 1)
		copied[i].PurchaseID = purchaseID
	}
	p.Items = copied
	r.s.purchases[purchaseID] = p
	return nil
}

func (r *fakePurchaseRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.purchases[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.purchases, id)
	return nil
}

// ---- CustomerRepository ----

type fakeCustomerRepo struct{ s *fakeState }

func (r *fakeCustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	var out []model.Customer
	for _, c := range r.s.customers {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCustomerRepo) FindByID(ctx context.Context, id int64) (model.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok {
		return model.Customer{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	return r.s.addCustomer(c), nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, c model.Customer) error {
	cur, ok := r.s.customers[c.ID]
	if !ok {
		return repo.ErrNotFound
	}
	c.Balance = cur.Balance
	r.s.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.customers[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.customers, id)
	return nil
}

func (r *fakeCustomerRepo) AddBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	c, ok := r.s.customers[id]
	if !ok {
		return repo.ErrNotFound
	}
	next := c.Balance.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	c.Balance = next
	r.s.customers[id] = c
	return nil
}

// ---- SupplierRepository ----

type fakeSupplierRepo struct{ s *fakeState }

func (r *fakeSupplierRepo) List(ctx context.Context) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, sp := range r.s.suppliers {
		out = append(out, sp)
	}
	return out, nil
}

func (r *fakeSupplierRepo) FindByID(ctx context.Context, id int64) (model.Supplier, error) {
	sp, ok := r.s.suppliers[id]
	if !ok {
		return model.Supplier{}, repo.ErrNotFound
	}
	return sp, nil
}

func (r *fakeSupplierRepo) Create(ctx context.Context, sp model.Supplier) (model.Supplier, error) {
	return r.s.addSupplier(sp), nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, sp model.Supplier) error {
	cur, ok := r.s.suppliers[sp.ID]
	if !ok {
		return repo.ErrNotFound
	}
	sp.Balance = cur.Balance
	r.s.suppliers[sp.ID] = sp
	return nil
}

func (r *fakeSupplierRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.suppliers[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.suppliers, id)
	return nil
}

func (r *fakeSupplierRepo) AddBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	sp, ok := r.s.suppliers[id]
	if !ok {
		return repo.ErrNotFound
	}
	next := sp.Balance.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	sp.Balance = next
	r.s.suppliers[id] = sp
	return nil
}

// ---- AuditLogRepository ----

type fakeAuditRepo struct{ s *fakeState }

func (r *fakeAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = int64(len(r.s.audits) + 1)
	r.s.audits = append(r.s.audits, log)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	return append([]model.AuditLog(nil), r.s.audits...), int64(len(r.s.audits)), nil
}

// ---- TxRepos / TransactionManager ----

type fakeTxRepos struct{ s *fakeState }

func (r *fakeTxRepos) Products() repo.ProductRepository    { return &fakeProductRepo{s: r.s} }
func (r *fakeTxRepos) Categories() repo.CategoryRepository { return &fakeCategoryRepo{s: r.s} }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository { return &fakeInventoryRepo{s: r.s} }
func (r *fakeTxRepos) StockLogs() repo.StockLogRepository  { return &fakeStockLogRepo{s: r.s} }
func (r *fakeTxRepos) Sales() repo.SaleRepository          { return &fakeSaleRepo{s: r.s} }
func (r *fakeTxRepos) Purchases() repo.PurchaseRepository  { return &fakePurchaseRepo{s: r.s} }
func (r *fakeTxRepos) Customers() repo.CustomerRepository  { return &fakeCustomerRepo{s: r.s} }
func (r *fakeTxRepos) Suppliers() repo.SupplierRepository  { return &fakeSupplierRepo{s: r.s} }
func (r *fakeTxRepos) AuditLogs() repo.AuditLogRepository  { return &fakeAuditRepo{s: r.s} }

// エラー時はスナップショットに巻き戻す（rollback相当）。
type fakeTxManager struct{ s *fakeState }

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snapshot := m.s.clone()
	if err := fn(&fakeTxRepos{s: m.s}); err != nil {
		m.s.restore(snapshot)
		return err
	}
	return nil
}

// ---- 共通部品 ----

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.n)
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }
