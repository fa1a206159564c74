// Package store persists validated orders and their audit trail in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"order-verification-service/internal/models"
)

var (
	// ErrNotFound is returned when no order matches the query.
	ErrNotFound = errors.New("order not found")

	// ErrDuplicateOrder is returned when an order reference was already
	// persisted.
	ErrDuplicateOrder = errors.New("order reference already exists")
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// breach.
const uniqueViolation = "23505"

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// PostgresStore persists orders and audit entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed order store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                  UUID PRIMARY KEY,
	order_ref           VARCHAR(50) NOT NULL UNIQUE,
	swift_code          VARCHAR(50),
	bank_name           VARCHAR(255),
	bank_country        VARCHAR(100),
	account_number      VARCHAR(100),
	beneficiary_name    VARCHAR(255),
	currency            VARCHAR(10),
	amount              NUMERIC(15,2) CHECK (amount > 0),
	agent_code          VARCHAR(10),
	client_code         VARCHAR(10),
	payout_company      VARCHAR(255),
	rate                NUMERIC(6,4),
	validation_messages TEXT,
	status              VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_order_ref ON orders (order_ref);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);
CREATE INDEX IF NOT EXISTS idx_orders_status_created_at ON orders (status, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_beneficiary_name ON orders (beneficiary_name);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         UUID PRIMARY KEY,
	action     VARCHAR(100) NOT NULL,
	details    TEXT,
	order_id   UUID REFERENCES orders (id),
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs (action);
CREATE INDEX IF NOT EXISTS idx_audit_logs_order_id ON audit_logs (order_id);
`

// Migrate creates the order and audit tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate order schema: %w", err)
	}
	return nil
}

// CreateOrder inserts a new order. The ID and timestamps are filled in
// when absent. A previously persisted order reference yields
// ErrDuplicateOrder.
func (s *PostgresStore) CreateOrder(ctx context.Context, ord *models.Order) error {
	if ord.ID == "" {
		ord.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ord.CreatedAt.IsZero() {
		ord.CreatedAt = now
	}
	ord.UpdatedAt = now
	if ord.Status == "" {
		ord.Status = models.StatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_ref, swift_code, bank_name, bank_country,
			account_number, beneficiary_name, currency, amount,
			agent_code, client_code, payout_company, rate,
			validation_messages, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		ord.ID, ord.OrderRef, ord.SwiftCode, ord.BankName, ord.BankCountry,
		ord.AccountNumber, ord.BeneficiaryName, ord.Currency, ord.Amount.String(),
		ord.AgentCode, ord.ClientCode, ord.PayoutCompany, ord.Rate.String(),
		ord.ValidationMessages, ord.Status.String(), ord.CreatedAt, ord.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, ord.OrderRef)
		}
		return fmt.Errorf("create order %s: %w", ord.OrderRef, err)
	}
	return nil
}

const orderColumns = `
	id, order_ref, swift_code, bank_name, bank_country,
	account_number, beneficiary_name, currency, amount,
	agent_code, client_code, payout_company, rate,
	validation_messages, status, created_at, updated_at`

// GetOrderByReference fetches one order by its order reference.
func (s *PostgresStore) GetOrderByReference(ctx context.Context, orderRef string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE order_ref = $1`, orderRef)

	ord, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, orderRef)
		}
		return nil, fmt.Errorf("get order %s: %w", orderRef, err)
	}
	return ord, nil
}

// GetPendingOrders fetches all orders still awaiting downstream
// processing, oldest first.
func (s *PostgresStore) GetPendingOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at`,
		models.StatusPending.String())
	if err != nil {
		return nil, fmt.Errorf("get pending orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending order: %w", err)
		}
		orders = append(orders, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to a new lifecycle state. Unknown
// references yield ErrNotFound.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderRef string, status models.OrderStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid order status: %s", status)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE order_ref = $3`,
		status.String(), time.Now().UTC(), orderRef)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", orderRef, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s status: %w", orderRef, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, orderRef)
	}
	return nil
}

// AppendAudit records an action taken against an order.
func (s *PostgresStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, details, order_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Action, entry.Details, nullable(entry.OrderID), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry %s: %w", entry.Action, err)
	}
	return nil
}

// GetAuditTrail fetches the audit entries of one order, newest first.
func (s *PostgresStore) GetAuditTrail(ctx context.Context, orderID string) ([]models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, details, COALESCE(order_id::text, ''), created_at
		 FROM audit_logs WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get audit trail for %s: %w", orderID, err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Details,
			&entry.OrderID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit trail: %w", err)
	}
	return entries, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		ord          models.Order
		amount, rate string
		status       string
	)
	err := row.Scan(
		&ord.ID, &ord.OrderRef, &ord.SwiftCode, &ord.BankName, &ord.BankCountry,
		&ord.AccountNumber, &ord.BeneficiaryName, &ord.Currency, &amount,
		&ord.AgentCode, &ord.ClientCode, &ord.PayoutCompany, &rate,
		&ord.ValidationMessages, &status, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if ord.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if ord.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parse stored rate %q: %w", rate, err)
	}
	ord.Status = models.OrderStatus(status)
	return &ord, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
