package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// GatewayWriter writes events, journals and order state to Postgres
// using multi-row INSERTs. Writes are idempotent via ON CONFLICT.
type GatewayWriter struct {
	db *sql.DB
}

// EventRow is a row in gateway.events
type EventRow struct {
	EventID   string
	Sequence  int64
	EventType string
	UserID    *string
	Payload   []byte // JSON-encoded event payload
	Timestamp time.Time
}

// JournalRow is a row in gateway.journal
type JournalRow struct {
	JournalID     string
	BatchID       string
	OperationRef  string
	Sequence      int64
	DebitAccount  string
	CreditAccount string
	AssetID       int16
	Amount        int64
	JournalType   string
	Timestamp     time.Time
}

// OrderRow is a row in gateway.orders. Re-inserting a key updates the
// status, so the table always holds the latest order state.
type OrderRow struct {
	OrderKey     string
	OwnerID      string
	Account      string
	IndexAsset   string
	IsLong       bool
	Margin       int64
	ExecutionFee string // native units, decimal string
	SubmittedAt  time.Time
	Status       string
	UpdatedAt    time.Time
}

func NewGatewayWriter(db *sql.DB) *GatewayWriter {
	return &GatewayWriter{db: db}
}

func (w *GatewayWriter) DB() *sql.DB {
	return w.db
}

// WriteEventBatch inserts events; duplicate event IDs are skipped
func (w *GatewayWriter) WriteEventBatch(ctx context.Context, tx *sql.Tx, events []EventRow) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO gateway.events
		(event_id, sequence, event_type, user_id, payload, timestamp)
		VALUES `

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*6)

	for i, e := range events {
		base := i * 6
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, e.EventID, e.Sequence, e.EventType, e.UserID, e.Payload, e.Timestamp)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (event_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteJournalBatch inserts journal entries; duplicates are skipped
func (w *GatewayWriter) WriteJournalBatch(ctx context.Context, tx *sql.Tx, journals []JournalRow) error {
	if len(journals) == 0 {
		return nil
	}

	query := `INSERT INTO gateway.journal
		(journal_id, batch_id, operation_ref, sequence, debit_account, credit_account, asset_id, amount, journal_type, timestamp)
		VALUES `

	values := make([]string, 0, len(journals))
	args := make([]interface{}, 0, len(journals)*10)

	for i, j := range journals {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			j.JournalID, j.BatchID, j.OperationRef, j.Sequence,
			j.DebitAccount, j.CreditAccount, j.AssetID, j.Amount,
			j.JournalType, j.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (journal_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteOrderBatch upserts order state keyed by order key
func (w *GatewayWriter) WriteOrderBatch(ctx context.Context, tx *sql.Tx, orders []OrderRow) error {
	if len(orders) == 0 {
		return nil
	}

	query := `INSERT INTO gateway.orders
		(order_key, owner_id, account, index_asset, is_long, margin, execution_fee, submitted_at, status, updated_at)
		VALUES `

	values := make([]string, 0, len(orders))
	args := make([]interface{}, 0, len(orders)*10)

	for i, o := range orders {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			o.OrderKey, o.OwnerID, o.Account, o.IndexAsset, o.IsLong,
			o.Margin, o.ExecutionFee, o.SubmittedAt, o.Status, o.UpdatedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (order_key) DO UPDATE SET
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at`

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
