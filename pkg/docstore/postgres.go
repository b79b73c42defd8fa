package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const documentsSchema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func (r documentRow) document() (Document, error) {
	attrs := Attributes{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &attrs); err != nil {
			return Document{}, fmt.Errorf("decode document %s: %w", r.ID, err)
		}
	}
	return Document{Key: r.ID, Attributes: attrs}, nil
}

// PostgresCollection stores one named collection as JSONB rows.
type PostgresCollection struct {
	db   *sqlx.DB
	name string
}

// NewPostgresCollection binds a collection name to the documents table.
func NewPostgresCollection(db *sqlx.DB, name string) *PostgresCollection {
	return &PostgresCollection{db: db, name: name}
}

// EnsureSchema creates the documents table when it does not exist.
func (c *PostgresCollection) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, documentsSchema); err != nil {
		return newStoreError("ensure schema", err)
	}
	return nil
}

// List returns every document in creation order.
func (c *PostgresCollection) List(ctx context.Context) ([]Document, error) {
	const query = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at ASC, id ASC`
	var rows []documentRow
	if err := c.db.SelectContext(ctx, &rows, query, c.name); err != nil {
		return nil, newStoreError("list", err)
	}
	return decodeRows("list", rows)
}

// Get returns a single document by key.
func (c *PostgresCollection) Get(ctx context.Context, key string) (*Document, error) {
	const query = `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`
	var row documentRow
	if err := c.db.GetContext(ctx, &row, query, c.name, key); err != nil {
		return nil, newStoreError("get", err)
	}
	return decodeRow("get", row)
}

// Create inserts a document under key.
func (c *PostgresCollection) Create(ctx context.Context, key string, attrs Attributes) (*Document, error) {
	payload, err := json.Marshal(attrs)
	if err != nil {
		return nil, &StoreError{Kind: KindOther, Op: "create", Err: err}
	}
	const query = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb) RETURNING id, data`
	var row documentRow
	if err := c.db.GetContext(ctx, &row, query, c.name, key, string(payload)); err != nil {
		return nil, newStoreError("create", err)
	}
	return decodeRow("create", row)
}

// Update merges attrs into the stored document.
func (c *PostgresCollection) Update(ctx context.Context, key string, attrs Attributes) (*Document, error) {
	payload, err := json.Marshal(attrs)
	if err != nil {
		return nil, &StoreError{Kind: KindOther, Op: "update", Err: err}
	}
	const query = `UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2 RETURNING id, data`
	var row documentRow
	if err := c.db.GetContext(ctx, &row, query, c.name, key, string(payload)); err != nil {
		return nil, newStoreError("update", err)
	}
	return decodeRow("update", row)
}

// Delete removes a document by key.
func (c *PostgresCollection) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	res, err := c.db.ExecContext(ctx, query, c.name, key)
	if err != nil {
		return newStoreError("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return newStoreError("delete", err)
	}
	if affected == 0 {
		return newStoreError("delete", sql.ErrNoRows)
	}
	return nil
}

// Search matches query against the given JSON fields with ILIKE.
func (c *PostgresCollection) Search(ctx context.Context, query string, fields ...string) ([]Document, error) {
	if len(fields) == 0 {
		return nil, &StoreError{Kind: KindOther, Op: "search", Err: errors.New("no search fields")}
	}
	conditions := make([]string, 0, len(fields))
	args := []interface{}{c.name, "%" + escapeLike(query) + "%"}
	for _, field := range fields {
		args = append(args, field)
		conditions = append(conditions, fmt.Sprintf("data->>$%d ILIKE $2", len(args)))
	}
	stmt := fmt.Sprintf("SELECT id, data FROM documents WHERE collection = $1 AND (%s) ORDER BY created_at ASC, id ASC", strings.Join(conditions, " OR "))

	var rows []documentRow
	if err := c.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, newStoreError("search", err)
	}
	return decodeRows("search", rows)
}

func decodeRow(op string, row documentRow) (*Document, error) {
	doc, err := row.document()
	if err != nil {
		return nil, &StoreError{Kind: KindOther, Op: op, Err: err}
	}
	return &doc, nil
}

func decodeRows(op string, rows []documentRow) ([]Document, error) {
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, &StoreError{Kind: KindOther, Op: op, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func escapeLike(raw string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(raw)
}
