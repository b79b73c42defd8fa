package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const listPageSize = 100

// HTTPConfig addresses a hosted document collection.
type HTTPConfig struct {
	Endpoint     string
	ProjectID    string
	DatabaseID   string
	CollectionID string
	APIKey       string
	Timeout      time.Duration
}

// HTTPCollection is a client for an Appwrite-compatible REST document API.
type HTTPCollection struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPCollection builds a client. A nil client gets a default with cfg.Timeout.
func NewHTTPCollection(cfg HTTPConfig, client *http.Client) *HTTPCollection {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPCollection{cfg: cfg, client: client}
}

type documentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

type query struct {
	Method    string        `json:"method"`
	Attribute string        `json:"attribute,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
}

// List pages through the collection until every document is read.
func (c *HTTPCollection) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	for offset := 0; ; offset += listPageSize {
		params, err := encodeQueries(
			query{Method: "limit", Values: []interface{}{listPageSize}},
			query{Method: "offset", Values: []interface{}{offset}},
		)
		if err != nil {
			return nil, &StoreError{Kind: KindOther, Op: "list", Err: err}
		}
		var page documentList
		if err := c.do(ctx, "list", http.MethodGet, c.documentsURL(""), params, nil, &page); err != nil {
			return nil, err
		}
		docs = append(docs, page.Documents...)
		if len(page.Documents) < listPageSize || len(docs) >= page.Total {
			break
		}
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// Get fetches one document.
func (c *HTTPCollection) Get(ctx context.Context, key string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, "get", http.MethodGet, c.documentsURL(key), nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Create stores attrs under key.
func (c *HTTPCollection) Create(ctx context.Context, key string, attrs Attributes) (*Document, error) {
	body := map[string]interface{}{"documentId": key, "data": attrs}
	var doc Document
	if err := c.do(ctx, "create", http.MethodPost, c.documentsURL(""), nil, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update patches the stored document with attrs.
func (c *HTTPCollection) Update(ctx context.Context, key string, attrs Attributes) (*Document, error) {
	body := map[string]interface{}{"data": attrs}
	var doc Document
	if err := c.do(ctx, "update", http.MethodPatch, c.documentsURL(key), nil, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes the document.
func (c *HTTPCollection) Delete(ctx context.Context, key string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.documentsURL(key), nil, nil, nil)
}

// Search issues an "or" of full-text search queries over fields.
func (c *HTTPCollection) Search(ctx context.Context, q string, fields ...string) ([]Document, error) {
	if len(fields) == 0 {
		return nil, &StoreError{Kind: KindOther, Op: "search", Err: errors.New("no search fields")}
	}
	clauses := make([]interface{}, 0, len(fields))
	for _, field := range fields {
		clauses = append(clauses, query{Method: "search", Attribute: field, Values: []interface{}{q}})
	}
	params, err := encodeQueries(query{Method: "or", Values: clauses})
	if err != nil {
		return nil, &StoreError{Kind: KindOther, Op: "search", Err: err}
	}
	var page documentList
	if err := c.do(ctx, "search", http.MethodGet, c.documentsURL(""), params, nil, &page); err != nil {
		return nil, err
	}
	if page.Documents == nil {
		return []Document{}, nil
	}
	return page.Documents, nil
}

func (c *HTTPCollection) documentsURL(key string) string {
	u := fmt.Sprintf("%s/databases/%s/collections/%s/documents",
		c.cfg.Endpoint,
		url.PathEscape(c.cfg.DatabaseID),
		url.PathEscape(c.cfg.CollectionID),
	)
	if key != "" {
		u += "/" + url.PathEscape(key)
	}
	return u
}

func (c *HTTPCollection) do(ctx context.Context, op, method, target string, params url.Values, body interface{}, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &StoreError{Kind: KindOther, Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &StoreError{Kind: KindOther, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", c.cfg.ProjectID)
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Appwrite-Key", c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &StoreError{Kind: KindOther, Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &StoreError{
			Kind:   kindFromStatus(resp.StatusCode),
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s %s: %s", method, target, msg),
		}
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &StoreError{Kind: KindOther, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func encodeQueries(queries ...query) (url.Values, error) {
	params := url.Values{}
	for _, q := range queries {
		raw, err := json.Marshal(q)
		if err != nil {
			return nil, err
		}
		params.Add("queries[]", string(raw))
	}
	return params, nil
}
