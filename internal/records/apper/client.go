// Package apper is a client for the hosted record service. Requests and
// responses use the service's JSON payload shapes.
package apper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/records"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	BaseURL   string
	ProjectID string
	APIKey    string
	Timeout   time.Duration
	// HTTPClient overrides the pooled default client.
	HTTPClient *http.Client
}

type Client struct {
	base    *url.URL
	project string
	apiKey  string
	http    *http.Client
}

var _ records.Store = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("missing APPER_BASE_URL")
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("missing APPER_PROJECT_ID")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = newHTTPClientWithPooling(timeout)
	}
	return &Client{base: base, project: cfg.ProjectID, apiKey: cfg.APIKey, http: hc}, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and keep-alive settings for the record service.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Wire payloads.
type (
	fieldRef struct {
		Field struct {
			Name string `json:"Name"`
		} `json:"field"`
	}

	whereClause struct {
		FieldName string   `json:"FieldName"`
		Operator  string   `json:"Operator"`
		Values    []string `json:"Values"`
		Include   bool     `json:"Include"`
	}

	orderClause struct {
		FieldName string `json:"fieldName"`
		SortType  string `json:"sorttype"`
	}

	pagingInfo struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}

	fetchParams struct {
		Fields     []fieldRef    `json:"fields,omitempty"`
		Where      []whereClause `json:"where,omitempty"`
		OrderBy    []orderClause `json:"orderBy,omitempty"`
		PagingInfo *pagingInfo   `json:"pagingInfo,omitempty"`
	}

	recordsParams struct {
		Records []records.Record `json:"records"`
	}

	deleteParams struct {
		RecordIDs []int64 `json:"RecordIds"`
	}

	resultPayload struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    records.Record `json:"data"`
	}

	response struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Results []resultPayload `json:"results"`
	}
)

func fieldRefs(names []string) []fieldRef {
	out := make([]fieldRef, len(names))
	for i, n := range names {
		out[i].Field.Name = n
	}
	return out
}

func toFetchParams(q records.Query) fetchParams {
	p := fetchParams{Fields: fieldRefs(q.Fields)}
	for _, f := range q.Where {
		p.Where = append(p.Where, whereClause{
			FieldName: f.Field,
			Operator:  string(f.Operator),
			Values:    f.Values,
			Include:   true,
		})
	}
	for _, o := range q.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		p.OrderBy = append(p.OrderBy, orderClause{FieldName: o.Field, SortType: dir})
	}
	if q.Limit > 0 || q.Offset > 0 {
		p.PagingInfo = &pagingInfo{Limit: q.Limit, Offset: q.Offset}
	}
	return p
}

func (c *Client) endpoint(entity string, parts ...string) string {
	u := *c.base
	segs := append([]string{u.Path, "api", "projects", url.PathEscape(c.project), "tables", url.PathEscape(entity), "records"}, parts...)
	u.Path = strings.Join(segs, "/")
	return u.String()
}

// do sends a request and decodes the envelope. A response with
// success=false becomes an error carrying the service message.
func (c *Client) do(ctx context.Context, method, endpoint string, body any) (*response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, records.ErrNotFound
	}
	var out response
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !out.Success {
		msg := out.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, &ServiceError{Status: resp.StatusCode, Message: msg}
	}
	return &out, nil
}

// ServiceError is a failure reported by the record service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func decodeData[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	err := dec.Decode(&v)
	return v, err
}

func results(resp *response) []records.Result {
	out := make([]records.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, records.Result{Success: r.Success, Message: r.Message, Record: r.Data})
	}
	return out
}

func (c *Client) Fetch(ctx context.Context, entity string, q records.Query) ([]records.Record, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(entity, "query"), toFetchParams(q))
	if err != nil {
		return nil, err
	}
	recs, err := decodeData[[]records.Record](resp.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s records: %w", entity, err)
	}
	return recs, nil
}

func (c *Client) Get(ctx context.Context, entity string, id int64, fields []string) (records.Record, error) {
	endpoint := c.endpoint(entity, strconv.FormatInt(id, 10))
	if len(fields) > 0 {
		endpoint += "?" + url.Values{"fields": {strings.Join(fields, ",")}}.Encode()
	}
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	rec, err := decodeData[records.Record](resp.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s record: %w", entity, err)
	}
	if rec == nil {
		return nil, records.ErrNotFound
	}
	return rec, nil
}

func (c *Client) Create(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(entity), recordsParams{Records: recs})
	if err != nil {
		return nil, err
	}
	return results(resp), nil
}

func (c *Client) Update(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	resp, err := c.do(ctx, http.MethodPut, c.endpoint(entity), recordsParams{Records: recs})
	if err != nil {
		return nil, err
	}
	return results(resp), nil
}

func (c *Client) Delete(ctx context.Context, entity string, ids []int64) ([]records.Result, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.endpoint(entity), deleteParams{RecordIDs: ids})
	if err != nil {
		return nil, err
	}
	return results(resp), nil
}
