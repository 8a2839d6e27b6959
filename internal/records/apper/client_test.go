package apper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/records"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, ProjectID: "proj", APIKey: "secret", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURLAndProject(t *testing.T) {
	_, err := New(Config{ProjectID: "p"})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "http://example.test"})
	assert.Error(t, err)
}

func TestFetchSendsQueryShape(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects/proj/tables/transaction_c/records/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"data":[{"Id":3,"Name":"Coffee","amount_c":3.5}]}`))
	})

	recs, err := c.Fetch(context.Background(), "transaction_c", records.Query{
		Fields:  []string{"Id", "amount_c"},
		Where:   []records.Filter{records.Where("date_c", records.StartsWith, "2024-03")},
		OrderBy: []records.Order{{Field: "date_c", Desc: true}},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(3), recs[0].ID())
	assert.Equal(t, json.Number("3.5"), recs[0]["amount_c"])

	assert.Equal(t, []any{
		map[string]any{"field": map[string]any{"Name": "Id"}},
		map[string]any{"field": map[string]any{"Name": "amount_c"}},
	}, got["fields"])
	assert.Equal(t, []any{map[string]any{
		"FieldName": "date_c", "Operator": "StartsWith", "Values": []any{"2024-03"}, "Include": true,
	}}, got["where"])
	assert.Equal(t, []any{map[string]any{"fieldName": "date_c", "sorttype": "DESC"}}, got["orderBy"])
	assert.Equal(t, map[string]any{"limit": float64(1), "offset": float64(0)}, got["pagingInfo"])
}

func TestGetNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/proj/tables/budget_c/records/9", r.URL.Path)
		assert.Equal(t, "Id,Name", r.URL.Query().Get("fields"))
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Get(context.Background(), "budget_c", 9, []string{"Id", "Name"})
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestCreateReturnsPerRecordResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Records []map[string]any `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Records, 2)
		w.Write([]byte(`{"success":true,"results":[
			{"success":true,"data":{"Id":1,"Name":"Food"}},
			{"success":false,"message":"duplicate name"}
		]}`))
	})
	res, err := c.Create(context.Background(), "category_c", []records.Record{{"Name": "Food"}, {"Name": "Food"}})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].Success)
	assert.Equal(t, int64(1), res[0].Record.ID())
	assert.False(t, res[1].Success)
	assert.Equal(t, "duplicate name", res[1].Message)
}

func TestDeleteSendsRecordIds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{float64(4), float64(5)}, body["RecordIds"])
		w.Write([]byte(`{"success":true,"results":[{"success":true},{"success":true}]}`))
	})
	res, err := c.Delete(context.Background(), "budget_c", []int64{4, 5})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestServiceFailureBecomesError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"quota exceeded"}`))
	})
	_, err := c.Update(context.Background(), "budget_c", []records.Record{{"Id": 1}})
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "quota exceeded", se.Message)
}
