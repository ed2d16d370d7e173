package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

func testDoc() entity.Document {
	return entity.Document{Name: "po.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
}

func newTestServer(t *testing.T, path string, handler func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/"}, nil)
}

func TestExtractStandard_SendsCustomerAndUser(t *testing.T) {
	var customer, user string
	c := newTestServer(t, PathStandard, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		customer = r.FormValue("customer")
		user = r.FormValue("user")
		_, _ = w.Write([]byte(`{"Purchase Order Number":"PO-1","Quantity":12}`))
	})

	id := &entity.Identity{Username: "u", CustomerCode: "BA"}
	got, err := c.ExtractStandard(context.Background(), Request{Document: testDoc(), CustomerCode: "BA", Identity: id})

	require.NoError(t, err)
	assert.Equal(t, "BA", customer)
	assert.JSONEq(t, `{"isAdmin":false,"customerCode":"BA"}`, user)
	assert.Equal(t, "PO-1", got["Purchase Order Number"])
	assert.Equal(t, json.Number("12"), got["Quantity"])
}

func TestExtractStandard_NoIdentityOmitsUser(t *testing.T) {
	var hasUser bool
	c := newTestServer(t, PathStandard, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hasUser = r.MultipartForm.Value["user"]
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.ExtractStandard(context.Background(), Request{Document: testDoc(), CustomerCode: "BA"})
	require.NoError(t, err)
	assert.False(t, hasUser)
}

func TestExtractStandard_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
		contains  string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, false, "boom"},
		{"error key on 200", http.StatusOK, `{"error":"unreadable scan"}`, false, "unreadable scan"},
		{"array body", http.StatusOK, `[{"a":1}]`, true, ""},
		{"not json", http.StatusOK, `<html>`, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, PathStandard, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.ExtractStandard(context.Background(), Request{Document: testDoc(), CustomerCode: "BA"})
			require.Error(t, err)
			assert.Equal(t, tt.malformed, errors.Is(err, common.ErrMalformedPayload))
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestExtractLineItems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"array", `[{"Material Number":"M1"},{"Material Number":"M2"},{"Material Number":"M3"}]`, 3},
		{"empty array", `[]`, 0},
		{"single object", `{"Material Number":"M1"}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, PathDefault, func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Empty(t, r.FormValue("customer"))
				_, _ = w.Write([]byte(tt.body))
			})
			items, err := c.ExtractLineItems(context.Background(), testDoc())
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestExtractLineItems_Errors(t *testing.T) {
	c := newTestServer(t, PathDefault, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"no table found"}`))
	})
	_, err := c.ExtractLineItems(context.Background(), testDoc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no table found")

	c = newTestServer(t, PathDefault, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2]`))
	})
	_, err = c.ExtractLineItems(context.Background(), testDoc())
	require.ErrorIs(t, err, common.ErrMalformedPayload)
}
