package sheets_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAppSink_Forward(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		_, _ = w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	sink, err := sheets.NewWebAppSink(server.URL, server.Client())
	require.NoError(t, err)

	err = sink.Forward(context.Background(), models.Product{ID: "17", Name: "Ring", Category: "Rings", Price: 100})

	require.NoError(t, err)
	assert.Equal(t, "webapp", sink.Name())
	assert.Contains(t, received, `"id":"17"`)
	assert.Contains(t, received, `"price":100`)
}

func TestWebAppSink_ForwardFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantErr: "502"},
		{name: "rejected reply", status: http.StatusOK, body: `{"result":"error","error":"sheet locked"}`, wantErr: "sheet locked"},
		{name: "unsuccessful reply", status: http.StatusOK, body: `{"success":false}`, wantErr: "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			sink, err := sheets.NewWebAppSink(server.URL, server.Client())
			require.NoError(t, err)

			err = sink.Forward(context.Background(), models.Product{ID: "1"})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWebAppSink_PlainTextReplyAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	sink, err := sheets.NewWebAppSink(server.URL, nil)
	require.NoError(t, err)

	assert.NoError(t, sink.Forward(context.Background(), models.Product{ID: "1"}))
}

func TestNewWebAppSink_EmptyEndpoint(t *testing.T) {
	_, err := sheets.NewWebAppSink("  ", nil)
	assert.Error(t, err)
}
