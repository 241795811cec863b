package catalogapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"feastline/infras/catalogapi"
	"feastline/shared/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time-slots", r.URL.Path)
		assert.Equal(t, "owner-1", r.URL.Query().Get("token"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("from"))

		_, _ = w.Write([]byte(`{"data":[{"id":5,"name":"Lunch"}]}`))
	}))
	defer srv.Close()

	client := catalogapi.NewWithHTTPClient(srv.URL+"/", srv.Client())

	var out []slot
	err := client.Get(context.Background(), "/time-slots", "owner-1", url.Values{"from": {"2025-03-01"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, []slot{{ID: 5, Name: "Lunch"}}, out)
}

func TestClient_PostSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-03-10", body["date"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":77}}`))
	}))
	defer srv.Close()

	client := catalogapi.NewWithHTTPClient(srv.URL, srv.Client())

	var out struct {
		ID int64 `json:"id"`
	}
	err := client.Post(context.Background(), "/events", "owner-1", map[string]any{"date": "2025-03-10"}, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(77), out.ID)
}

func TestClient_ErrorsKeepUpstreamMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    int
		message string
	}{
		{"error envelope", http.StatusUnprocessableEntity, `{"error":"Time slot already booked for this date"}`, http.StatusUnprocessableEntity, "Time slot already booked for this date"},
		{"message envelope", http.StatusBadRequest, `{"message":"Invalid cuisine"}`, http.StatusBadRequest, "Invalid cuisine"},
		{"plain text", http.StatusInternalServerError, "database is down\n", http.StatusInternalServerError, "database is down"},
		{"empty body", http.StatusBadGateway, "", http.StatusBadGateway, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := catalogapi.NewWithHTTPClient(srv.URL, srv.Client())
			err := client.Post(context.Background(), "/events", "t", map[string]any{}, nil)

			var f *failure.Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.code, f.Code)
			assert.Equal(t, tt.message, f.Message)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	client := catalogapi.NewWithHTTPClient(srv.URL, http.DefaultClient)
	err := client.Get(context.Background(), "/cuisines", "t", nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, failure.GetCode(err))
}
