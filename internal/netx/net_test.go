package netx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("posts JSON and decodes reply", func(t *testing.T) {
		var gotCT, gotMethod string
		var gotBody map[string]string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"IpfsHash":"Qm123"}`))
		}))
		defer ts.Close()

		req, err := NewJSONRequest(ctx, http.MethodPost, ts.URL, map[string]string{"question": "q"})
		require.NoError(t, err)

		var out struct{ IpfsHash string }
		require.NoError(t, DoJSON(ts.Client(), req, &out))

		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "application/json", gotCT)
		assert.Equal(t, "q", gotBody["question"])
		assert.Equal(t, "Qm123", out.IpfsHash)
	})

	t.Run("non-2xx becomes StatusError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("  invalid key \n"))
		}))
		defer ts.Close()

		req, err := NewJSONRequest(ctx, http.MethodDelete, ts.URL+"/pinning/unpin/Qm1", nil)
		require.NoError(t, err)

		err = DoJSON(ts.Client(), req, nil)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
		assert.Equal(t, "invalid key", se.Body)
		assert.Equal(t, http.MethodDelete, se.Method)
		assert.True(t, strings.HasSuffix(se.URL, "/pinning/unpin/Qm1"))
	})

	t.Run("bad JSON reply", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer ts.Close()

		req, err := NewJSONRequest(ctx, http.MethodGet, ts.URL, nil)
		require.NoError(t, err)

		var out map[string]any
		err = DoJSON(ts.Client(), req, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("transport error is passed through", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		req, err := NewJSONRequest(ctx, http.MethodGet, ts.URL, nil)
		require.NoError(t, err)

		err = DoJSON(http.DefaultClient, req, nil)
		require.Error(t, err)
		var se *StatusError
		assert.False(t, errors.As(err, &se))
	})
}

func TestNewJSONRequest_UnencodableBody(t *testing.T) {
	_, err := NewJSONRequest(context.Background(), http.MethodPost, "http://x", map[string]any{"f": func() {}})
	require.Error(t, err)
}
