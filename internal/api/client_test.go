package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithTokenSource(staticToken("tok-123")))
	var out map[string]bool
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/products", nil, &out))
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.True(t, out["ok"])
}

func TestDoOmitsEmptyToken(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithTokenSource(staticToken("")))
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/products", nil, nil))
	assert.False(t, hasAuth, "no Authorization header expected, got %q", gotAuth)
}

func TestDoNormalizesServerErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error key", http.StatusBadRequest, `{"error":"quantity must be positive"}`, "quantity must be positive"},
		{"detail key", http.StatusNotFound, `{"detail":"Product not found"}`, "Product not found"},
		{"non-json body", http.StatusInternalServerError, `<html>boom</html>`, "Internal Server Error"},
		{"empty body", http.StatusForbidden, ``, "Forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL)
			err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.body, string(apiErr.Raw))
			assert.False(t, apiErr.Transport())
		})
	}
}

func TestDoFiresUnauthorizedHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	fired := 0
	client.SetUnauthorizedHook(func() { fired++ })

	err := client.Do(context.Background(), http.MethodGet, "/auth/me", nil, nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, 1, fired)
}

func TestDoClassifiesNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(srv.URL)
	err := client.Do(context.Background(), http.MethodGet, "/products", nil, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "network", apiErr.Message)
	assert.True(t, apiErr.Transport())
}

func TestDoClassifiesTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	client := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	err := client.Do(context.Background(), http.MethodGet, "/products", nil, nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "timeout", apiErr.Message)
	assert.True(t, apiErr.Transport())
}

func TestDoRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": `))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var out map[string]string
	err := client.Do(context.Background(), http.MethodGet, "/products/p1", nil, &out)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "malformed response body", apiErr.Message)
}

func TestPostFormEncodesCredentials(t *testing.T) {
	var gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	}))
	defer srv.Close()

	form := url.Values{}
	form.Set("username", "ada@example.com")
	form.Set("password", "s3cret")

	client := NewClient(srv.URL)
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, client.PostForm(context.Background(), "/auth/login", form, &tok))
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "password=s3cret&username=ada%40example.com", gotBody)
	assert.Equal(t, "tok", tok.AccessToken)
}

func TestUploadSendsMultipart(t *testing.T) {
	var gotField, gotFilename, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		gotField = "image"
		gotFilename = header.Filename
		gotContent = string(raw)
		w.Write([]byte(`{"image_url":"/uploads/abc.png"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var out struct {
		ImageURL string `json:"image_url"`
	}
	err := client.Upload(context.Background(), "/admin/products/p1/upload-image", "image", "lamp.png", strings.NewReader("png-bytes"), &out)
	require.NoError(t, err)
	assert.Equal(t, "image", gotField)
	assert.Equal(t, "lamp.png", gotFilename)
	assert.Equal(t, "png-bytes", gotContent)
	assert.Equal(t, "/uploads/abc.png", out.ImageURL)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Status: 0, Message: "network", cause: cause}
	assert.ErrorIs(t, err, cause)
}
