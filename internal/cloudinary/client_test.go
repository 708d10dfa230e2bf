package cloudinary

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignSortsAndSkipsUnsignedParams(t *testing.T) {
	c := &Client{APISecret: "s3cret"}
	got := c.sign(map[string]string{"timestamp": "100", "folder": "logos", "api_key": "k", "file": "x"})
	want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=logos&timestamp=100s3cret")))
	assert.Equal(t, want, got)
}

func TestUploadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.Equal(t, "clubs", r.FormValue("folder"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.NotEmpty(t, r.FormValue("signature"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "logo.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"public_id":"clubs/abc","secure_url":"https://res.test/clubs/abc.png"}`)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "clubs")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := c.UploadImage(context.Background(), strings.NewReader("PNGDATA"), "logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://res.test/clubs/abc.png", url)
}

func TestUploadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("demo", "key", "secret", "")
	c.BaseURL = srv.URL
	_, err := c.UploadImage(context.Background(), strings.NewReader("x"), "x.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = New("", "", "", "").UploadImage(context.Background(), strings.NewReader("x"), "x.png")
	assert.Error(t, err)
}
