package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/catalog-view/internal/domain/product"
)

const sampleFeed = `[
  {
    "id": 1,
    "name": "GST Registration",
    "category": "GST",
    "unit": "filing",
    "quantities": [
      {"quantity": "1 filing", "price": 1499},
      {"quantity": 3, "price": 3999.90}
    ],
    "image": "gst.png",
    "rating": 4.5
  },
  {
    "id": "trade-mark",
    "name": "Trademark",
    "category": "ipr",
    "description": null,
    "quantities": [{"quantity": "1 class", "price": "6500"}],
    "image": "legacy.png",
    "images": ["a.png", "b.png"]
  },
  {
    "id": "empty",
    "name": "No pictures",
    "category": "something-new",
    "quantities": [{"quantity": "1", "price": 10}],
    "image": "ignored.png",
    "images": []
  },
  {
    "id": "null-images",
    "name": "Legacy only",
    "category": "web",
    "quantities": [{"quantity": "1", "price": 10}],
    "image": "only.png",
    "images": null
  }
]`

func TestDecodeBytes(t *testing.T) {
	products, err := DecodeBytes([]byte(sampleFeed))
	require.NoError(t, err)
	require.Len(t, products, 4)

	gst := products[0]
	assert.Equal(t, "1", gst.ID)
	assert.Equal(t, product.CategoryGST, gst.Category)
	assert.Equal(t, "filing", gst.Unit)
	assert.Equal(t, []string{"gst.png"}, gst.Images)
	require.Len(t, gst.Quantities, 2)
	assert.Equal(t, "3", gst.Quantities[1].Label)
	assert.True(t, gst.Quantities[1].Price.Equal(decimal.RequireFromString("3999.9")))
	assert.Equal(t, "3999.9", gst.Quantities[1].Price.String())

	tm := products[1]
	assert.Equal(t, "trade-mark", tm.ID)
	assert.Empty(t, tm.Description)
	assert.Equal(t, []string{"a.png", "b.png"}, tm.Images, "images wins over legacy image")
	assert.True(t, tm.Quantities[0].Price.Equal(decimal.NewFromInt(6500)))

	empty := products[2]
	assert.Equal(t, product.Category("something-new"), empty.Category)
	assert.NotNil(t, empty.Images)
	assert.Empty(t, empty.Images, "an explicit empty list is kept")

	assert.Equal(t, []string{"only.png"}, products[3].Images, "null images falls back to image")
}

func TestDecodeBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not an array", data: `{"id": "1"}`},
		{name: "truncated", data: `[{"id": "1"`},
		{name: "bad price", data: `[{"id": "1", "quantities": [{"quantity": "1", "price": true}]}]`},
		{name: "bad price string", data: `[{"id": "1", "quantities": [{"quantity": "1", "price": "abc"}]}]`},
		{name: "bad images", data: `[{"id": "1", "images": [1]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestDecodeBytes_Empty(t *testing.T) {
	products, err := DecodeBytes([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func writeGzip(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(plain, []byte(sampleFeed), 0o600))
	gzipped := filepath.Join(dir, "catalog.json.gz")
	writeGzip(t, gzipped, sampleFeed)

	for _, path := range []string{plain, gzipped} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			products, err := NewFileSource(path).Fetch(t.Context())
			require.NoError(t, err)
			assert.Len(t, products, 4)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(dir, "nope.json")).Fetch(t.Context())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := NewFileSource(plain).Fetch(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	})
	mux.HandleFunc("/catalog.json.gz", func(w http.ResponseWriter, r *http.Request) {
		gz := pgzip.NewWriter(w)
		_, _ = gz.Write([]byte(sampleFeed))
		_ = gz.Close()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	for _, path := range []string{"/catalog.json", "/catalog.json.gz"} {
		t.Run(path, func(t *testing.T) {
			products, err := NewHTTPSource(srv.URL+path, time.Second).Fetch(t.Context())
			require.NoError(t, err)
			assert.Len(t, products, 4)
		})
	}

	t.Run("status", func(t *testing.T) {
		_, err := NewHTTPSource(srv.URL+"/missing", time.Second).Fetch(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	var calls atomic.Int32
	w := NewWatcher(path, 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o600))
	for range 5 {
		require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst collapses into one reload")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWriteFile_ReadBack(t *testing.T) {
	want, err := DecodeBytes([]byte(sampleFeed))
	require.NoError(t, err)

	for _, name := range []string{"out.json", "out.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, want))

			got, err := NewFileSource(path).Fetch(t.Context())
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].ID, got[i].ID)
				assert.Equal(t, want[i].Images, got[i].Images)
				require.Len(t, got[i].Quantities, len(want[i].Quantities))
				for j, q := range want[i].Quantities {
					assert.True(t, q.Equal(got[i].Quantities[j]), "%s quantity %d", want[i].ID, j)
				}
			}
		})
	}
}
