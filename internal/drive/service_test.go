package drive_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"labelscan/internal/batch"
	"labelscan/internal/drive"
)

type fakeDrive struct {
	mu       sync.Mutex
	query    string
	pageSize string
	updates  []*http.Request
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		f.query = r.URL.Query().Get("q")
		f.pageSize = r.URL.Query().Get("pageSize")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]string{
				{"id": "f1", "name": "a.jpg", "mimeType": "image/jpeg"},
				{"id": "f2", "name": "b.heic", "mimeType": "image/heic"},
			},
		})
	case r.Method == http.MethodGet && r.URL.Query().Get("alt") == "media":
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, "jpeg-bytes")
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files/f1"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"parents": []string{"inbox"}})
	case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/files/f1"):
		f.updates = append(f.updates, r)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "f1"})
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newService(t *testing.T, fake *fakeDrive, folders drive.Folders) *drive.Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := drive.NewDriveServiceWithOptions(context.Background(), folders,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

func TestListPending(t *testing.T) {
	fake := &fakeDrive{}
	svc := newService(t, fake, drive.Folders{Inbox: "inbox"})

	items, err := svc.ListPending(context.Background(), 20)

	require.NoError(t, err)
	assert.Equal(t, []batch.Item{{ID: "f1", Name: "a.jpg"}, {ID: "f2", Name: "b.heic"}}, items)
	assert.Equal(t, "'inbox' in parents and mimeType contains 'image/' and trashed=false", fake.query)
	assert.Equal(t, "20", fake.pageSize)
}

func TestFetch(t *testing.T) {
	svc := newService(t, &fakeDrive{}, drive.Folders{Inbox: "inbox"})
	dir := t.TempDir()

	path, err := svc.Fetch(context.Background(), batch.Item{ID: "f1", Name: "a.jpg"}, dir)

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestMove(t *testing.T) {
	fake := &fakeDrive{}
	svc := newService(t, fake, drive.Folders{Inbox: "inbox", Processed: "done", Review: "check"})

	err := svc.Move(context.Background(), batch.Item{ID: "f1", Name: "a.jpg"}, batch.BucketReview)

	require.NoError(t, err)
	require.Len(t, fake.updates, 1)
	q := fake.updates[0].URL.Query()
	assert.Equal(t, "check", q.Get("addParents"))
	assert.Equal(t, "inbox", q.Get("removeParents"))
}

func TestMove_Errors(t *testing.T) {
	svc := newService(t, &fakeDrive{}, drive.Folders{Inbox: "inbox", Review: "check"})
	ctx := context.Background()

	err := svc.Move(ctx, batch.Item{ID: "f1"}, batch.BucketAccepted)
	assert.ErrorIs(t, err, drive.ErrMissingFolder)

	err = svc.Move(ctx, batch.Item{ID: "nope"}, batch.BucketReview)
	assert.Error(t, err)
}
