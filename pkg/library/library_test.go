package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprouthub/pkg/backend"
	"sprouthub/pkg/domain"
	apperrors "sprouthub/pkg/errors"
	"sprouthub/pkg/i18n"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestLibrary(t *testing.T, mux *http.ServeMux) (*Library, *time.Time) {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := backend.NewClient(server.URL+"/api/v1", 5*time.Second)
	lib := New(client, i18n.NewLocale(nil, domain.LanguageEnglish), 5*time.Second)

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	lib.now = func() time.Time { return now }
	return lib, &now
}

func TestLibrary_AssignSuccessUpdatesThresholds(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/assign-crop/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "node_1", body["node_id"])
		assert.Equal(t, "rice", body["crop_type"])

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Node node_1 assigned to rice",
			"node_id":     "node_1",
			"active_crop": "rice",
			"thresholds":  map[string]float64{"moisture_min": 60, "moisture_max": 85},
		})
	})
	lib, _ := newTestLibrary(t, mux)

	assignment, err := lib.Assign(context.Background(), "node_1", "rice")
	require.NoError(t, err)
	assert.Equal(t, "rice", assignment.ActiveCrop)

	state := lib.State()
	require.Contains(t, state.Assignments, "node_1")
	th := state.Assignments["node_1"].Thresholds
	require.NotNil(t, th.MoistureMin)
	assert.Equal(t, 60.0, *th.MoistureMin)
	assert.Equal(t, 85.0, *th.MoistureMax)

	require.NotNil(t, state.Notification)
	assert.Equal(t, NotificationSuccess, state.Notification.Type)
	assert.Equal(t, `Node switched to "rice" profile!`, state.Notification.Message)
}

func TestLibrary_AssignFailureKeepsState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     any
		expected string
	}{
		{"not found", http.StatusNotFound, map[string]string{"error": "Crop profile 'mango' not found"}, "Crop profile 'mango' not found"},
		{"server error", http.StatusInternalServerError, map[string]string{"error": "database unavailable"}, "database unavailable"},
		{"no error text", http.StatusBadGateway, map[string]string{}, "request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("/api/v1/assign-crop/", func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					writeJSON(w, http.StatusOK, map[string]any{
						"node_id":     "node_1",
						"active_crop": "corn",
						"thresholds":  map[string]float64{"ph_min": 5.5},
					})
					return
				}
				writeJSON(w, tt.status, tt.body)
			})
			lib, _ := newTestLibrary(t, mux)

			_, err := lib.Assign(context.Background(), "node_1", "corn")
			require.NoError(t, err)

			_, err = lib.Assign(context.Background(), "node_1", "mango")
			require.Error(t, err)

			state := lib.State()
			assert.Equal(t, "corn", state.Assignments["node_1"].ActiveCrop)
			require.NotNil(t, state.Notification)
			assert.Equal(t, NotificationError, state.Notification.Type)
			assert.Equal(t, tt.expected, state.Notification.Message)
		})
	}
}

func TestLibrary_AssignNetworkFailureUsesLocalizedMessage(t *testing.T) {
	t.Parallel()

	client := backend.NewClient("http://127.0.0.1:1/api/v1", time.Second)
	locale := i18n.NewLocale(nil, domain.LanguageFilipino)
	lib := New(client, locale, 0)

	_, err := lib.Assign(context.Background(), "node_1", "rice")
	require.Error(t, err)

	n := lib.Notification()
	require.NotNil(t, n)
	assert.Equal(t, NotificationError, n.Type)
	assert.Equal(t, i18n.T(domain.LanguageFilipino, "assignmentFailed"), n.Message)
	assert.Empty(t, lib.State().Assignments)
}

func TestLibrary_NotificationExpires(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/knowledge-library/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})
	lib, now := newTestLibrary(t, mux)

	require.Error(t, lib.Refresh(context.Background()))
	require.NotNil(t, lib.Notification())
	assert.Equal(t, i18n.T(domain.LanguageEnglish, "libraryLoadFailed"), lib.Notification().Message)
	assert.False(t, lib.State().Loaded)

	*now = now.Add(4999 * time.Millisecond)
	assert.NotNil(t, lib.Notification())

	*now = now.Add(time.Millisecond)
	assert.Nil(t, lib.Notification())
	assert.Nil(t, lib.State().Notification)
}

func TestLibrary_UploadValidatesLocally(t *testing.T) {
	t.Parallel()

	var uploads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/upload-document/", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"chunks_created": 1})
	})
	lib, _ := newTestLibrary(t, mux)

	_, err := lib.Upload(context.Background(), backend.UploadRequest{
		FileName: "guide.exe",
		Content:  strings.NewReader("x"),
		CropType: "rice",
	})
	require.Error(t, err)
	assert.Equal(t, i18n.T(domain.LanguageEnglish, "invalidFileType"), lib.Notification().Message)

	_, err = lib.Upload(context.Background(), backend.UploadRequest{
		FileName: "guide.pdf",
		Content:  strings.NewReader("x"),
		CropType: "   ",
	})
	require.Error(t, err)
	assert.Equal(t, i18n.T(domain.LanguageEnglish, "cropTypeRequired"), lib.Notification().Message)

	assert.Equal(t, int32(0), uploads.Load())
}

func TestLibrary_UploadRefreshesProfiles(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/upload-document/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "tomato", r.FormValue("crop_type"))

		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "uploaded",
			"chunks_created": 12,
			"thresholds":     map[string]float64{"ph_min": 6.0, "ph_max": 6.8},
		})
	})
	mux.HandleFunc("/api/v1/knowledge-library/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"crops": []map[string]any{{"crop_id": "tomato", "crop_name": "Tomato", "document_count": 1}},
			"total": 1,
		})
	})
	lib, _ := newTestLibrary(t, mux)

	result, err := lib.Upload(context.Background(), backend.UploadRequest{
		FileName: "Tomato_Guide.PDF",
		Content:  strings.NewReader("%PDF-1.4"),
		CropType: "tomato",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, result.ChunksCreated)

	state := lib.State()
	assert.True(t, state.Loaded)
	require.Len(t, state.Profiles, 1)
	assert.Equal(t, "tomato", state.Profiles[0].CropID)
	assert.Equal(t, `"Tomato" profile updated! Created 12 knowledge chunks.`, state.Notification.Message)
}

func TestLibrary_Delete(t *testing.T) {
	t.Parallel()

	var deleted atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/knowledge-library/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			assert.Equal(t, "/api/v1/knowledge-library/corn/", r.URL.Path)
			deleted.Store(true)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Crop profile 'corn' deleted"})
			return
		}

		crops := []map[string]any{{"crop_id": "rice", "crop_name": "Rice"}}
		if !deleted.Load() {
			crops = append(crops, map[string]any{"crop_id": "corn", "crop_name": "Corn"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"crops": crops, "total": len(crops)})
	})
	lib, _ := newTestLibrary(t, mux)

	require.NoError(t, lib.Refresh(context.Background()))
	require.Len(t, lib.State().Profiles, 2)

	require.NoError(t, lib.Delete(context.Background(), "corn"))

	state := lib.State()
	require.Len(t, state.Profiles, 1)
	assert.Equal(t, "rice", state.Profiles[0].CropID)
	assert.Equal(t, `"Corn" profile deleted`, state.Notification.Message)
}

func TestLibrary_Search(t *testing.T) {
	t.Parallel()

	var searches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search-knowledge/", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nitrogen", body["query"])
		assert.Equal(t, float64(domain.DefaultSearchResults), body["n_results"])

		writeJSON(w, http.StatusOK, map[string]any{
			"query": "nitrogen",
			"results": []map[string]any{
				{"text": "Apply urea at tillering.", "metadata": map[string]string{"crop_type": "rice"}, "distance": 0.12},
			},
		})
	})
	lib, _ := newTestLibrary(t, mux)

	results, err := lib.Search(context.Background(), "  ", "")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, int32(0), searches.Load())

	results, err = lib.Search(context.Background(), "nitrogen", "rice")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Apply urea at tillering.", results[0].Text)
	assert.Len(t, lib.State().Results, 1)
}

func TestLibrary_AssignedCrop(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/assign-crop/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "node_2", r.URL.Query().Get("node_id"))
		writeJSON(w, http.StatusOK, map[string]any{"node_id": "node_2", "active_crop": "corn"})
	})
	lib, _ := newTestLibrary(t, mux)

	assignment, err := lib.AssignedCrop(context.Background(), "node_2")
	require.NoError(t, err)
	assert.Equal(t, "corn", assignment.ActiveCrop)
	assert.Equal(t, "corn", lib.State().Assignments["node_2"].ActiveCrop)
	assert.Nil(t, lib.Notification())
}

func TestLibrary_ProfileAndDocuments(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/knowledge-library/rice/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"crop": map[string]any{"crop_id": "rice", "crop_name": "Rice"}})
	})
	mux.HandleFunc("/api/v1/list-documents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"documents": []map[string]string{{"name": "rice.pdf", "crop_type": "rice"}}})
	})
	lib, _ := newTestLibrary(t, mux)

	profile, err := lib.Profile(context.Background(), "rice")
	require.NoError(t, err)
	assert.Equal(t, "Rice", profile.CropName)

	_, err = lib.Profile(context.Background(), " ")
	assert.True(t, apperrors.IsType(err, apperrors.ValidationError))

	docs, err := lib.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "rice.pdf", docs[0].Name)
}

func TestLibrary_DeleteDocument(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/delete-document/rice.pdf/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "document": "rice.pdf", "chunks_removed": 12})
	})
	mux.HandleFunc("/api/v1/delete-document/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Document not found"})
	})
	lib, _ := newTestLibrary(t, mux)

	deletion, err := lib.DeleteDocument(context.Background(), "rice.pdf")
	require.NoError(t, err)
	assert.Equal(t, 12, deletion.ChunksRemoved)
	assert.Equal(t, `"rice.pdf" deleted, 12 knowledge chunks removed`, lib.State().Notification.Message)

	_, err = lib.DeleteDocument(context.Background(), "corn.pdf")
	require.Error(t, err)
	state := lib.State()
	assert.Equal(t, NotificationError, state.Notification.Type)
	assert.Equal(t, "Document not found", state.Notification.Message)
}
