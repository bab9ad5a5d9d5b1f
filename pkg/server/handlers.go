package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sprouthub/pkg/assistant"
	"sprouthub/pkg/backend"
	"sprouthub/pkg/dashboard"
	"sprouthub/pkg/domain"
	apperrors "sprouthub/pkg/errors"
	"sprouthub/pkg/i18n"
	"sprouthub/pkg/validator"
	"sprouthub/pkg/websocket"
)

// maxUploadSize caps multipart uploads held in memory.
const maxUploadSize = 32 << 20

type selectRequest struct {
	NodeID string `json:"node_id"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Model    string `json:"model,omitempty"`
}

type assignRequest struct {
	NodeID   string `json:"node_id"`
	CropType string `json:"crop_type"`
}

type searchRequest struct {
	Query    string `json:"query"`
	CropType string `json:"crop_type"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type languageResponse struct {
	Language  string   `json:"language"`
	Available []string `json:"available"`
}

type historyResponse struct {
	NodeID   string           `json:"node_id"`
	Readings []domain.Reading `json:"readings"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func statusFor(err error) int {
	if errors.Is(err, dashboard.ErrNotRunning) {
		return http.StatusServiceUnavailable
	}

	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case apperrors.ValidationError:
		return http.StatusBadRequest
	case apperrors.NotFoundError:
		return http.StatusNotFound
	case apperrors.BackendError:
		if appErr.StatusCode >= 400 && appErr.StatusCode < 600 {
			return appErr.StatusCode
		}
		return http.StatusBadGateway
	case apperrors.NetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *UnifiedServer) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn().Err(err).Int("status", status).Msg("request failed")
	}
	writeError(w, status, backend.Message(err))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, domain.MaxPayloadSize)).Decode(v); err != nil {
		return apperrors.NewValidationError("invalid JSON body", err)
	}
	return nil
}

func (s *UnifiedServer) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "sprouthub",
		"timestamp": time.Now().Unix(),
	})
}

func (s *UnifiedServer) language(r *http.Request) string {
	if r != nil {
		if lang := r.URL.Query().Get("lang"); validator.ValidateLanguage(lang) == nil {
			return lang
		}
	}
	if s.deps.Locale != nil {
		return s.deps.Locale.Language()
	}
	return domain.LanguageEnglish
}

func (s *UnifiedServer) localize(view dashboard.View, lang string) dashboard.View {
	if lang == "" {
		lang = s.language(nil)
	}

	nodes := make([]dashboard.NodeView, len(view.Nodes))
	for i, n := range view.Nodes {
		n.Connection = i18n.StatusLabel(lang, n.Connection)
		nodes[i] = n
	}
	view.Nodes = nodes

	if view.Selected != nil {
		card := *view.Selected
		card.Connection = i18n.StatusLabel(lang, card.Connection)
		card.Statuses.Moisture.Label = i18n.StatusLabel(lang, card.Statuses.Moisture.Label)
		card.Statuses.Temperature.Label = i18n.StatusLabel(lang, card.Statuses.Temperature.Label)
		card.Statuses.PH.Label = i18n.StatusLabel(lang, card.Statuses.PH.Label)
		card.Statuses.AirTemperature.Label = i18n.StatusLabel(lang, card.Statuses.AirTemperature.Label)
		card.Statuses.Humidity.Label = i18n.StatusLabel(lang, card.Statuses.Humidity.Label)
		view.Selected = &card
	}

	return view
}

func (s *UnifiedServer) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.localize(s.deps.Dashboard.View(), s.language(r)))
}

func (s *UnifiedServer) selectHandler(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}
	nodeID := strings.TrimSpace(req.NodeID)
	if nodeID == "" {
		s.writeFailure(w, apperrors.NewValidationError("node_id is required", nil))
		return
	}

	if err := s.deps.Dashboard.SelectNode(r.Context(), nodeID); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.localize(s.deps.Dashboard.View(), s.language(r)))
}

func (s *UnifiedServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "id")
	readings, ok := s.deps.Dashboard.History(nodeID)
	if !ok {
		writeError(w, http.StatusNotFound, "no history cached for node "+nodeID)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{NodeID: nodeID, Readings: readings})
}

func (s *UnifiedServer) chatLogHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Assistant.Messages())
}

func (s *UnifiedServer) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}

	reply, err := s.deps.Assistant.Ask(r.Context(), req.Question)
	if err != nil {
		if apperrors.IsType(err, apperrors.ValidationError) {
			s.writeFailure(w, err)
			return
		}
		s.logger.Warn().Err(err).Msg("chat failed")
		writeError(w, http.StatusBadGateway, reply.Text)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Question: validator.SanitizeString(req.Question, assistant.MaxQuestionLength),
		Answer:   reply.Text,
		Model:    reply.Model,
	})
}

func (s *UnifiedServer) libraryHandler(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Library.State().Loaded || r.URL.Query().Get("refresh") == "true" {
		// A failed refresh is reported through the notification.
		_ = s.deps.Library.Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, s.deps.Library.State())
}

func (s *UnifiedServer) assignHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}
	if strings.TrimSpace(req.NodeID) == "" || strings.TrimSpace(req.CropType) == "" {
		s.writeFailure(w, apperrors.NewValidationError("node_id and crop_type are required", nil))
		return
	}

	assignment, err := s.deps.Library.Assign(r.Context(), req.NodeID, req.CropType)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (s *UnifiedServer) assignedCropHandler(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("node_id")
	if strings.TrimSpace(nodeID) == "" {
		s.writeFailure(w, apperrors.NewValidationError("node_id is required", nil))
		return
	}

	assignment, err := s.deps.Library.AssignedCrop(r.Context(), nodeID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (s *UnifiedServer) profileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := s.deps.Library.Profile(r.Context(), chi.URLParam(r, "crop_id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *UnifiedServer) documentsHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := s.deps.Library.Documents(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *UnifiedServer) deleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	deletion, err := s.deps.Library.DeleteDocument(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletion)
}

func (s *UnifiedServer) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeFailure(w, apperrors.NewValidationError("invalid multipart form", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeFailure(w, apperrors.NewValidationError("file is required", err))
		return
	}
	defer file.Close()

	result, err := s.deps.Library.Upload(r.Context(), backend.UploadRequest{
		FileName:     header.Filename,
		Content:      file,
		DocumentName: r.FormValue("document_name"),
		CropType:     r.FormValue("crop_type"),
		Description:  r.FormValue("description"),
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *UnifiedServer) deleteCropHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Library.Delete(r.Context(), chi.URLParam(r, "crop_id")); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Library.State())
}

func (s *UnifiedServer) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}

	results, err := s.deps.Library.Search(r.Context(), req.Query, req.CropType)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *UnifiedServer) aiStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Backend.AIStatus(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *UnifiedServer) checkConnectivityHandler(w http.ResponseWriter, r *http.Request) {
	message, err := s.deps.Backend.CheckConnectivity(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (s *UnifiedServer) compareNodesHandler(w http.ResponseWriter, r *http.Request) {
	comparison, err := s.deps.Backend.CompareNodes(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"comparison": comparison})
}

func (s *UnifiedServer) getLanguageHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, languageResponse{Language: s.deps.Locale.Language(), Available: i18n.Languages()})
}

func (s *UnifiedServer) putLanguageHandler(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}
	if err := validator.ValidateLanguage(req.Language); err != nil {
		s.writeFailure(w, apperrors.NewValidationError("unsupported language", err))
		return
	}

	if err := s.deps.Locale.SetLanguage(req.Language); err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, languageResponse{Language: s.deps.Locale.Language(), Available: i18n.Languages()})
}

func (s *UnifiedServer) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(s.hub, conn)
	initial, err := websocket.Encode(websocket.MessageTypeView, s.localize(s.deps.Dashboard.View(), s.language(r)))
	if err == nil {
		client.Send <- initial
	}

	if !s.hub.Register(r.Context(), client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
