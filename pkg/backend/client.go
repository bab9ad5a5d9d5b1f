// Package backend is a client for the Sprout Hub REST API (/api/v1).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/errors"
	"sprouthub/pkg/logger"
)

const (
	OutcomeSuccess      = "success"
	OutcomeNetworkError = "network_error"
	OutcomeBackendError = "backend_error"
	OutcomeDecodeError  = "decode_error"
	OutcomeTooLarge     = "too_large"
)

// Client calls the backend without retries. Transport failures are returned
// as network errors and non-2xx replies as backend errors carrying the
// server's "error" text.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    domain.MetricsCollector
	logger     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = domain.DefaultBackendTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.ComponentLogger("backend-client"),
	}
}

func (c *Client) WithMetrics(m domain.MetricsCollector) *Client {
	clone := *c
	clone.metrics = m
	return &clone
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type UploadRequest struct {
	FileName     string
	Content      io.Reader
	DocumentName string
	CropType     string
	Description  string
}

func (c *Client) Chat(ctx context.Context, question string) (domain.ChatAnswer, error) {
	var answer domain.ChatAnswer
	if strings.TrimSpace(question) == "" {
		return answer, errors.NewValidationError("question is required", nil)
	}

	err := c.postJSON(ctx, "chat", "/chat/", map[string]string{"question": question}, &answer)
	return answer, err
}

func (c *Client) ListCropProfiles(ctx context.Context) ([]domain.CropProfile, error) {
	var resp struct {
		Crops []domain.CropProfile `json:"crops"`
		Total int                  `json:"total"`
	}
	if err := c.getJSON(ctx, "knowledge-library", "/knowledge-library/", &resp); err != nil {
		return nil, err
	}
	if resp.Crops == nil {
		resp.Crops = []domain.CropProfile{}
	}
	return resp.Crops, nil
}

func (c *Client) GetCropProfile(ctx context.Context, cropID string) (domain.CropProfile, error) {
	var resp struct {
		Crop domain.CropProfile `json:"crop"`
	}
	err := c.getJSON(ctx, "crop-profile", "/knowledge-library/"+url.PathEscape(cropID)+"/", &resp)
	return resp.Crop, err
}

func (c *Client) DeleteCropProfile(ctx context.Context, cropID string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, "crop-profile", http.MethodDelete, "/knowledge-library/"+url.PathEscape(cropID)+"/", nil, "", &resp)
	return resp.Message, err
}

func (c *Client) AssignCrop(ctx context.Context, nodeID, cropType string) (domain.CropAssignment, error) {
	var assignment domain.CropAssignment
	if nodeID == "" || cropType == "" {
		return assignment, errors.NewValidationError("node_id and crop_type are required", nil)
	}

	body := map[string]string{"node_id": nodeID, "crop_type": cropType}
	err := c.postJSON(ctx, "assign-crop", "/assign-crop/", body, &assignment)
	return assignment, err
}

func (c *Client) GetAssignedCrop(ctx context.Context, nodeID string) (domain.CropAssignment, error) {
	var assignment domain.CropAssignment
	path := "/assign-crop/?" + url.Values{"node_id": {nodeID}}.Encode()
	err := c.getJSON(ctx, "assign-crop", path, &assignment)
	return assignment, err
}

func (c *Client) UploadDocument(ctx context.Context, req UploadRequest) (domain.UploadResult, error) {
	var result domain.UploadResult
	if req.Content == nil {
		return result, errors.NewValidationError("no file provided", nil)
	}

	documentName := req.DocumentName
	if documentName == "" {
		documentName = req.FileName
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", req.FileName)
	if err != nil {
		return result, errors.NewProcessingError("failed to build upload form", err)
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return result, errors.NewProcessingError("failed to read upload content", err)
	}

	fields := [][2]string{
		{"document_name", documentName},
		{"crop_type", req.CropType},
		{"description", req.Description},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return result, errors.NewProcessingError("failed to build upload form", err)
		}
	}
	if err := form.Close(); err != nil {
		return result, errors.NewProcessingError("failed to build upload form", err)
	}

	err = c.do(ctx, "upload-document", http.MethodPost, "/upload-document/", &buf, form.FormDataContentType(), &result)
	return result, err
}

func (c *Client) SearchKnowledge(ctx context.Context, query, cropType string, nResults int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewValidationError("query is required", nil)
	}
	if nResults <= 0 {
		nResults = domain.DefaultSearchResults
	}

	body := map[string]any{"query": query, "n_results": nResults}
	if cropType != "" {
		body["crop_type"] = cropType
	}

	var resp struct {
		Results []domain.SearchResult `json:"results"`
	}
	if err := c.postJSON(ctx, "search-knowledge", "/search-knowledge/", body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []domain.SearchResult{}
	}
	return resp.Results, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]domain.KnowledgeDocument, error) {
	var resp struct {
		Documents []domain.KnowledgeDocument `json:"documents"`
	}
	if err := c.getJSON(ctx, "list-documents", "/list-documents/", &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) DeleteDocument(ctx context.Context, name string) (domain.DocumentDeletion, error) {
	var resp domain.DocumentDeletion
	err := c.do(ctx, "delete-document", http.MethodDelete, "/delete-document/"+url.PathEscape(name)+"/", nil, "", &resp)
	return resp, err
}

func (c *Client) AIStatus(ctx context.Context) (domain.AIStatus, error) {
	var status domain.AIStatus
	err := c.getJSON(ctx, "ai-status", "/ai-status/", &status)
	return status, err
}

func (c *Client) CheckConnectivity(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.postJSON(ctx, "check-connectivity", "/check-connectivity/", struct{}{}, &resp)
	return resp.Message, err
}

func (c *Client) CompareNodes(ctx context.Context) (string, error) {
	var resp struct {
		Comparison string `json:"comparison"`
	}
	err := c.getJSON(ctx, "compare-nodes", "/compare-nodes/", &resp)
	return resp.Comparison, err
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, result any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, nil, "", result)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.NewProcessingError("failed to encode request", err)
	}
	return c.do(ctx, endpoint, http.MethodPost, path, bytes.NewReader(payload), "application/json", result)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.NewProcessingError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, OutcomeNetworkError)
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Backend request failed")
		return errors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, domain.MaxResponseSize+1))
	if err != nil {
		c.observe(endpoint, OutcomeNetworkError)
		return errors.NewNetworkError("failed to read response", err)
	}
	if len(data) > domain.MaxResponseSize {
		c.observe(endpoint, OutcomeTooLarge)
		c.logger.Warn().Str("endpoint", endpoint).Int("limit", domain.MaxResponseSize).Msg("Backend response too large")
		return errors.NewProcessingError(fmt.Sprintf("%s %s: response too large (over %d bytes)", method, path, domain.MaxResponseSize), nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(endpoint, OutcomeBackendError)
		msg := errorMessage(data, resp.StatusCode)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("endpoint", endpoint).
			Str("error", msg).
			Msg("Backend returned an error")
		return errors.NewBackendError(resp.StatusCode, msg)
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			c.observe(endpoint, OutcomeDecodeError)
			return errors.NewProcessingError("failed to decode response", err)
		}
	}

	c.observe(endpoint, OutcomeSuccess)
	return nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveBackendRequest(endpoint, outcome)
	}
}

func errorMessage(data []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func Message(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
