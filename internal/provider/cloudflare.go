package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Compile-time check that Client implements API.
var _ API = (*Client)(nil)

// Client talks to the Cloudflare Images v4 API for one account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// apiEnvelope is the provider's standard response wrapper.
type apiEnvelope struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

// NewClient creates a provider client for the given account. apiBase is
// the API root (e.g. https://api.cloudflare.com/client/v4); tests point it
// at a local fake. Calls carry a bounded timeout and no retries; retrying
// is the caller's decision.
func NewClient(apiBase, accountID, apiToken string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    fmt.Sprintf("%s/accounts/%s/images", strings.TrimRight(apiBase, "/"), accountID),
		apiToken:   apiToken,
	}
}

// Upload submits the file as a multipart payload. The desired name rides
// along as descriptive metadata only; the provider assigns the image ID.
func (c *Client) Upload(ctx context.Context, file io.Reader, fileName, mimeType string) (*UploadResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	meta, err := json.Marshal(map[string]string{
		"source":     "image-gateway",
		"fileName":   fileName,
		"mimeType":   mimeType,
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal upload metadata: %w", err)
	}

	fields := map[string]string{
		"requireSignedURLs": "false",
		"metadata":          string(meta),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, fmt.Errorf("copy file into form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var result struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1", &body, w.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &UploadResult{ID: result.ID, Variants: result.Variants}, nil
}

// CreateDirectUpload asks the provider for a one-time upload URL so a
// client can send bytes straight to the provider.
func (c *Client) CreateDirectUpload(ctx context.Context) (*DirectUpload, error) {
	var result struct {
		ID        string `json:"id"`
		UploadURL string `json:"uploadURL"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v2/direct_upload", nil, "", &result); err != nil {
		return nil, err
	}
	return &DirectUpload{ID: result.ID, UploadURL: result.UploadURL}, nil
}

// GetImage fetches provider-side metadata for an image.
func (c *Client) GetImage(ctx context.Context, imageID string) (*Details, error) {
	var details Details
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/"+imageID, nil, "", &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Delete requests removal and reports whether the provider confirmed it.
func (c *Client) Delete(ctx context.Context, imageID string) (bool, error) {
	if err := c.do(ctx, http.MethodDelete, c.baseURL+"/v1/"+imageID, nil, "", nil); err != nil {
		return false, err
	}
	return true, nil
}

// do issues one request and decodes the provider envelope into result.
// A 404 maps to ErrNotFound; any other non-success answer becomes an
// *APIError with the provider's status and messages.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		for _, e := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
		return apiErr
	}

	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("decode provider result: %w", err)
		}
	}
	return nil
}
