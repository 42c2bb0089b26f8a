// Package ocr turns uploaded income proofs into text.
package ocr

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	commonhttp "loan-origination/internal/common/http"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/models"
)

var (
	ErrEmptyDocument       = fmt.Errorf("empty document: %w", models.ErrUnreadableDocument)
	ErrUnsupportedDocument = fmt.Errorf("unsupported document: %w", models.ErrUnreadableDocument)
)

// PlainText accepts documents that already are text, such as exported statements.
type PlainText struct{}

func (PlainText) ExtractText(ctx context.Context, doc models.Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", ErrEmptyDocument
	}
	if !utf8.Valid(doc.Data) {
		return "", fmt.Errorf("%w: %s is not text", ErrUnsupportedDocument, doc.Filename)
	}
	return string(doc.Data), nil
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient posts the raw document to an OCR service and reads {"text": "..."} back.
type HTTPClient struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewHTTPClient(config *Config, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		config: config,
		http:   commonhttp.NewClient(1),
		logger: log.WithFields(map[string]interface{}{"component": "ocr"}),
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

func (c *HTTPClient) ExtractText(ctx context.Context, doc models.Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", ErrEmptyDocument
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/extract?filename=" + url.QueryEscape(doc.Filename)

	var out extractResponse
	start := time.Now()
	if err := c.http.Do(ctx, "POST", endpoint, contentType, headers, doc.Data, &out); err != nil {
		return "", fmt.Errorf("ocr extract: %w", err)
	}
	c.logger.Debug("document text extracted", map[string]interface{}{
		"filename": doc.Filename,
		"bytes":    len(doc.Data),
		"chars":    len(out.Text),
		"duration": time.Since(start).String(),
	})
	return out.Text, nil
}
