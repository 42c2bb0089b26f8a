// Package chatassist answers free-form applicant questions through an
// OpenAI-compatible chat completions endpoint.
package chatassist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "loan-origination/internal/common/http"
	"loan-origination/internal/common/logger"
)

const SystemPrompt = `You are SanctionX, a digital loan officer.
You must:
- NEVER request PAN, Aadhaar, or documents
- NEVER make eligibility decisions
- NEVER verify income
- ONLY answer general loan questions politely
- Redirect user back to the loan process when needed`

var ErrEmptyReply = errors.New("CHAT_ASSIST_EMPTY_REPLY")

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("chat assist base URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("chat assist model is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("chat assist timeout must be positive")
	}
	return nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		http:   commonhttp.NewClient(config.MaxRetries),
		logger: log.WithFields(map[string]interface{}{"component": "chat-assist"}),
	}
}

// Reply sends the applicant message with the SanctionX system prompt and returns the first choice.
func (c *Client) Reply(ctx context.Context, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req := completionRequest{
		Model: c.config.Model,
		Messages: []message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userMessage},
		},
	}
	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	var resp completionResponse
	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	if err := c.http.PostJSON(ctx, url, headers, req, &resp); err != nil {
		c.logger.Warn("chat assist call failed", map[string]interface{}{"error": err.Error()})
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Canned answers common questions without a language model.
type Canned struct{}

var cannedAnswers = []struct {
	keywords []string
	answer   string
}{
	{[]string{"interest", "rate"}, "Our personal loan rates start at 11.5% per annum and depend on tenure and profile."},
	{[]string{"emi"}, "EMI is the fixed monthly instalment covering principal and interest over the loan tenure."},
	{[]string{"tenure", "how long"}, "We offer tenures of 24, 36 and 48 months."},
	{[]string{"document", "payslip", "statement"}, "A recent salary slip or bank statement showing your monthly income works as income proof."},
	{[]string{"safe", "secure", "privacy"}, "Your details are used only to process this loan application."},
}

const cannedFallback = "I can help with general questions about our loans. Let's continue with your application."

func (Canned) Reply(ctx context.Context, userMessage string) (string, error) {
	lower := strings.ToLower(userMessage)
	for _, entry := range cannedAnswers {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.answer, nil
			}
		}
	}
	return cannedFallback, nil
}
