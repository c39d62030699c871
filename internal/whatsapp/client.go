package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coldlead_backend/platform/config"
	"coldlead_backend/platform/logger"
	"coldlead_backend/platform/phone"
)

const defaultBaseURL = "https://api.ultramsg.com"

// Result is the outcome of one send as reported by the channel.
type Result struct {
	Sent  bool
	Error string
}

type Client struct {
	baseURL  string
	instance string
	token    string
	region   string
	http     *http.Client
	log      *logger.Logger
}

type ultraMsgRequest struct {
	Token string `json:"token"`
	To    string `json:"to"`
	Body  string `json:"body"`
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:  defaultBaseURL,
		instance: cfg.GetUltraMsgInstance(),
		token:    cfg.GetUltraMsgToken(),
		region:   cfg.GetPhoneRegion(),
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Send delivers one text message. It never returns an error: transport and
// API failures are folded into Result.Error so the caller can persist them.
func (c *Client) Send(ctx context.Context, phoneNumber string, message string) Result {
	normalized := phone.NormalizeE164ForRegion(phoneNumber, c.region)

	body, err := json.Marshal(ultraMsgRequest{
		Token: c.token,
		To:    normalized,
		Body:  message,
	})
	if err != nil {
		return Result{Error: fmt.Sprintf("marshal whatsapp payload: %v", err)}
	}

	url := fmt.Sprintf("%s/%s/messages/chat", c.baseURL, c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("whatsapp request failed: %v", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{Error: fmt.Sprintf("read whatsapp response: %v", err)}
	}

	result := parseResponse(resp.StatusCode, data)
	if result.Sent {
		c.log.Info("whatsapp sent via ultramsg", "phone", normalized)
	} else {
		c.log.Warn("whatsapp send failed", "phone", normalized, "status", resp.StatusCode, "error", result.Error)
	}
	return result
}

type ultraMsgResponse struct {
	Sent    json.RawMessage `json:"sent"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// parseResponse reads UltraMsg's reply. "sent" arrives as "true" or true.
// Failures prefer the error field, then message, then the raw body.
func parseResponse(status int, data []byte) Result {
	raw := strings.TrimSpace(string(data))

	var parsed ultraMsgResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		if raw == "" {
			raw = fmt.Sprintf("whatsapp service returned %d", status)
		}
		return Result{Error: raw}
	}

	if isTrue(parsed.Sent) {
		return Result{Sent: true}
	}
	if msg := rawText(parsed.Error); msg != "" {
		return Result{Error: msg}
	}
	if parsed.Message != "" {
		return Result{Error: parsed.Message}
	}
	return Result{Error: raw}
}

func isTrue(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "true"
	}
	return false
}

// rawText renders the error field, which can be a string or a structured value.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
