package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spigell/arxiv-digest/internal/arxiv"

	"go.uber.org/zap"
)

const defaultFeishuMaxPapers = 5

// FeishuSender delivers a compact digest to a Feishu bot webhook. When a
// secret is configured, the payload carries a timestamp plus a keyed digest
// over "timestamp\nsecret" as required by signed webhooks.
type FeishuSender struct {
	WebhookURL string
	Secret     string
	MaxPapers  int

	HTTPClient *http.Client
	logger     *zap.Logger

	// now is swapped in tests for a deterministic signature.
	now func() time.Time
}

func NewFeishuSender(webhookURL, secret string, maxPapers int, logger *zap.Logger) *FeishuSender {
	if maxPapers <= 0 {
		maxPapers = defaultFeishuMaxPapers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FeishuSender{
		WebhookURL: webhookURL,
		Secret:     secret,
		MaxPapers:  maxPapers,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// feishuResponse covers both response shapes the webhook endpoint produces.
type feishuResponse struct {
	StatusCode    *int   `json:"StatusCode"`
	Code          *int   `json:"code"`
	StatusMessage string `json:"StatusMessage"`
	Msg           string `json:"msg"`
}

// SendDigest posts the digest message to the webhook. An empty paper list
// still produces a delivery with an explicit no-papers message.
func (s *FeishuSender) SendDigest(ctx context.Context, papers *arxiv.Papers) error {
	message := feishuMessage(papers, s.MaxPapers, s.now())

	payload := map[string]any{
		"msg_type": "text",
		"content":  map[string]string{"text": message},
	}

	if s.Secret != "" {
		timestamp := strconv.FormatInt(s.now().Unix(), 10)
		payload["timestamp"] = timestamp
		payload["sign"] = Sign(timestamp, s.Secret)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned bad status: %s", resp.Status)
	}

	var parsed feishuResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode webhook response: %w", err)
	}

	status := -1
	switch {
	case parsed.StatusCode != nil:
		status = *parsed.StatusCode
	case parsed.Code != nil:
		status = *parsed.Code
	}

	if status != 0 {
		reason := parsed.Msg
		if reason == "" {
			reason = parsed.StatusMessage
		}
		return fmt.Errorf("webhook rejected message: status=%d message=%q", status, reason)
	}

	s.logger.Info("feishu notification sent", zap.Int("papers", papers.Len()))

	return nil
}

// Sign computes the webhook signature: base64 of an HMAC-SHA256 keyed with
// the secret over "timestamp\nsecret".
func Sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
