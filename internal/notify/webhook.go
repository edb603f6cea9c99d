// Package notify delivers job lifecycle events to a Discord-compatible
// webhook as colored embeds.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Embed colors per the started/completed/failed states.
const (
	colorStarted   = 0x0099ff
	colorCompleted = 0x00ff00
	colorFailed    = 0xff0000
)

// Notifier decouples the worker from the concrete webhook transport so
// tests can substitute a recording fake.
type Notifier interface {
	JobStarted(ctx context.Context, jobID, filename string)
	JobCompleted(ctx context.Context, jobID, filename string, duration time.Duration, appliedCorrections int)
	JobFailed(ctx context.Context, jobID, filename, errMsg string)
}

// embedField mirrors discordgo.MessageEmbedField's shape.
type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

// WebhookNotifier posts Discord-compatible embed payloads to a webhook URL.
// 429 responses are logged at Warn and otherwise ignored; all failures are
// logged at Warn and never propagate to the job's outcome.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookNotifier creates a Notifier posting to url. If url is empty, the
// returned notifier silently no-ops — callers don't need to branch on
// whether a webhook is configured.
func NewWebhookNotifier(url string, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "notify").Logger(),
	}
}

func (n *WebhookNotifier) JobStarted(ctx context.Context, jobID, filename string) {
	n.post(ctx, embed{
		Title:       "Transcription started",
		Description: fmt.Sprintf("Processing started for `%s`.", filename),
		Color:       colorStarted,
		Fields: []embedField{
			{Name: "Job", Value: fmt.Sprintf("`%s`", jobID), Inline: true},
			{Name: "File", Value: filename, Inline: true},
		},
		Footer:    &embedFooter{Text: "audio-correct"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *WebhookNotifier) JobCompleted(ctx context.Context, jobID, filename string, duration time.Duration, appliedCorrections int) {
	n.post(ctx, embed{
		Title:       "Transcription completed",
		Description: fmt.Sprintf("Finished processing `%s`.", filename),
		Color:       colorCompleted,
		Fields: []embedField{
			{Name: "Job", Value: fmt.Sprintf("`%s`", jobID), Inline: true},
			{Name: "File", Value: filename, Inline: true},
			{Name: "Duration", Value: duration.Truncate(time.Second).String(), Inline: true},
			{Name: "Corrections applied", Value: fmt.Sprintf("%d", appliedCorrections), Inline: true},
		},
		Footer:    &embedFooter{Text: "audio-correct"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *WebhookNotifier) JobFailed(ctx context.Context, jobID, filename, errMsg string) {
	n.post(ctx, embed{
		Title:       "Transcription failed",
		Description: fmt.Sprintf("Processing failed for `%s`.", filename),
		Color:       colorFailed,
		Fields: []embedField{
			{Name: "Job", Value: fmt.Sprintf("`%s`", jobID), Inline: true},
			{Name: "File", Value: filename, Inline: true},
			{Name: "Error", Value: errMsg, Inline: false},
		},
		Footer:    &embedFooter{Text: "audio-correct"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *WebhookNotifier) post(ctx context.Context, e embed) {
	if n.url == "" {
		return
	}

	payload := webhookPayload{Username: "audio-correct", Embeds: []embed{e}}
	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Warn().Err(err).Msg("encode webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.log.Warn().Err(err).Msg("build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Msg("webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		n.log.Warn().Msg("webhook rate limited")
		return
	}
	if resp.StatusCode >= 300 {
		n.log.Warn().Int("status", resp.StatusCode).Msg("webhook returned non-2xx")
	}
}
