package openaiassistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/RebookBox/internal/integrations/assistant"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultPollInterval = 800 * time.Millisecond
	DefaultMaxWait      = 120 * time.Second

	noTextContent = "No text content found in assistant message."
	noResponse    = "No response from assistant."

	messagesPageSize = 20

	roleUser      = "user"
	roleAssistant = "assistant"
)

// threadsAPI is the part of *openai.Client used here.
type threadsAPI interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

type Config struct {
	APIKey       string
	AssistantID  string
	BaseURL      string
	Prompt       string
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Client talks to an OpenAI assistant through the threads and runs API.
// Build it once per process and share it.
type Client struct {
	api          threadsAPI
	assistantID  string
	prompt       string
	pollInterval time.Duration
	maxWait      time.Duration
}

var _ assistant.Client = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("assistant api key is not set")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return newWithAPI(openai.NewClientWithConfig(oc), cfg)
}

func newWithAPI(api threadsAPI, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AssistantID) == "" {
		return nil, errors.New("assistant id is not set")
	}
	c := &Client{
		api:          api,
		assistantID:  cfg.AssistantID,
		prompt:       cfg.Prompt,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
	}
	if c.prompt == "" {
		c.prompt = assistant.DefaultPrompt
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.maxWait <= 0 {
		c.maxWait = DefaultMaxWait
	}
	return c, nil
}

func (c *Client) Ask(ctx context.Context, reservationJSON string) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", errors.Wrap(err, "create thread")
	}

	_, err = c.api.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    roleUser,
		Content: c.prompt + "\n\n" + reservationJSON,
	})
	if err != nil {
		return "", errors.Wrap(err, "create message")
	}

	run, err := c.api.CreateRun(ctx, thread.ID, openai.RunRequest{AssistantID: c.assistantID})
	if err != nil {
		return "", errors.Wrap(err, "create run")
	}

	status, done, err := c.waitRun(ctx, thread.ID, run)
	if err != nil {
		return "", err
	}
	if !done {
		slog.Warn("assistant run not finished", "thread_id", thread.ID, "run_id", run.ID, "status", status)
		return fmt.Sprintf("Assistant run did not complete within %s (last status: %s)", c.maxWait, status), nil
	}
	if status != openai.RunStatusCompleted {
		return fmt.Sprintf("Assistant run ended with status: %s", status), nil
	}

	limit := messagesPageSize
	order := "desc"
	msgs, err := c.api.ListMessage(ctx, thread.ID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", errors.Wrap(err, "list messages")
	}
	for _, m := range msgs.Messages {
		if m.Role == roleAssistant {
			return messageText(m), nil
		}
	}
	return noResponse, nil
}

// waitRun polls the run until it reaches a terminal status or maxWait passes.
// done is false when the bound was hit.
func (c *Client) waitRun(ctx context.Context, threadID string, run openai.Run) (status openai.RunStatus, done bool, err error) {
	status = run.Status
	if terminal(status) {
		return status, true, nil
	}

	deadline := time.NewTimer(c.maxWait)
	defer deadline.Stop()
	tick := time.NewTicker(c.pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return status, false, errors.Wrap(ctx.Err(), "wait for run")
		case <-deadline.C:
			return status, false, nil
		case <-tick.C:
		}

		r, err := c.api.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return status, false, errors.Wrap(err, "retrieve run")
		}
		status = r.Status
		if terminal(status) {
			return status, true, nil
		}
	}
}

func terminal(s openai.RunStatus) bool {
	switch s {
	case openai.RunStatusCompleted, openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired:
		return true
	}
	return false
}

// messageText joins the text parts of m with newlines.
func messageText(m openai.Message) string {
	parts := make([]string, 0, len(m.Content))
	for _, c := range m.Content {
		if c.Text != nil && c.Text.Value != "" {
			parts = append(parts, c.Text.Value)
		}
	}
	if len(parts) == 0 {
		return noTextContent
	}
	return strings.Join(parts, "\n")
}
