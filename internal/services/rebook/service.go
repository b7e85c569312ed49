package rebook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/RebookBox/internal/broker/messages"
	"github.com/BearBump/RebookBox/internal/integrations/assistant"
	"github.com/BearBump/RebookBox/internal/models"
	"github.com/BearBump/RebookBox/internal/services/lookup"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrAssistantDisabled = errors.New("assistant is not configured")

type Lookuper interface {
	Lookup(ctx context.Context, req models.LookupRequest, debug bool) (*models.LookupResult, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Rebooking is the /rebook response: the assistant's reply and the
// reservation it was given.
type Rebooking struct {
	Result string               `json:"result"`
	Data   *models.LookupResult `json:"data"`
}

type Service struct {
	lookup    Lookuper
	assistant assistant.Client
	producer  Producer
	topic     string

	publishTimeout time.Duration
	newID          func() string
}

// New builds the service. assistant and producer may be nil: Rebook then
// fails with ErrAssistantDisabled, and no events are published.
func New(l Lookuper, a assistant.Client, p Producer, topic string) *Service {
	return &Service{
		lookup:         l,
		assistant:      a,
		producer:       p,
		topic:          topic,
		publishTimeout: 2 * time.Second,
		newID:          func() string { return uuid.NewString() },
	}
}

func (s *Service) AssistantEnabled() bool {
	return s.assistant != nil
}

func (s *Service) Lookup(ctx context.Context, req models.LookupRequest, debug bool) (*models.LookupResult, error) {
	start := time.Now()
	res, err := s.lookup.Lookup(ctx, req, debug)
	s.publish(ctx, messages.OperationLookup, res, err, start)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) Rebook(ctx context.Context, req models.LookupRequest, debug bool) (out *Rebooking, err error) {
	if s.assistant == nil {
		return nil, ErrAssistantDisabled
	}

	start := time.Now()
	var res *models.LookupResult
	defer func() { s.publish(ctx, messages.OperationRebook, res, err, start) }()

	res, err = s.lookup.Lookup(ctx, req, debug)
	if err != nil {
		return nil, err
	}
	payload, err := reservationJSON(res)
	if err != nil {
		return nil, err
	}
	reply, err := s.assistant.Ask(ctx, payload)
	if err != nil {
		return nil, errors.Wrap(err, "ask assistant")
	}
	return &Rebooking{Result: reply, Data: res}, nil
}

// reservationJSON encodes res without HTML escaping so the assistant sees the
// text as it appeared on the page.
func reservationJSON(res *models.LookupResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return "", errors.Wrap(err, "encode reservation")
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func (s *Service) publish(ctx context.Context, op string, res *models.LookupResult, lookupErr error, start time.Time) {
	if s.producer == nil || s.topic == "" {
		return
	}
	ev := messages.LookupCompleted{
		LookupID:    s.newID(),
		Operation:   op,
		Outcome:     "success",
		DurationMs:  time.Since(start).Milliseconds(),
		CompletedAt: time.Now().UTC(),
	}
	if res != nil {
		ev.Segments = len(res.Segments)
		ev.Warnings = len(res.Warnings)
	}
	if lookupErr != nil {
		ev.Outcome = "error"
		ev.ErrorKind = string(lookup.KindOf(lookupErr))
		if ev.ErrorKind == "" {
			ev.ErrorKind = "assistant"
		}
	}

	b, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal lookup event", "error", err.Error())
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.producer.Publish(pctx, s.topic, []byte(ev.LookupID), b); err != nil {
		slog.Warn("publish lookup event", "topic", s.topic, "lookup_id", ev.LookupID, "error", err.Error())
	}
}
