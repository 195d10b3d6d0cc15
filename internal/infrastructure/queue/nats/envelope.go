package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
)

const (
	errorKindInvalidInput    = "invalid_input"
	errorKindProgramNotFound = "program_not_found"
	errorKindTemporary       = "temporary"
	errorKindInternal        = "internal"
)

type replyEnvelope struct {
	Answer *domain.Answer `json:"answer,omitempty"`
	Error  *replyError    `json:"error,omitempty"`
}

type replyError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func handleAsk(ctx context.Context, answerer ports.QuestionAnswerer, data []byte) []byte {
	var req domain.AskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeReply(replyEnvelope{Error: &replyError{
			Kind:    errorKindInvalidInput,
			Message: fmt.Sprintf("decode ask request: %v", err),
		}})
	}

	answer, err := answerer.Ask(ctx, req)
	if err != nil {
		slog.Warn("nats_ask_failed", "error", err)
		return encodeReply(replyEnvelope{Error: &replyError{Kind: errorKind(err), Message: err.Error()}})
	}
	return encodeReply(replyEnvelope{Answer: answer})
}

func encodeReply(env replyEnvelope) []byte {
	out, err := json.Marshal(env)
	if err != nil {
		out, _ = json.Marshal(replyEnvelope{Error: &replyError{Kind: errorKindInternal, Message: err.Error()}})
	}
	return out
}

func decodeReply(data []byte) (*domain.Answer, error) {
	var env replyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode ask reply: %w", err)
	}
	if env.Error != nil {
		return nil, domain.WrapError(kindError(env.Error.Kind), "nats ask", errors.New(env.Error.Message))
	}
	if env.Answer == nil {
		return nil, fmt.Errorf("decode ask reply: empty answer")
	}
	return env.Answer, nil
}

func errorKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return errorKindInvalidInput
	case domain.IsKind(err, domain.ErrProgramNotFound):
		return errorKindProgramNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return errorKindTemporary
	default:
		return errorKindInternal
	}
}

func kindError(kind string) error {
	switch kind {
	case errorKindInvalidInput:
		return domain.ErrInvalidInput
	case errorKindProgramNotFound:
		return domain.ErrProgramNotFound
	case errorKindTemporary:
		return domain.ErrTemporary
	default:
		return errors.New("remote ask failed")
	}
}
