package generator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	attemptFirst  = "first"
	attemptRepair = "repair"
)

// Agent is the generation client: one provider call, plus at most one repair call
// when the first reply does not parse.
type Agent struct {
	llm     LLMClient
	logger  *zap.Logger
	timeout time.Duration
	tracer  trace.Tracer
}

type AgentOption func(*Agent)

func WithLogger(l *zap.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTimeout bounds each provider invocation separately.
func WithTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.timeout = d }
}

func NewAgent(llm LLMClient, opts ...AgentOption) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	a := &Agent{
		llm:    llm,
		logger: zap.NewNop(),
		tracer: otel.Tracer("policy_workbench/generator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// GenerateJSON returns the parsed result and the raw text it came from. When the
// repair attempt also fails to parse, the result is nil and raw is the repair reply.
// Only transport failures are returned as errors; they never trigger the repair call.
func (a *Agent) GenerateJSON(ctx context.Context, prompt Prompt, model string, maxOutputTokens int) (Result, string, error) {
	prompt.Model = model
	prompt.MaxOutputTokens = maxOutputTokens

	raw, err := a.complete(ctx, attemptFirst, prompt)
	if err != nil {
		return nil, "", err
	}
	result, perr := ParseResponse(raw)
	if perr == nil {
		return result, raw, nil
	}
	a.logger.Warn("first reply did not parse, sending repair prompt",
		zap.String("model", model), zap.Int("raw_len", len(raw)), zap.Error(perr))

	repair := BuildRepairPrompt(raw)
	repair.Model = model
	repair.MaxOutputTokens = maxOutputTokens
	raw2, err := a.complete(ctx, attemptRepair, repair)
	if err != nil {
		return nil, "", err
	}
	result, perr = ParseResponse(raw2)
	if perr != nil {
		a.logger.Warn("repair reply did not parse",
			zap.String("model", model), zap.Int("raw_len", len(raw2)), zap.Error(perr))
		return nil, raw2, nil
	}
	return result, raw2, nil
}

// Generate builds the prompt for req and runs GenerateJSON.
func (a *Agent) Generate(ctx context.Context, req GenerationRequest, model string, maxOutputTokens int) (Result, string, error) {
	return a.GenerateJSON(ctx, BuildPrompt(req), model, maxOutputTokens)
}

func (a *Agent) complete(ctx context.Context, attempt string, prompt Prompt) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	ctx, span := a.tracer.Start(ctx, "generator.complete", trace.WithAttributes(
		attribute.String("attempt", attempt),
		attribute.String("model", prompt.Model),
	))
	defer span.End()

	start := time.Now()
	raw, err := a.llm.Complete(ctx, prompt)
	elapsed := time.Since(start)
	if err == nil && ctx.Err() != nil {
		// a provider that ignores cancellation still counts as non-response
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("provider call failed",
			zap.String("attempt", attempt), zap.String("model", prompt.Model),
			zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", &TransportError{Attempt: attempt, Err: err}
	}
	span.SetAttributes(attribute.Int("raw_len", len(raw)))
	a.logger.Info("provider call finished",
		zap.String("attempt", attempt), zap.String("model", prompt.Model),
		zap.Int("raw_len", len(raw)), zap.Duration("elapsed", elapsed))
	return raw, nil
}
