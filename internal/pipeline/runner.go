// Package pipeline orchestrates a request from raw bytes to a client-ready
// response: provider filtering, protocol decoding, contract validation,
// execution, and encoding, with every terminal path audited.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/tidwall/gjson"

	"github.com/aistats/gateway/internal/capability"
	"github.com/aistats/gateway/internal/codec"
	"github.com/aistats/gateway/internal/contract"
	"github.com/aistats/gateway/internal/core/domain"
	"github.com/aistats/gateway/internal/core/ports"
	"github.com/aistats/gateway/internal/metrics"
	"github.com/aistats/gateway/internal/registry"
	"github.com/aistats/gateway/internal/routing"
	"github.com/aistats/gateway/internal/telemetry"
	"github.com/aistats/gateway/internal/tokens"
)

// Runner executes the full request pipeline for one endpoint call.
type Runner struct {
	registry *registry.Registry
	codecs   *codec.Registry
	executor ports.Executor
	tokens   *tokens.Registry
	audit    ports.AuditSink
	metrics  *metrics.Metrics
	logger   *slog.Logger
	warnOnce *telemetry.WarnOnce

	// debug forces contract issues and raw failure text onto every error
	// body; individual requests can opt in via Request.Debug or the body's
	// debug option.
	debug bool
	match capability.MatchOptions
}

// Options configures a Runner. Registry, Codecs and Executor are required.
type Options struct {
	Registry *registry.Registry
	Codecs   *codec.Registry
	Executor ports.Executor
	Tokens   *tokens.Registry
	Audit    ports.AuditSink
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Debug    bool
	Match    capability.MatchOptions
}

// NewRunner creates a pipeline runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tok := opts.Tokens
	if tok == nil {
		tok = tokens.NewRegistry(tokens.NewTiktokenCounter())
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Runner{
		registry: opts.Registry,
		codecs:   opts.Codecs,
		executor: opts.Executor,
		tokens:   tok,
		audit:    opts.Audit,
		metrics:  m,
		logger:   logger,
		warnOnce: telemetry.NewWarnOnce(logger),
		debug:    opts.Debug,
		match:    opts.Match,
	}
}

// Outcome is a finished pipeline run, ready to write to the client.
type Outcome struct {
	Status      int
	Body        []byte
	ContentType string
}

// Request is one inbound call to the pipeline.
type Request struct {
	Endpoint  domain.Endpoint
	RawBody   []byte
	RequestID string
	TeamID    string
	// Debug opts this request into verbose error detail, typically set from
	// the X-Gateway-Debug header. The body's debug option has the same
	// effect.
	Debug bool
}

// debugRequested reads the request body's debug option: either a bare
// boolean or an options object with an enabled flag.
func debugRequested(raw []byte) bool {
	v := gjson.GetBytes(raw, "debug")
	if v.Type == gjson.True {
		return true
	}
	return v.Get("enabled").Bool()
}

// Handle runs the pipeline for one request. It never panics: stage panics
// become sanitized pipeline execution errors.
func (r *Runner) Handle(ctx context.Context, req Request) (out Outcome) {
	timer := telemetry.NewTimer()
	endpoint, rawBody := req.Endpoint, req.RawBody
	requestID, teamID := req.RequestID, req.TeamID
	state := &runState{endpoint: endpoint, requestID: requestID, teamID: teamID}
	dbg := r.debug || req.Debug || debugRequested(rawBody)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pipeline panic",
				slog.String("request_id", requestID),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			errResp := domain.NewPipelineExecutionError(requestID, fmt.Sprint(rec), dbg)
			out = r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}
	}()

	state.model = gjson.GetBytes(rawBody, "model").String()
	if state.model == "" {
		errResp := domain.NewInvalidRequest("model is required", requestID, nil, dbg)
		return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
	}

	candidates, ok := r.registry.Current().Candidates(state.model)
	if !ok {
		errResp := domain.NewInvalidRequest(fmt.Sprintf("unknown model %q", state.model), requestID, nil, dbg)
		return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
	}

	filterRes, errResp := routing.Filter(routing.Request{
		Endpoint:  endpoint,
		RawBody:   rawBody,
		Model:     state.model,
		RequestID: requestID,
		TeamID:    teamID,
		Providers: candidates,
		Match:     r.match,
	})
	timer.Mark("filter")
	if errResp != nil {
		return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
	}
	state.diagnostics = &filterRes.Diagnostics
	pool := filterRes.Providers
	if len(pool) == 0 {
		errResp := domain.NewInvalidRequest(fmt.Sprintf("no providers configured for model %q", state.model), requestID, nil, dbg)
		return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
	}

	var irReq *domain.ChatRequest
	if endpoint.IsText() {
		c, ok := r.codecs.ForEndpoint(endpoint)
		if !ok {
			errResp := domain.NewPipelineExecutionError(requestID,
				fmt.Sprintf("no codec registered for endpoint %s", endpoint), dbg)
			return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}

		var err error
		irReq, err = c.DecodeRequest(rawBody)
		timer.Mark("decode")
		if err != nil {
			errResp := domain.NewInvalidRequest(err.Error(), requestID, nil, dbg)
			return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}

		if issues := contract.Validate(irReq); len(issues) > 0 {
			errResp := domain.NewInvalidRequest(issues[0].Message, requestID, issues, dbg)
			return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}
		timer.Mark("contract")

		pool, errResp = r.applyInputBudget(ctx, irReq, pool, requestID, teamID)
		if errResp != nil {
			return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}
		timer.Mark("budget")
	}

	provider := pool[0]
	state.provider = provider.ProviderID

	result, err := r.executor.Execute(ctx, ports.ExecuteInput{
		Endpoint:  endpoint,
		Provider:  provider,
		Request:   irReq,
		RawBody:   rawBody,
		RequestID: requestID,
		TeamID:    teamID,
	})
	timer.Mark("execute")
	if err != nil {
		errResp := domain.NewPipelineExecutionError(requestID, err.Error(), dbg)
		return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
	}
	if result.Err != nil {
		return r.finish(ctx, state, timer, errorOutcome(result.Err), result.Err)
	}

	if result.Response != nil {
		if len(result.Response.Choices) > 0 {
			state.finishReason = result.Response.Choices[0].FinishReason
		}
		c, ok := r.codecs.ForEndpoint(endpoint)
		if !ok {
			errResp := domain.NewPipelineExecutionError(requestID,
				fmt.Sprintf("no codec registered for endpoint %s", endpoint), dbg)
			return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}
		body, err := c.EncodeResponse(result.Response)
		timer.Mark("encode")
		if err != nil {
			errResp := domain.NewPipelineExecutionError(requestID, err.Error(), dbg)
			return r.finish(ctx, state, timer, errorOutcome(errResp), errResp)
		}
		return r.finish(ctx, state, timer, Outcome{
			Status:      http.StatusOK,
			Body:        body,
			ContentType: "application/json",
		}, nil)
	}

	// Media passthrough.
	return r.finish(ctx, state, timer, Outcome{
		Status:      http.StatusOK,
		Body:        result.RawBody,
		ContentType: "application/json",
	}, nil)
}

// applyInputBudget drops providers whose input-token ceiling is below the
// request's counted input. An empty result fails the request.
func (r *Runner) applyInputBudget(ctx context.Context, req *domain.ChatRequest, pool []domain.ProviderCandidate, requestID, teamID string) ([]domain.ProviderCandidate, *domain.ErrorResponse) {
	bounded := false
	for _, p := range pool {
		if p.MaxInputTokens != nil {
			bounded = true
			break
		}
	}
	if !bounded {
		return pool, nil
	}

	count, err := r.tokens.CountInput(ctx, req)
	if err != nil {
		r.warnOnce.Warn("tokens/"+req.Model, "input token counting failed, skipping budget check",
			slog.String("model", req.Model), slog.String("error", err.Error()))
		return pool, nil
	}

	kept := make([]domain.ProviderCandidate, 0, len(pool))
	var details []domain.ErrorDetail
	for _, p := range pool {
		if p.MaxInputTokens != nil && *p.MaxInputTokens < count.InputTokens {
			details = append(details, domain.ErrorDetail{
				Message: fmt.Sprintf("input of %d tokens exceeds the %d token input limit of provider %q",
					count.InputTokens, *p.MaxInputTokens, p.ProviderID),
				Path:    []string{"messages"},
				Keyword: domain.KeywordMaxInputTokensExceeded,
				Params: map[string]any{
					"inputTokens": count.InputTokens,
					"limit":       *p.MaxInputTokens,
					"provider":    p.ProviderID,
					"estimated":   count.Estimated,
				},
			})
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil, domain.NewValidationError(details, requestID, teamID)
	}
	return kept, nil
}

type runState struct {
	endpoint     domain.Endpoint
	requestID    string
	teamID       string
	model        string
	provider     string
	finishReason string
	diagnostics  *domain.ParamRoutingDiagnostics
}

func errorOutcome(errResp *domain.ErrorResponse) Outcome {
	body, err := json.Marshal(errResp)
	if err != nil {
		body = []byte(`{"error":"pipeline_execution_error"}`)
	}
	return Outcome{Status: errResp.Status, Body: body, ContentType: "application/json"}
}

// finish records audit, metrics and logs for a terminal outcome.
func (r *Runner) finish(ctx context.Context, state *runState, timer *telemetry.Timer, out Outcome, errResp *domain.ErrorResponse) Outcome {
	total := timer.Total()

	r.metrics.RequestsTotal.WithLabelValues(string(state.endpoint), fmt.Sprint(out.Status)).Inc()
	r.metrics.RequestDuration.WithLabelValues(string(state.endpoint)).Observe(total.Seconds())

	errorCode := ""
	if errResp != nil {
		errorCode = errResp.Code
		for _, d := range errResp.Details {
			r.metrics.ValidationErrorsTotal.WithLabelValues(d.Keyword).Inc()
		}
	}
	if state.diagnostics != nil {
		for _, stage := range state.diagnostics.FilteringStages {
			if n := len(stage.DroppedProviders); n > 0 {
				r.metrics.ProvidersDroppedTotal.WithLabelValues(string(stage.Stage)).Add(float64(n))
			}
		}
	}

	if r.audit != nil {
		var timings map[string]int64
		if marks := timer.Marks(); len(marks) > 0 {
			timings = make(map[string]int64, len(marks))
			for _, m := range marks {
				timings[m.Name] = m.Elapsed.Milliseconds()
			}
		}
		rec := &domain.AuditRecord{
			RequestID:      state.requestID,
			TeamID:         state.teamID,
			Endpoint:       state.endpoint,
			Model:          state.model,
			Provider:       state.provider,
			Status:         out.Status,
			ErrorCode:      errorCode,
			FinishReason:   state.finishReason,
			DurationMillis: total.Milliseconds(),
			StageTimingsMs: timings,
			Diagnostics:    state.diagnostics,
		}
		if err := r.audit.Record(ctx, rec); err != nil {
			r.logger.Error("audit record failed",
				slog.String("request_id", state.requestID),
				slog.String("error", err.Error()),
			)
		}
	}

	attrs := []any{
		slog.String("request_id", state.requestID),
		slog.String("endpoint", string(state.endpoint)),
		slog.String("model", state.model),
		slog.Int("status", out.Status),
		slog.Duration("duration", total),
	}
	if state.provider != "" {
		attrs = append(attrs, slog.String("provider", state.provider))
	}
	if errResp != nil {
		attrs = append(attrs, slog.String("error_code", errorCode))
		r.logger.Warn("request failed", attrs...)
	} else {
		r.logger.Info("request completed", attrs...)
	}

	return out
}
