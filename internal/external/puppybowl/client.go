package puppybowl

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/platform/metrics"
	"github.com/riskibarqy/puppy-bowl/internal/platform/resilience"
	"github.com/riskibarqy/puppy-bowl/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "https://fsa-puppy-bowl.herokuapp.com/api"
	DefaultCohort  = "2505-Cody"

	maxResponseBytes = 2 << 20

	opListPlayers  = "list_players"
	opGetPlayer    = "get_player"
	opCreatePlayer = "create_player"
	opDeletePlayer = "delete_player"
)

var errRemoteTransient = crerr.New("puppy bowl transient failure")

var tracer = otel.Tracer("puppy-bowl/internal/external/puppybowl")

var _ player.Source = (*Client)(nil)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Cohort     string
	// Timeout of zero leaves requests unbounded.
	Timeout        time.Duration
	Logger         *logging.Logger
	Metrics        *metrics.Recorder
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the remote Puppy Bowl roster API for one cohort.
type Client struct {
	httpClient     *http.Client
	playersURL     string
	logger         *logging.Logger
	metrics        *metrics.Recorder
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         singleflight.Group
}

type statusError struct {
	status int
	raw    []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote status=%d body=%s", e.status, abbreviateBody(e.raw))
}

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("puppybowl")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	cohort := strings.Trim(strings.TrimSpace(cfg.Cohort), "/")
	if cohort == "" {
		cohort = DefaultCohort
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	next := breakerCfg.Observer
	recorder := cfg.Metrics
	breakerCfg.Observer = func(from, to resilience.CircuitState) {
		logger.Warn("puppy bowl circuit breaker changed state", "from", from, "to", to)
		recorder.RecordCircuitState(string(from), string(to))
		if next != nil {
			next(from, to)
		}
	}

	return &Client{
		httpClient:     httpClient,
		playersURL:     baseURL + "/" + url.PathEscape(cohort) + "/players",
		logger:         logger,
		metrics:        recorder,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}, nil
}

func (c *Client) ListPlayers(ctx context.Context) (out []player.Player, err error) {
	ctx, finish := c.begin(ctx, opListPlayers)
	defer func() { finish(err) }()

	var env envelope[playersData]
	if err := c.doJSON(ctx, http.MethodGet, "", nil, &env); err != nil {
		return nil, fmt.Errorf("%w: list players: %w", usecase.ErrFetchFailure, err)
	}
	if env.rejected() {
		return nil, fmt.Errorf("%w: list players: remote error: %s", usecase.ErrFetchFailure, env.Error)
	}
	if env.Data == nil || env.Data.Players == nil {
		return nil, fmt.Errorf("%w: list players: response has no players", usecase.ErrFetchFailure)
	}

	return mapPlayers(*env.Data.Players), nil
}

func (c *Client) GetPlayer(ctx context.Context, id int64) (out player.Player, err error) {
	ctx, finish := c.begin(ctx, opGetPlayer, attribute.Int64("player.id", id))
	defer func() { finish(err) }()

	if id <= 0 {
		return player.Player{}, fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
	}

	var env envelope[playerData]
	if err := c.doJSON(ctx, http.MethodGet, "/"+strconv.FormatInt(id, 10), nil, &env); err != nil {
		if isRemoteNotFound(err) {
			return player.Player{}, fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
		}
		return player.Player{}, fmt.Errorf("%w: get player id=%d: %w", usecase.ErrFetchFailure, id, err)
	}
	if env.rejected() {
		if env.Error == nil || env.Error.mentionsNotFound() {
			return player.Player{}, fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
		}
		return player.Player{}, fmt.Errorf("%w: get player id=%d: remote error: %s", usecase.ErrFetchFailure, id, env.Error)
	}
	if env.Data == nil || env.Data.Player == nil {
		return player.Player{}, fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
	}

	return env.Data.Player.toDomain(), nil
}

func (c *Client) CreatePlayer(ctx context.Context, input player.CreateInput) (out player.Player, err error) {
	ctx, finish := c.begin(ctx, opCreatePlayer)
	defer func() { finish(err) }()

	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: %w: %s", usecase.ErrCreateFailure, usecase.ErrInvalidInput, err.Error())
	}

	body := createRequest{
		Name:     input.Name,
		Breed:    input.Breed,
		ImageURL: input.ImageURL,
		Status:   string(input.Status),
	}

	var env envelope[newPlayerData]
	if err := c.doJSON(ctx, http.MethodPost, "", body, &env); err != nil {
		return player.Player{}, fmt.Errorf("%w: create player name=%q: %w", usecase.ErrCreateFailure, input.Name, err)
	}
	if !env.confirmed() {
		return player.Player{}, fmt.Errorf("%w: create player name=%q: remote rejected: %s", usecase.ErrCreateFailure, input.Name, env.Error)
	}
	if env.Data == nil || env.Data.NewPlayer == nil || env.Data.NewPlayer.ID <= 0 {
		return player.Player{}, fmt.Errorf("%w: create player name=%q: response has no player", usecase.ErrCreateFailure, input.Name)
	}

	return env.Data.NewPlayer.toDomain(), nil
}

func (c *Client) DeletePlayer(ctx context.Context, id int64) (err error) {
	ctx, finish := c.begin(ctx, opDeletePlayer, attribute.Int64("player.id", id))
	defer func() { finish(err) }()

	if id <= 0 {
		return fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
	}

	var env envelope[struct{}]
	if err := c.doJSON(ctx, http.MethodDelete, "/"+strconv.FormatInt(id, 10), nil, &env); err != nil {
		if isRemoteNotFound(err) {
			return fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
		}
		return fmt.Errorf("%w: delete player id=%d: %w", usecase.ErrDeleteFailure, id, err)
	}
	if !env.confirmed() {
		if env.Error.mentionsNotFound() {
			return fmt.Errorf("%w: player id=%d", usecase.ErrNotFound, id)
		}
		return fmt.Errorf("%w: delete player id=%d: remote rejected: %s", usecase.ErrDeleteFailure, id, env.Error)
	}

	return nil
}

// CircuitState reports the breaker state for health output.
func (c *Client) CircuitState() resilience.CircuitState {
	if !c.circuitEnabled {
		return resilience.CircuitStateClosed
	}
	return c.breaker.State()
}

func (c *Client) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "puppybowl."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("puppybowl.operation", op))...),
	)

	return ctx, func(err error) {
		outcome := outcomeOf(err)
		span.SetAttributes(attribute.String("puppybowl.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			if outcome != "not_found" {
				span.SetStatus(codes.Error, err.Error())
			}
			c.logger.WarnContext(ctx, "puppy bowl request failed", "operation", op, "outcome", outcome, "error", err)
		}
		c.metrics.RecordRemoteCall(op, outcome, time.Since(started))
		span.End()
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case stderrors.Is(err, usecase.ErrInvalidInput):
		return "invalid_input"
	case stderrors.Is(err, usecase.ErrNotFound):
		return "not_found"
	case stderrors.Is(err, usecase.ErrDependencyUnavailable):
		return "circuit_open"
	default:
		return "failure"
	}
}

// doJSON sends payload (if any) and decodes a 2xx body into target.
// Non-2xx answers come back as *statusError.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, target any) error {
	var body []byte
	if payload != nil {
		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)

		if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
			return crerr.Wrap(err, "encode request body")
		}
		body = buf.B
	}

	raw, err := c.send(ctx, method, c.playersURL+path, body)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrapf(err, "decode response body=%s", abbreviateBody(raw))
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	if method != http.MethodGet {
		return c.guarded(ctx, method, fullURL, body)
	}

	out, err, shared := c.flight.Do(method+" "+fullURL, func() (any, error) {
		return c.guarded(ctx, method, fullURL, nil)
	})
	if shared {
		c.logger.DebugContext(ctx, "puppy bowl request shared with concurrent caller", "url", fullURL)
	}
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, crerr.Newf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) guarded(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var raw []byte
	run := func() error {
		var err error
		raw, err = c.executeRequest(ctx, method, fullURL, body)
		return err
	}

	if !c.circuitEnabled {
		err := run()
		return raw, err
	}

	err := c.breaker.Execute(run, isCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "puppy bowl circuit breaker rejected request", "state", c.breaker.State())
		return nil, fmt.Errorf("%w: puppy bowl api is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errRemoteTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errRemoteTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &statusError{status: resp.StatusCode, raw: raw}
		if isTransientStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: %w", errRemoteTransient, statusErr)
		}
		return nil, statusErr
	}

	return raw, nil
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errRemoteTransient)
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func isRemoteNotFound(err error) bool {
	var statusErr *statusError
	if !stderrors.As(err, &statusErr) {
		return false
	}
	if statusErr.status == http.StatusNotFound {
		return true
	}

	var env envelope[struct{}]
	if sonic.Unmarshal(statusErr.raw, &env) != nil {
		return false
	}
	return !env.confirmed() && env.Error.mentionsNotFound()
}

func normalizeBaseURL(raw string) (string, error) {
	candidate := strings.TrimRight(strings.TrimSpace(raw), "/")
	if candidate == "" {
		return DefaultBaseURL, nil
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse base url %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("base url %q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("base url %q has empty host", candidate)
	}

	return candidate, nil
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
