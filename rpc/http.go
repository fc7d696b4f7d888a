package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"ubichain/config"
	"ubichain/indexer"
	"ubichain/native/ubi"
	"ubichain/observability"
)

const (
	tracerName      = "ubichain/rpc"
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRejected       = -32010
	codeRateLimited    = -32020
)

// RPCRequest is a single JSON-RPC 2.0 call.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id,omitempty"`
}

// RPCResponse carries either a result or an error for a request.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *RPCError       `json:"error"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Backend is the ledger surface served over JSON-RPC. *core.Node satisfies it.
type Backend interface {
	Height() uint64
	StateRoot() [32]byte

	RegisterRecipient(caller [20]byte, kycHash [32]byte, region string, dependencyScore uint8) (*ubi.Recipient, error)
	VerifyRecipient(caller, recipient [20]byte, level ubi.VerificationLevel) (*ubi.Recipient, error)
	RegisterVerifier(caller [20]byte, regionFocus string) (*ubi.Verifier, error)
	CreateProgram(caller [20]byte, params ubi.ProgramParams) (uint64, error)
	PauseProgram(caller [20]byte, id uint64) error
	Claim(caller [20]byte, programID uint64) (*ubi.Claim, error)
	Contribute(caller [20]byte, amount *big.Int, targets []uint64) (*ubi.FundingSource, error)

	Recipient(addr [20]byte) (*ubi.Recipient, bool, error)
	Program(id uint64) (*ubi.Program, bool, error)
	ClaimByID(id uint64) (*ubi.Claim, bool, error)
	Verifier(addr [20]byte) (*ubi.Verifier, bool, error)
	FundingSource(addr [20]byte) (*ubi.FundingSource, bool, error)
	Emergency(id uint64) (*ubi.EmergencyDistribution, bool, error)
	CanClaim(recipient [20]byte, programID uint64) (bool, error)
	ClaimableAmount(recipient [20]byte, programID uint64) (*big.Int, error)
	PlatformStats() (*ubi.PlatformStats, error)
	Balance(addr [20]byte) (*big.Int, error)
}

// ClaimLister answers claim history queries.
type ClaimLister interface {
	List(ctx context.Context, q indexer.Query) ([]indexer.ClaimRecord, error)
}

// ServerConfig controls authentication, throttling, logging and tracing for
// the server. A nil Tracer uses the global otel provider.
type ServerConfig struct {
	Auth      config.Auth
	RateLimit config.RateLimit
	Logger    *slog.Logger
	Tracer    trace.TracerProvider
}

type handlerFunc func(ctx context.Context, caller [20]byte, params []json.RawMessage) (interface{}, *RPCError)

type method struct {
	fn       handlerFunc
	mutating bool
}

// Server exposes a Backend over JSON-RPC 2.0 on HTTP.
type Server struct {
	node    Backend
	claims  ClaimLister
	auth    *authenticator
	limiter *rateLimiter
	logger  *slog.Logger
	metrics *observability.RPCMetrics
	tracer  trace.Tracer
	methods map[string]method
}

// NewServer builds a server for node. claims may be nil, in which case
// ubi_listClaims reports that no index is configured.
func NewServer(node Backend, claims ClaimLister, cfg ServerConfig) (*Server, error) {
	if node == nil {
		return nil, errors.New("rpc: backend required")
	}
	auth, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	provider := cfg.Tracer
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	s := &Server{
		node:    node,
		claims:  claims,
		auth:    auth,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
		metrics: observability.RPC(),
		tracer:  provider.Tracer(tracerName),
	}
	s.methods = s.routes()
	return s, nil
}

// Handler returns the HTTP routes for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rpc: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"height": s.node.Height(),
	})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid JSON-RPC request", nil)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
		return
	}

	parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := s.tracer.Start(parent, req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
			attribute.String("ubi.request_id", requestIDFrom(r.Context())),
		))
	defer span.End()

	result, rpcErr := s.dispatch(r.WithContext(ctx), m, req)
	code, kind := 0, ""
	if rpcErr != nil {
		code = rpcErr.Code
		if data, ok := rpcErr.Data.(RejectionData); ok {
			kind = data.Kind
			span.SetAttributes(attribute.String("ubi.rejection", kind))
		}
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
		span.SetStatus(codes.Error, rpcErr.Message)
	}
	s.metrics.Observe(req.Method, code, kind, time.Since(start))
	s.logger.Debug("rpc request",
		slog.String("requestId", requestIDFrom(r.Context())),
		slog.String("method", req.Method),
		slog.Int("code", code),
		slog.Duration("duration", time.Since(start)))

	if rpcErr != nil {
		writeError(w, statusFor(rpcErr.Code), req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) dispatch(r *http.Request, m method, req RPCRequest) (interface{}, *RPCError) {
	if !s.limiter.allow(clientSource(r)) {
		s.metrics.RecordThrottle("rate_limit")
		return nil, &RPCError{Code: codeRateLimited, Message: "rate limit exceeded"}
	}
	var caller [20]byte
	if m.mutating {
		var authErr *RPCError
		caller, authErr = s.auth.caller(r)
		if authErr != nil {
			return nil, authErr
		}
	}
	return m.fn(r.Context(), caller, req.Params)
}

func statusFor(code int) int {
	switch code {
	case codeParseError, codeInvalidRequest, codeInvalidParams, codeRejected:
		return http.StatusBadRequest
	case codeMethodNotFound:
		return http.StatusNotFound
	case codeUnauthorized:
		return http.StatusUnauthorized
	case codeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

type ctxKey int

const requestIDKey ctxKey = 0

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func chainHeight(node Backend) map[string]interface{} {
	height := node.Height()
	root := node.StateRoot()
	return map[string]interface{}{
		"height":    height,
		"period":    ubi.MonthlyPeriodAt(height),
		"stateRoot": hexutil.Encode(root[:]),
	}
}
