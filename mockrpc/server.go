// Package mockrpc is an in-process JSON-RPC 2.0 stub used by the package
// tests. It understands both single requests and batch arrays, and always
// answers elements in request order with matching ids.
package mockrpc

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Error is a JSON-RPC error object
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler resolves a single method call
type Handler func(params []json.RawMessage) (any, *Error)

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// Server is a stubbed JSON-RPC node
type Server struct {
	mu            sync.Mutex
	handlers      map[string]Handler
	calls         map[string]int
	batchRequests int

	srv *httptest.Server
}

// NewServer starts the stub
func NewServer() *Server {
	s := &Server{
		handlers: make(map[string]Handler),
		calls:    make(map[string]int),
	}

	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))

	return s
}

// URL returns the endpoint to dial
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the stub down
func (s *Server) Close() {
	s.srv.Close()
}

// Handle registers the handler for a method
func (s *Server) Handle(method string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[method] = handler
}

// Calls returns how often the given method was invoked
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[method]
}

// BatchRequests returns how many batch array POSTs were received
func (s *Server) BatchRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.batchRequests
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	// A leading bracket means a batch array
	trimmed := firstNonSpace(body)

	if trimmed == '[' {
		s.mu.Lock()
		s.batchRequests++
		s.mu.Unlock()

		var reqs []request
		if err := json.Unmarshal(body, &reqs); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		responses := make([]response, 0, len(reqs))
		for _, req := range reqs {
			responses = append(responses, s.dispatch(req))
		}

		_ = json.NewEncoder(w).Encode(responses)

		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	_ = json.NewEncoder(w).Encode(s.dispatch(req))
}

func (s *Server) dispatch(req request) response {
	s.mu.Lock()
	handler, ok := s.handlers[req.Method]
	s.calls[req.Method]++
	s.mu.Unlock()

	resp := response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	if !ok {
		resp.Error = &Error{
			Code:    -32601,
			Message: "the method " + req.Method + " does not exist",
		}

		return resp
	}

	resp.Result, resp.Error = handler(req.Params)

	return resp
}

func firstNonSpace(body []byte) byte {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}

	return 0
}

// ReceiptResult builds a receipt response body for the given inclusion
func ReceiptResult(hash common.Hash, block uint64, status uint64) map[string]any {
	return map[string]any{
		"transactionHash":   hash,
		"transactionIndex":  "0x0",
		"blockHash":         common.HexToHash("0xbeef"),
		"blockNumber":       hexutil.EncodeUint64(block),
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"contractAddress":   nil,
		"logs":              []any{},
		"logsBloom":         "0x" + repeat("00", 256),
		"status":            hexutil.EncodeUint64(status),
		"type":              "0x0",
	}
}

// BlockResult builds a block response body with the given shape
func BlockResult(number, timestamp, gasUsed, gasLimit uint64, txs []common.Hash) map[string]any {
	if txs == nil {
		txs = []common.Hash{}
	}

	return map[string]any{
		"number":       hexutil.EncodeUint64(number),
		"timestamp":    hexutil.EncodeUint64(timestamp),
		"gasUsed":      hexutil.EncodeUint64(gasUsed),
		"gasLimit":     hexutil.EncodeUint64(gasLimit),
		"transactions": txs,
	}
}

func repeat(s string, count int) string {
	out := make([]byte, 0, len(s)*count)
	for i := 0; i < count; i++ {
		out = append(out, s...)
	}

	return string(out)
}
