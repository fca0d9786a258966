package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

const maxLogLimit = 1000

// BlockDecoder decodes every transaction of a block
type BlockDecoder interface {
	DecodeBlock(ctx context.Context, tag string) (*entity.BlockCalls, error)
}

// TokenLookup gathers transfers and owners of a token contract
type TokenLookup interface {
	Lookup(ctx context.Context, address string, onUpdate func(entity.TokenDetails)) (*entity.TokenDetails, error)
}

// TransferLogViewer scans recent transfer logs of a token contract
type TransferLogViewer interface {
	RecentTransfers(ctx context.Context, address string, blocks uint64, limit int) (*entity.TransferLogPage, error)
}

// Dependencies are the services behind the API
type Dependencies struct {
	Registry   *blockchain.SelectorRegistry
	Decoder    service.CalldataDecoder
	Classifier service.ContractClassifierService
	Blocks     BlockDecoder
	Tokens     TokenLookup
	Logs       TransferLogViewer
	Metrics    *metrics.Metrics
	// Health returns component name to status; any non-"ok" value makes /health fail
	Health func() map[string]string
}

// Handler serves the explorer API
type Handler struct {
	deps   Dependencies
	logger *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(deps Dependencies, logger *logger.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: logger.WithComponent("api"),
	}
}

// NewRouter registers every route
func NewRouter(h *Handler, metricsPath string) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.Health).Methods("GET")
	if h.deps.Metrics != nil && metricsPath != "" {
		router.Handle(metricsPath, h.deps.Metrics.Handler()).Methods("GET")
	}

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/selectors", h.Selectors).Methods("GET")
	apiRouter.HandleFunc("/calldata/{data}", h.Calldata).Methods("GET")
	apiRouter.HandleFunc("/blocks/{tag}", h.Block).Methods("GET")
	apiRouter.HandleFunc("/tokens/{address}", h.Token).Methods("GET")
	apiRouter.HandleFunc("/tokens/{address}/logs", h.TokenLogs).Methods("GET")

	return router
}

// Health reports component status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"api": "ok"}
	if h.deps.Health != nil {
		for k, v := range h.deps.Health() {
			status[k] = v
		}
	}
	for _, v := range status {
		if v != "ok" {
			sendResponse(w, h.logger, "health", http.StatusServiceUnavailable, "ERROR: unhealthy", status)
			return
		}
	}
	sendOKResponse(w, h.logger, "health", status)
}

// SelectorView is a registry entry as returned by the API
type SelectorView struct {
	Selector  string               `json:"selector"`
	Signature string               `json:"signature"`
	Source    string               `json:"source"`
	Inputs    []entity.AbiParam    `json:"inputs"`
	Decodable bool                 `json:"decodable"`
	Standard  entity.TokenStandard `json:"standard,omitempty"`
}

// CollisionView is a replaced registration as returned by the API
type CollisionView struct {
	Selector string `json:"selector"`
	Replaced string `json:"replaced"`
	Winner   string `json:"winner"`
}

// SelectorsResponse lists the registry
type SelectorsResponse struct {
	Selectors  []SelectorView                    `json:"selectors"`
	Collisions []CollisionView                   `json:"collisions"`
	Patterns   map[entity.TokenStandard][]string `json:"patterns,omitempty"`
}

// BuildSelectorsResponse lists the registry entries sorted by selector
func BuildSelectorsResponse(registry *blockchain.SelectorRegistry, classifier service.ContractClassifierService) *SelectorsResponse {
	resp := &SelectorsResponse{
		Selectors:  make([]SelectorView, 0, registry.Len()),
		Collisions: make([]CollisionView, 0),
	}
	for _, e := range registry.Entries() {
		view := SelectorView{
			Selector:  e.Selector.Hex(),
			Signature: e.Signature,
			Source:    e.Source,
			Inputs:    e.Fragment.Inputs,
			Decodable: e.Decodable(),
		}
		if classifier != nil {
			if standard := classifier.ClassifyFromSelector(view.Selector); standard != entity.TokenStandardUnknown {
				view.Standard = standard
			}
		}
		resp.Selectors = append(resp.Selectors, view)
	}
	for _, c := range registry.Collisions() {
		resp.Collisions = append(resp.Collisions, CollisionView{
			Selector: c.Selector.Hex(),
			Replaced: c.ReplacedSource + ":" + c.ReplacedSignature,
			Winner:   c.WinnerSource + ":" + c.WinnerSignature,
		})
	}
	if classifier != nil {
		resp.Patterns = classifier.GetContractPatterns()
	}
	return resp
}

// Selectors lists the registry
func (h *Handler) Selectors(w http.ResponseWriter, r *http.Request) {
	sendOKResponse(w, h.logger, "selectors", BuildSelectorsResponse(h.deps.Registry, h.deps.Classifier))
}

// Calldata decodes hex calldata from the path
func (h *Handler) Calldata(w http.ResponseWriter, r *http.Request) {
	data := mux.Vars(r)["data"]

	call, err := h.deps.Decoder.DecodeHex(data)
	if h.deps.Metrics != nil {
		h.deps.Metrics.ObserveDecode(call, err)
	}
	if err != nil {
		if errors.Is(err, entity.ErrMalformedCalldata) || errors.Is(err, entity.ErrUnsupportedAbiType) {
			sendResponse(w, h.logger, "calldata", http.StatusUnprocessableEntity, "ERROR: "+err.Error(), nil)
			return
		}
		sendServerErrorResponse(w, h.logger, "calldata", err.Error())
		return
	}
	sendOKResponse(w, h.logger, "calldata", call)
}

// Block decodes every transaction of a block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	block, err := h.deps.Blocks.DecodeBlock(r.Context(), tag)
	if err != nil {
		var transportErr *entity.TransportError
		if errors.As(err, &transportErr) {
			sendPartialResponse(w, h.logger, "block", err.Error(), nil)
			return
		}
		sendBadRequestResponse(w, h.logger, "block", err.Error())
		return
	}
	sendOKResponse(w, h.logger, "block", block)
}

// Token returns transfers, NFT owners and a summary of a token contract
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	address, ok := h.addressVar(w, r, "token")
	if !ok {
		return
	}

	details, err := h.deps.Tokens.Lookup(r.Context(), address, nil)
	if err != nil {
		if details != nil {
			sendPartialResponse(w, h.logger, "token", err.Error(), details)
			return
		}
		sendServerErrorResponse(w, h.logger, "token", err.Error())
		return
	}
	sendOKResponse(w, h.logger, "token", details)
}

// TokenLogs returns recent transfer events of a token contract
func (h *Handler) TokenLogs(w http.ResponseWriter, r *http.Request) {
	address, ok := h.addressVar(w, r, "token_logs")
	if !ok {
		return
	}

	var blocks uint64
	if v := r.URL.Query().Get("blocks"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			sendBadRequestResponse(w, h.logger, "token_logs", "invalid blocks parameter")
			return
		}
		blocks = n
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxLogLimit {
			sendBadRequestResponse(w, h.logger, "token_logs", "invalid limit parameter")
			return
		}
		limit = n
	}

	page, err := h.deps.Logs.RecentTransfers(r.Context(), address, blocks, limit)
	if err != nil {
		if page != nil {
			sendPartialResponse(w, h.logger, "token_logs", err.Error(), page)
			return
		}
		sendServerErrorResponse(w, h.logger, "token_logs", err.Error())
		return
	}
	sendOKResponse(w, h.logger, "token_logs", page)
}

func (h *Handler) addressVar(w http.ResponseWriter, r *http.Request, route string) (string, bool) {
	address := mux.Vars(r)["address"]
	if !common.IsHexAddress(address) {
		sendBadRequestResponse(w, h.logger, route, "invalid address")
		return "", false
	}
	return common.HexToAddress(address).Hex(), true
}
