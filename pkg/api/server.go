// Package api exposes the matching engine over REST and WebSocket.
// It is an adapter only: all matching semantics live in pkg/engine and
// pkg/orderbook.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/dkimq/matchbook/pkg/engine"
	"github.com/dkimq/matchbook/pkg/orderbook"
)

// TradeHistory serves recent-trade queries; the pebble journal is the
// production implementation.
type TradeHistory interface {
	RecentTrades(symbol string, limit int) ([]engine.Trade, error)
}

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
)

// Server handles the REST API and WebSocket connections.
type Server struct {
	engine  *engine.Engine
	history TradeHistory // nil disables the trades endpoint
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
	httpSrv *http.Server
}

// NewServer wires the HTTP routes. The server is also an
// engine.TradeSink: register it on the engine to stream trades to
// WebSocket subscribers.
func NewServer(eng *engine.Engine, history TradeHistory, log *zap.SugaredLogger) *Server {
	s := &Server{
		engine:  eng,
		history: history,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleGetTrades).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full middleware-wrapped handler; exposed so
// tests can drive the server through httptest.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

// Start runs the hub and serves HTTP until Shutdown.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	s.httpSrv = &http.Server{Addr: addr, Handler: s.Handler()}
	s.log.Infow("api_server_starting", "addr", addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// PublishTrade implements engine.TradeSink by pushing the trade to
// "trades:<symbol>" subscribers. Broadcasting never fails the match.
func (s *Server) PublishTrade(t engine.Trade) error {
	s.hub.BroadcastToChannel("trades:"+t.Symbol, TradeUpdate{
		Type:      "trade",
		Symbol:    t.Symbol,
		Price:     t.Price.String(),
		Qty:       t.Qty,
		TakerSide: t.TakerSide,
		Timestamp: t.Timestamp,
	})
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	pairs := s.engine.Pairs()
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Symbol() < pairs[j].Symbol() })

	response := make([]MarketInfo, len(pairs))
	for i, p := range pairs {
		response[i] = MarketInfo{
			Symbol:     p.Symbol(),
			BaseAsset:  p.Base,
			QuoteAsset: p.Quote,
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	pair, err := engine.ParsePair(symbol)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed symbol", err.Error())
		return
	}

	bidLevels, askLevels, err := s.engine.Depth(pair)
	if err != nil {
		respondError(w, http.StatusNotFound, "unknown market", err.Error())
		return
	}

	response := OrderbookSnapshot{
		Symbol:    pair.Symbol(),
		Bids:      toAPILevels(bidLevels),
		Asks:      toAPILevels(askLevels),
		Timestamp: time.Now().UnixMilli(),
	}
	respondJSON(w, response)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	pair, err := engine.ParsePair(symbol)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed symbol", err.Error())
		return
	}

	limit := defaultTradeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		if n > maxTradeLimit {
			n = maxTradeLimit
		}
		limit = n
	}

	if s.history == nil {
		respondJSON(w, []TradeInfo{})
		return
	}

	trades, err := s.history.RecentTrades(pair.Symbol(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "trade query failed", err.Error())
		return
	}

	response := make([]TradeInfo, len(trades))
	for i, t := range trades {
		response[i] = TradeInfo{
			ID:           t.ID,
			Symbol:       t.Symbol,
			Price:        t.Price.String(),
			Qty:          t.Qty,
			TakerSide:    t.TakerSide,
			TakerOrderID: t.TakerOrderID,
			MakerOrderID: t.MakerOrderID,
			Timestamp:    t.Timestamp,
		}
	}
	respondJSON(w, response)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	pair, err := engine.ParsePair(req.Symbol)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed symbol", err.Error())
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	var (
		order *orderbook.Order
		out   orderbook.FillOutcome
	)
	switch req.Type {
	case "limit":
		price, perr := orderbook.ParsePrice(req.Price)
		if perr != nil {
			respondError(w, http.StatusBadRequest, "invalid price", perr.Error())
			return
		}
		order, err = orderbook.NewLimitOrder(req.OrderID, side, price, req.Qty)
		if err == nil {
			out, err = s.engine.PlaceLimit(pair, order)
		}
	case "market":
		order, err = orderbook.NewMarketOrder(req.OrderID, side, req.Qty)
		if err == nil {
			out, err = s.engine.PlaceMarket(pair, order)
		}
	default:
		respondError(w, http.StatusBadRequest, "invalid type", "expected limit or market")
		return
	}

	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrUnknownPair) {
			status = http.StatusNotFound
		}
		respondError(w, status, "order rejected", err.Error())
		return
	}

	fills := make([]FillInfo, len(out.Fills))
	for i, f := range out.Fills {
		fills[i] = FillInfo{
			MakerOrderID: f.MakerID,
			Price:        f.Price.String(),
			Qty:          f.Qty,
		}
	}

	respondJSON(w, SubmitOrderResponse{
		OrderID:      order.ID,
		Symbol:       pair.Symbol(),
		FilledQty:    out.FilledQty,
		RemainingQty: out.RemainingQty,
		Fills:        fills,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "missing orderId", "")
		return
	}

	pair, err := engine.ParsePair(req.Symbol)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed symbol", err.Error())
		return
	}

	if err := s.engine.Cancel(pair, req.OrderID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrUnknownPair) || errors.Is(err, engine.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, "cancel rejected", err.Error())
		return
	}

	respondJSON(w, CancelOrderResponse{Status: "cancelled", OrderID: req.OrderID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helpers
// ==============================

func parseSide(s string) (orderbook.Side, error) {
	switch s {
	case "buy", "bid":
		return orderbook.Bid, nil
	case "sell", "ask":
		return orderbook.Ask, nil
	}
	return 0, errors.New("expected buy or sell, got " + strconv.Quote(s))
}

func toAPILevels(levels []orderbook.PriceLevel) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price.String(), Qty: l.Qty}
	}
	return out
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
