package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/service/gateway"
	"go.uber.org/zap"
)

func (s *Server) router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade", zap.Error(err))
			return
		}

		s.keeper.addConn(conn)
		js, err := json.Marshal(NewMessage(s.state.get()))
		if err == nil {
			_ = s.keeper.send(conn, js)
		}
		go s.keeper.keep(conn)
	})

	mux.HandleFunc("GET /snapshot", func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, http.StatusOK, s.state.get())
	})

	mux.HandleFunc("GET /commands", func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, http.StatusOK, s.commands.State())
	})

	mux.HandleFunc("GET /inventory", func(w http.ResponseWriter, r *http.Request) {
		s.reply(w, http.StatusOK, s.state.items())
	})

	mux.HandleFunc("POST /invoices", func(w http.ResponseWriter, r *http.Request) {
		var req invoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.reply(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		err := s.commands.CreateInvoice(r.Context(), req.Customer, req.Amount, req.DueDate, req.Metadata)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.reply(w, http.StatusOK, s.commands.State())
	})

	mux.HandleFunc("POST /inventory", func(w http.ResponseWriter, r *http.Request) {
		var req inventoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.reply(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		err := s.commands.UpdateInventory(r.Context(), req.ItemID, req.Quantity, req.Price)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.reply(w, http.StatusOK, s.commands.State())
	})

	mux.HandleFunc("POST /inventory/reorder", func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.reply(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		item, ok := s.state.item(req.ItemID)
		if !ok {
			s.reply(w, http.StatusNotFound, errorResponse{Error: "unknown item " + req.ItemID})
			return
		}

		if err := s.commands.Reorder(r.Context(), item); err != nil {
			s.fail(w, err)
			return
		}
		s.state.restocked(item.ID)
		s.reply(w, http.StatusOK, reorderResponse{Reordered: []string{item.ID}})
	})

	mux.HandleFunc("POST /inventory/reorder-all", func(w http.ResponseWriter, r *http.Request) {
		done, err := s.commands.ReorderAll(r.Context(), s.state.items())
		s.state.restocked(done...)
		if err != nil {
			s.reply(w, status(err), reorderResponse{Reordered: done, Error: err.Error()})
			return
		}
		s.reply(w, http.StatusOK, reorderResponse{Reordered: done})
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) reply(w http.ResponseWriter, code int, body any) {
	js, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(js)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.reply(w, status(err), errorResponse{Error: err.Error()})
}

// status maps a command error to a response code: bad input is the
// caller's fault, anything else is the ledger's.
func status(err error) int {
	if errors.Is(err, gateway.ErrMissingField) || errors.Is(err, entity.ErrInvalidAmount) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
