package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"bankroom/internal/api/middleware"
	"bankroom/internal/api/request"
	"bankroom/internal/api/response"
	"bankroom/internal/model"
	"bankroom/internal/services/ledger"
)

// LedgerHandler handles transfer and transaction log endpoints
type LedgerHandler struct {
	ledgerService *ledger.Service
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// Transfer handles POST /api/v1/rooms/{code}/transfers
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	from := model.PrincipalID(req.From)
	if from == "" {
		from = caller
	}

	tx, err := h.ledgerService.Transfer(r.Context(), caller, code, ledger.TransferRequest{
		From:   from,
		To:     req.To,
		Amount: req.Amount,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TransactionFromModel(*tx))
}

// History handles GET /api/v1/rooms/{code}/transfers
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	txs, err := h.ledgerService.History(r.Context(), caller, code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionsFromModel(txs))
}
