package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"insights/internal/category"
	"insights/internal/core"
	"insights/internal/log"
	"insights/internal/statement"
	"insights/internal/store"
)

// maxUploadBytes caps statement uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type listTransactionsResponse struct {
	Items []core.Transaction `json:"items"`
	Total int                `json:"total"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	q := r.URL.Query()

	query := store.TransactionQuery{
		UserID:    user.ID,
		AccountID: q.Get("accountId"),
		Search:    q.Get("search"),
	}
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid categoryId")
			return
		}
		query.CategoryID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		query.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		// Inclusive end of day.
		query.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		query.Offset = n
	}

	items, total, err := s.store.ListTransactions(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, listTransactionsResponse{Items: items, Total: total})
}

type createTransactionRequest struct {
	AccountID   string     `json:"accountId"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Currency    string     `json:"currency"`
	Date        string     `json:"date"`
	CategoryID  *int       `json:"categoryId"`
	IsRecurring bool       `json:"isRecurring"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Amount.Cents == 0 {
		writeError(w, http.StatusBadRequest, "amount cannot be zero")
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "accountId is required")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if req.CategoryID != nil {
		if _, ok := category.ByID(*req.CategoryID); !ok {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
	}
	if req.Currency == "" {
		req.Currency = user.Currency
	}

	input := core.TransactionInput{
		UserID:         user.ID,
		AccountID:      req.AccountID,
		CategoryID:     req.CategoryID,
		Description:    req.Description,
		NormalizedName: core.NormalizeName(req.Description),
		Amount:         req.Amount,
		Currency:       req.Currency,
		Type:           core.TypeForAmount(req.Amount),
		CashflowSign:   req.Amount.Sign(),
		Date:           date,
		IsTransfer:     core.DetectTransfer(req.Description),
		IsRecurring:    req.IsRecurring,
	}
	// An explicit category always wins over the heuristic.
	inputs := []core.TransactionInput{input}
	category.Apply(inputs)

	created, err := s.store.CreateTransactions(r.Context(), inputs)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "create transaction",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, created[0])
}

// handleUploadStatement ingests a CSV bank statement. The multipart form
// carries the file and either an accountId or an accountName to upsert.
func (s *Server) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	accountID := r.FormValue("accountId")
	if accountID == "" {
		name := strings.TrimSpace(r.FormValue("accountName"))
		if name == "" {
			writeError(w, http.StatusBadRequest, "accountId or accountName is required")
			return
		}
		account, err := s.store.UpsertAccount(r.Context(), store.AccountInput{
			UserID:      user.ID,
			Name:        name,
			Institution: r.FormValue("institution"),
			Currency:    user.Currency,
		})
		if err != nil {
			s.logger.ErrorContext(r.Context(), "upsert account",
				log.FieldError, err, log.FieldUserID, user.ID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		accountID = account.ID
	}

	rows, err := statement.ParseRows(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed CSV: "+err.Error())
		return
	}

	candidates, skipped := statement.Normalize(rows, statement.Options{
		UserID:    user.ID,
		AccountID: accountID,
		Currency:  user.Currency,
	})
	category.Apply(candidates)

	var imported []core.Transaction
	if len(candidates) > 0 {
		imported, err = s.store.CreateTransactions(r.Context(), candidates)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "store imported transactions",
				log.FieldError, err, log.FieldUserID, user.ID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	transfers := 0
	for _, tx := range imported {
		if tx.IsTransfer {
			transfers++
		}
	}

	if err := s.events.PublishStatementImported(r.Context(), user.ID, accountID, len(imported), transfers); err != nil {
		// Fire-and-forget: a broker outage never fails an upload.
		s.logger.WarnContext(r.Context(), "publish import event", log.FieldError, err)
	}

	s.logger.InfoContext(r.Context(), "statement imported",
		log.FieldUserID, user.ID,
		log.FieldAccountID, accountID,
		log.FieldRows, len(rows),
		log.FieldImported, len(imported),
		log.FieldSkipped, len(skipped))

	if imported == nil {
		imported = []core.Transaction{}
	}
	if skipped == nil {
		skipped = []core.SkippedRow{}
	}
	writeJSON(w, http.StatusOK, core.UploadResult{
		Imported: imported,
		Skipped:  skipped,
		Stats: core.UploadStats{
			TotalRows:         len(rows),
			ImportedRows:      len(imported),
			DetectedTransfers: transfers,
		},
	})
}

type recategorizeRequest struct {
	CategoryID *int `json:"categoryId"`
}

func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	transactionID := mux.Vars(r)["id"]

	var req recategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CategoryID != nil {
		if _, ok := category.ByID(*req.CategoryID); !ok {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
	}

	updated, err := s.store.UpdateTransactionCategory(r.Context(), user.ID, transactionID, req.CategoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "update transaction category",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
