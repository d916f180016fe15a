package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dohyunkim/moneytree/internal/api/middleware"
	"github.com/dohyunkim/moneytree/internal/blob"
	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/store"
)

// maxReceiptSize caps multipart parsing memory for receipt uploads.
const maxReceiptSize = 10 << 20

// TransactionsHandler handles transaction CRUD and receipt retrieval.
type TransactionsHandler struct {
	transactions store.TransactionStore
	receipts     blob.Store
	log          zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(transactions store.TransactionStore, receipts blob.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		transactions: transactions,
		receipts:     receipts,
		log:          log,
	}
}

// readReceipt extracts an optional receipt file from the multipart form
// and stores it under a fresh uuid-based name. Returns the stored file
// name, or "" when the form carries no receipt.
func (h *TransactionsHandler) readReceipt(r *http.Request, ownerID int64) (string, error) {
	file, header, err := r.FormFile("receipt")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", domain.InvalidInputf("invalid receipt upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", domain.InvalidInputf("failed to read receipt upload")
	}

	fileName := uuid.New().String() + filepath.Ext(header.Filename)
	if err := h.receipts.Put(r.Context(), ownerID, fileName, data); err != nil {
		return "", err
	}
	return fileName, nil
}

// Create handles POST /api/transactions as a multipart form: t_date,
// branch, cashflow, optional description, optional receipt file.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	date, err := civil.ParseDate(r.FormValue("t_date"))
	if err != nil {
		middleware.WriteDomainError(w, domain.InvalidInputf("invalid date format, must be YYYY-MM-DD"))
		return
	}
	branch := r.FormValue("branch")
	if branch == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Branch is required")
		return
	}
	cashflow, err := strconv.ParseInt(r.FormValue("cashflow"), 10, 64)
	if err != nil {
		middleware.WriteDomainError(w, domain.InvalidInputf("invalid cashflow amount"))
		return
	}

	receipt, err := h.readReceipt(r, ownerID)
	if err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Msg("failed to store receipt")
		middleware.WriteDomainError(w, err)
		return
	}

	id, err := h.transactions.Create(ctx, domain.Transaction{
		OwnerID:     ownerID,
		Date:        date,
		Branch:      branch,
		Cashflow:    cashflow,
		Description: r.FormValue("description"),
		Receipt:     receipt,
	})
	if err != nil {
		// The blob was written before the row insert failed; remove it so
		// no orphan is left behind.
		if receipt != "" {
			if delErr := h.receipts.Delete(ctx, ownerID, receipt); delErr != nil {
				h.log.Error().Err(delErr).Str("receipt", receipt).Msg("failed to clean up receipt after insert failure")
			}
		}
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Transaction uploaded successfully", "tid": id})
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tx, err := h.transactions.Get(ctx, ownerID, id)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": tx})
}

// Update handles PATCH /api/transactions/{id} as a multipart form. Only
// supplied fields are overwritten. Replacing the receipt stores the new
// blob first; a failed write leaves the row and the old blob untouched.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	prev, err := h.transactions.Get(ctx, ownerID, id)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}

	var patch domain.TransactionPatch
	if v := r.FormValue("t_date"); v != "" {
		date, err := civil.ParseDate(v)
		if err != nil {
			middleware.WriteDomainError(w, domain.InvalidInputf("invalid date format, must be YYYY-MM-DD"))
			return
		}
		patch.Date = domain.Some(date)
	}
	if v := r.FormValue("branch"); v != "" {
		patch.Branch = domain.Some(v)
	}
	if v := r.FormValue("cashflow"); v != "" {
		cashflow, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			middleware.WriteDomainError(w, domain.InvalidInputf("invalid cashflow amount"))
			return
		}
		patch.Cashflow = domain.Some(cashflow)
	}
	if _, ok := r.MultipartForm.Value["description"]; ok {
		// Present but possibly empty: an explicit empty value clears the
		// description rather than leaving it untouched.
		patch.Description = domain.Some(r.FormValue("description"))
	}

	newReceipt, err := h.readReceipt(r, ownerID)
	if err != nil {
		h.log.Error().Err(err).Int64("uid", ownerID).Msg("failed to store replacement receipt")
		middleware.WriteDomainError(w, err)
		return
	}
	if newReceipt != "" {
		patch.Receipt = domain.Some(newReceipt)
	}

	if err := h.transactions.UpdatePartial(ctx, ownerID, id, patch); err != nil {
		if newReceipt != "" {
			if delErr := h.receipts.Delete(ctx, ownerID, newReceipt); delErr != nil {
				h.log.Error().Err(delErr).Str("receipt", newReceipt).Msg("failed to clean up receipt after update failure")
			}
		}
		middleware.WriteDomainError(w, err)
		return
	}

	// The row now points at the new receipt; drop the replaced blob.
	if newReceipt != "" && prev.HasReceipt() {
		if err := h.receipts.Delete(ctx, ownerID, prev.Receipt); err != nil {
			h.log.Error().Err(err).Str("receipt", prev.Receipt).Msg("failed to delete replaced receipt")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Transaction successfully updated"})
}

// Delete handles DELETE /api/transactions/{id}. The receipt blob is
// purged along with the row.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	deleted, err := h.transactions.DeleteByIDs(ctx, ownerID, []int64{id})
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if len(deleted) == 0 {
		middleware.WriteDomainError(w, domain.NotFoundf("transaction not found - %d", id))
		return
	}

	for _, tx := range deleted {
		if !tx.HasReceipt() {
			continue
		}
		if err := h.receipts.Delete(ctx, ownerID, tx.Receipt); err != nil {
			h.log.Error().Err(err).Str("receipt", tx.Receipt).Msg("failed to delete receipt blob")
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"message": "Transaction successfully deleted"})
}

// GetReceipt handles GET /api/receipts/{id}, returning the receipt image
// base64-encoded. Transactions without a receipt yield a null payload.
func (h *TransactionsHandler) GetReceipt(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	tx, err := h.transactions.Get(ctx, ownerID, id)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if !tx.HasReceipt() {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{"receipt": nil})
		return
	}

	data, err := h.receipts.Get(ctx, ownerID, tx.Receipt)
	if err != nil {
		h.log.Error().Err(err).Str("receipt", tx.Receipt).Msg("failed to fetch receipt blob")
		middleware.WriteDomainError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"file_name": tx.Receipt,
		"receipt":   base64.StdEncoding.EncodeToString(data),
	})
}

// GetReceipts handles GET /api/receipts?tid=1&tid=2, returning the
// receipts of several transactions keyed by id. Transactions without a
// receipt are skipped; blob fetch failures are logged and skipped so one
// bad object does not sink the batch.
func (h *TransactionsHandler) GetReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, ok := middleware.OwnerID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var ids []int64
	for _, raw := range r.URL.Query()["tid"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			middleware.WriteDomainError(w, domain.InvalidInputf("invalid transaction id - %s", raw))
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "At least one tid is required")
		return
	}

	txs, err := h.transactions.ListByIDs(ctx, ownerID, ids)
	if err != nil {
		middleware.WriteDomainError(w, err)
		return
	}
	if len(txs) == 0 {
		middleware.WriteDomainError(w, domain.NotFoundf("transactions not found"))
		return
	}

	receipts := make(map[string]any, len(txs))
	for _, tx := range txs {
		if !tx.HasReceipt() {
			continue
		}
		data, err := h.receipts.Get(ctx, ownerID, tx.Receipt)
		if err != nil {
			h.log.Error().Err(err).Int64("tid", tx.ID).Str("receipt", tx.Receipt).Msg("failed to fetch receipt blob")
			continue
		}
		receipts[strconv.FormatInt(tx.ID, 10)] = map[string]string{
			"file_name": tx.Receipt,
			"receipt":   base64.StdEncoding.EncodeToString(data),
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
}
