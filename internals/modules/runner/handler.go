package runner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"komonitor/internals/modules/monitor"
	"komonitor/pkg/apperror"
	"komonitor/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type BatchRunner interface {
	RunBatch(ctx context.Context, monitors []monitor.Monitor) BatchResult
}

type Handler struct {
	runner    BatchRunner
	validator *validator.Validate
}

func NewHandler(runner BatchRunner, validator *validator.Validate) *Handler {
	return &Handler{
		runner:    runner,
		validator: validator,
	}
}

// RunBatch executes the posted batch and answers once every job settled.
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	// decode request body
	var batch []monitor.Monitor
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed batch")
		return
	}
	if len(batch) == 0 {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "empty batch")
		return
	}

	// validate request body, invalid monitors are skipped
	valid, err := monitor.ValidateBatch(h.validator, batch)
	if err != nil && len(valid) == 0 {
		utils.FromAppError(w, reqID, err)
		return
	}

	// a disconnecting client must not cut jobs short
	res := h.runner.RunBatch(context.WithoutCancel(ctx), valid)
	res.Rejected = len(batch) - len(valid)

	msg := "batch processed"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		msg = "batch processed with rejected monitors: " + appErr.Message
	}
	utils.WriteJSON(w, http.StatusOK, reqID, msg, res)
}
