package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/batch"
)

type importTrigger interface {
	Trigger(ctx context.Context) error
}

type AdminHandler struct {
	importer importTrigger
	logger   *slog.Logger
}

func NewAdminHandler(importer importTrigger, l *slog.Logger) *AdminHandler {
	if importer == nil {
		panic("import job cannot be nil")
	}
	return &AdminHandler{
		importer: importer,
		logger:   l.With("component", "AdminHandler"),
	}
}

// TriggerImport handles POST /admin/import
// @Summary Start the spreadsheet import
// @Description Loads the configured customer and loan workbooks in the background, then recomputes every customer's current debt.
// @Tags Admin
// @Produce json
// @Success 202 {object} dto.ImportAcceptedResponse "Import started"
// @Failure 409 {object} dto.ErrorResponse "An import is already running"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/import [post]
func (h *AdminHandler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	err := h.importer.Trigger(r.Context())
	if errors.Is(err, batch.ErrImportInProgress) {
		h.logger.WarnContext(r.Context(), "Import request rejected, another import is running")
		respondJSON(w, http.StatusConflict, dto.ErrorResponse{Error: dto.ErrorDetail{Message: err.Error()}})
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to start import", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Import started")
	respondJSON(w, http.StatusAccepted, dto.ImportAcceptedResponse{Status: "accepted", Message: "Data import started"})
}
