package rest

import (
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bibbank/collections-service/internal/domain/port"
	"github.com/bibbank/collections-service/pkg/auth"
)

const downloadLinkExpiry = 5 * time.Minute

// ReportHandler redirects authenticated staff to a short-lived link for a
// previously exported portfolio workbook.
type ReportHandler struct {
	storage port.ReportStorage
	logger  *slog.Logger
}

func NewReportHandler(storage port.ReportStorage, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{storage: storage, logger: logger}
}

func (h *ReportHandler) download(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	tenantID := chi.URLParam(r, "tenantID")
	file := chi.URLParam(r, "file")
	if tenantID != claims.TenantID {
		writeError(w, http.StatusForbidden, "report belongs to another tenant")
		return
	}
	if !strings.HasSuffix(file, ".xlsx") || path.Base(file) != file {
		writeError(w, http.StatusBadRequest, "invalid report name")
		return
	}

	key := path.Join("portfolio", tenantID, file)
	url, err := h.storage.PresignedURL(r.Context(), key, downloadLinkExpiry)
	if err != nil {
		h.logger.Error("presign report", "key", key, "error", err)
		writeError(w, http.StatusBadGateway, "report storage unavailable")
		return
	}
	h.logger.Info("report download", "tenant_id", tenantID, "staff_id", claims.StaffID, "key", key)
	http.Redirect(w, r, url, http.StatusFound)
}
