package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/collections-service/internal/application/dto"
	"github.com/bibbank/collections-service/internal/domain/model"
	"github.com/bibbank/collections-service/internal/domain/port"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportPageSize  = 500
	linkExpiry      = 15 * time.Minute
)

// ExportPortfolioUseCase builds the portfolio-at-risk workbook for a tenant
// and returns a short-lived download link.
type ExportPortfolioUseCase struct {
	uow       port.UnitOfWork
	renderer  port.PortfolioRenderer
	storage   port.ReportStorage
	telemetry *Telemetry
	logger    *slog.Logger
}

// NewExportPortfolioUseCase wires dependencies.
func NewExportPortfolioUseCase(
	uow port.UnitOfWork,
	renderer port.PortfolioRenderer,
	storage port.ReportStorage,
	telemetry *Telemetry,
	logger *slog.Logger,
) *ExportPortfolioUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportPortfolioUseCase{
		uow:       uow,
		renderer:  renderer,
		storage:   storage,
		telemetry: orNoop(telemetry),
		logger:    logger,
	}
}

// Execute renders, uploads and links the workbook.
func (uc *ExportPortfolioUseCase) Execute(ctx context.Context, req dto.ExportPortfolioRequest) (_ dto.ExportPortfolioResponse, err error) {
	ctx, span := uc.telemetry.start(ctx, "ExportPortfolio", attribute.String("tenant_id", req.TenantID))
	defer func() { end(span, err) }()

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	// 1. Load every active case.
	var cases []model.CollectionCase
	err = uc.uow.Do(ctx, func(ctx context.Context, repos port.Repositories) error {
		for offset := 0; ; offset += exportPageSize {
			page, total, err := repos.Cases.ListActive(ctx, req.TenantID, exportPageSize, offset)
			if err != nil {
				return fmt.Errorf("list active cases: %w", err)
			}
			cases = append(cases, page...)
			if len(page) == 0 || len(cases) >= total {
				return nil
			}
		}
	})
	if err != nil {
		return dto.ExportPortfolioResponse{}, err
	}

	// 2. Render the workbook.
	body, err := uc.renderer.RenderPortfolio(cases, asOf)
	if err != nil {
		return dto.ExportPortfolioResponse{}, fmt.Errorf("render portfolio: %w", err)
	}

	// 3. Upload and sign a download link.
	key := fmt.Sprintf("portfolio/%s/par-%s-%s.xlsx", req.TenantID, model.DateOf(asOf).Format(time.DateOnly), uuid.NewString()[:8])
	if err := uc.storage.Upload(ctx, key, xlsxContentType, body); err != nil {
		return dto.ExportPortfolioResponse{}, fmt.Errorf("upload report: %w", err)
	}
	url, err := uc.storage.PresignedURL(ctx, key, linkExpiry)
	if err != nil {
		return dto.ExportPortfolioResponse{}, fmt.Errorf("sign report url: %w", err)
	}

	uc.logger.Info("portfolio exported", "tenant_id", req.TenantID, "key", key, "cases", len(cases))
	return dto.ExportPortfolioResponse{
		ObjectKey: key,
		URL:       url,
		CaseCount: len(cases),
		AsOf:      model.DateOf(asOf),
	}, nil
}
