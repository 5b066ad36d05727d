package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/config"
	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/extract"
	"telegram-email-bot/internal/infra/logging"
	"telegram-email-bot/internal/infra/metrics"
)

var _ ExtractionUseCase = (*extractionUC)(nil)

// ExtractionUseCase pulls e-mail addresses out of uploaded documents.
type ExtractionUseCase interface {
	FromUpload(ctx context.Context, filename string, data []byte) (extract.Result, error)
	Supported(filename string) bool
}

type extractionUC struct {
	opt         extract.Options
	maxFileSize int64
	log         *zerolog.Logger
}

func NewExtractionUseCase(cfg config.SendConfig, logger *zerolog.Logger) *extractionUC {
	opt := extract.DefaultOptions()
	opt.AllowNumeric = cfg.AllowNumeric
	if cfg.QuarantineScore > 0 {
		opt.QuarantineScore = cfg.QuarantineScore
	}
	if cfg.MaxZipMembers > 0 {
		opt.MaxZipMembers = cfg.MaxZipMembers
	}
	if cfg.ParseWorkers > 0 {
		opt.ZipWorkers = cfg.ParseWorkers
	}
	maxSize := int64(cfg.MaxFileSizeMB) * 1024 * 1024
	if maxSize <= 0 {
		maxSize = 50 * 1024 * 1024
	}
	opt.MaxMemberSize = maxSize
	return &extractionUC{opt: opt, maxFileSize: maxSize, log: logger}
}

func (u *extractionUC) Supported(filename string) bool {
	return extract.Supported(filename)
}

func (u *extractionUC) FromUpload(ctx context.Context, filename string, data []byte) (extract.Result, error) {
	defer logging.TraceDuration(u.log, "ExtractionUC.FromUpload")()

	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if int64(len(data)) > u.maxFileSize {
		return extract.Result{}, fmt.Errorf("%w: file exceeds %d MB", domain.ErrInvalidArgument, u.maxFileSize/(1024*1024))
	}

	res, err := extract.FromFileBytes(filename, data, u.opt)
	if err != nil {
		metrics.IncExtractionError(kind)
		return extract.Result{}, err
	}
	metrics.AddExtracted(kind, len(res.Hits))

	u.log.Info().
		Str("file", filename).
		Int("found", len(res.Hits)).
		Interface("stats", res.Stats).
		Msg("extraction finished")
	return res, nil
}
