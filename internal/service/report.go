package service

import (
	"context"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
)

type ReportService struct {
	store ReportStore
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// MasterReport lists every participant with the earnings of the last committed batch.
func (s *ReportService) MasterReport(ctx context.Context) ([]model.ReportRow, error) {
	rows, err := s.store.MasterReport(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.ReportRow{}
	}
	return rows, nil
}

func (s *ReportService) Stats(ctx context.Context) (*model.PlatformStats, error) {
	return s.store.PlatformStats(ctx)
}
