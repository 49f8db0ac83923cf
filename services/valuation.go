package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"property-valuation/models"
	"property-valuation/report"
	"property-valuation/storage"
	"property-valuation/utils"
	"property-valuation/valuation"
)

// ErrUnsupportedFormat is returned by Report for a format with no renderer.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// RenderedReport is a finished document ready to be downloaded or saved.
type RenderedReport struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ValuationService valuates submissions, records them as leads and renders
// reports for them.
type ValuationService struct {
	engine    *valuation.Engine
	leads     storage.LeadWriter
	renderers map[string]report.Renderer
	display   models.Display
	logger    *utils.Logger
	now       func() time.Time
}

// NewValuationService wires the engine to its collaborators. leads may be
// nil, in which case nothing is recorded.
func NewValuationService(engine *valuation.Engine, leads storage.LeadWriter, display models.Display,
	logger *utils.Logger, renderers ...report.Renderer) *ValuationService {
	byExt := make(map[string]report.Renderer, len(renderers))
	for _, r := range renderers {
		byExt[r.Extension()] = r
	}
	return &ValuationService{
		engine:    engine,
		leads:     leads,
		renderers: byExt,
		display:   display,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ValuationService) Display() models.Display { return s.display }

// Formats lists the report formats that can be rendered.
func (s *ValuationService) Formats() []string {
	out := make([]string, 0, len(s.renderers))
	for _, ext := range []string{"pdf", "doc", "html"} {
		if _, ok := s.renderers[ext]; ok {
			out = append(out, ext)
		}
	}
	return out
}

// Quote valuates a submission without recording it. Engine errors are
// returned unchanged so callers can match them with errors.As.
func (s *ValuationService) Quote(sub *models.Submission) (*models.Lead, error) {
	result, err := s.engine.Valuate(sub.Request)
	if err != nil {
		return nil, err
	}
	return &models.Lead{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Name:      sub.Name,
		Phone:     sub.Phone,
		Request:   sub.Request,
		Result:    *result,
	}, nil
}

// Estimate quotes a submission and records it as a lead. A failing lead
// sink is logged but does not fail the estimate.
func (s *ValuationService) Estimate(sub *models.Submission) (*models.Lead, error) {
	lead, err := s.Quote(sub)
	if err != nil {
		return nil, err
	}

	s.logger.Info("[valuation] %s %s %.0f %s → %s", lead.Request.Area, lead.Request.PropertyType,
		lead.Request.Size, s.display.Unit, report.FormatAmount(lead.Result.Total, s.display.Currency))

	if s.leads != nil {
		if err := s.leads.Write([]*models.Lead{lead}); err != nil {
			s.logger.Error("[valuation] Failed to record lead %s: %v", lead.ID, err)
		}
	}
	return lead, nil
}

// Report renders lead in the requested format ("pdf", "doc" or "html").
func (s *ValuationService) Report(ctx context.Context, lead *models.Lead, format string) (*RenderedReport, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}

	data, err := r.Render(ctx, report.NewDocument(lead, s.display))
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", format, err)
	}
	return &RenderedReport{
		FileName:    report.FileName(lead.Name, r.Extension()),
		ContentType: r.ContentType(),
		Data:        data,
	}, nil
}
