package app

import (
	"context"
	"fmt"
	"io"

	"npdstudio/domain/core"
	"npdstudio/domain/scenario"
	"npdstudio/internal/charts"
	"npdstudio/internal/mappings"
	"npdstudio/internal/report"
)

// ChartKind names one of the PNG charts of a form
type ChartKind string

const (
	ChartPrediction   ChartKind = "prediction"
	ChartShares       ChartKind = "shares"
	ChartDistribution ChartKind = "distribution"
)

// ParseChartKind validates a chart name taken from a request path.
func ParseChartKind(s string) (ChartKind, error) {
	switch kind := ChartKind(s); kind {
	case ChartPrediction, ChartShares, ChartDistribution:
		return kind, nil
	}
	return "", core.NewValidationError("chart", fmt.Sprintf("unknown chart %q", s))
}

// RenderChart writes the requested chart of a form as PNG. charts.ErrNoData is returned
// when the form has no forecast or distribution to draw.
func (s *StudioService) RenderChart(ctx context.Context, id core.WorkspaceID, formID core.FormID, kind ChartKind, w io.Writer) error {
	state, err := s.State(ctx, id)
	if err != nil {
		return err
	}
	form, ok := state.Form(formID)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}

	switch kind {
	case ChartPrediction:
		return charts.RenderPrediction(w, form.ScenarioName(), form.PredictionData)
	case ChartShares:
		return charts.RenderShares(w, form.ScenarioName(), charts.RetailerShares(form.PredictionData))
	case ChartDistribution:
		profile := charts.DistributionProfile(state.Distribution(formID))
		return charts.RenderProfile(w, form.ScenarioName(), profile)
	}
	return core.NewValidationError("chart", fmt.Sprintf("unknown chart %q", kind))
}

// ReportHTML renders the scenario summary of a form
func (s *StudioService) ReportHTML(ctx context.Context, id core.WorkspaceID, formID core.FormID) ([]byte, error) {
	form, err := s.Form(ctx, id, formID)
	if err != nil {
		return nil, err
	}
	return report.HTML(form, reportContext(form)), nil
}

// WriteReportWorkbook writes the XLSX export of a form
func (s *StudioService) WriteReportWorkbook(ctx context.Context, id core.WorkspaceID, formID core.FormID, w io.Writer) error {
	state, err := s.State(ctx, id)
	if err != nil {
		return err
	}
	form, ok := state.Form(formID)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}
	return report.WriteWorkbook(w, form, charts.DistributionProfile(state.Distribution(formID)))
}

// reportContext resolves display names. Unknown or unset selections stay blank.
func reportContext(form scenario.ProductForm) report.Context {
	var ctx report.Context
	if code, err := mappings.CountryCode(form.Country); err == nil {
		ctx.CountryName, _ = mappings.CountryName(code)
	}
	if code, err := mappings.CategoryCode(form.Category); err == nil {
		ctx.CategoryName, _ = mappings.CategoryName(code)
	}
	ctx.Section, _ = mappings.SectionForSelection(form.Country, form.Category)
	return ctx
}
