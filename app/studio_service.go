package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"npdstudio/domain/core"
	"npdstudio/domain/distribution"
	"npdstudio/domain/scenario"
	"npdstudio/internal"
	"npdstudio/internal/api"
	"npdstudio/internal/errors"
	"npdstudio/internal/forecast"
	"npdstudio/internal/ingestion"
	"npdstudio/internal/mappings"
	"npdstudio/ports"
)

// EventPublisher receives upload state changes
type EventPublisher interface {
	Broadcast(event api.UploadEvent)
}

// StudioService owns the scenario state of every workspace. All changes go through
// scenario.Update under the workspace lock and are persisted before they are visible.
type StudioService struct {
	repo      ports.WorkspaceRepository
	predictor forecast.Predictor
	parser    *ingestion.Parser
	events    EventPublisher
	logger    *internal.Logger

	mu         sync.Mutex
	workspaces map[core.WorkspaceID]*workspace
}

type workspace struct {
	mu        sync.Mutex
	state     scenario.State
	uploaders map[core.FormID]*ingestion.Uploader
}

// NewStudioService creates the service. events may be nil.
func NewStudioService(repo ports.WorkspaceRepository, predictor forecast.Predictor, parser *ingestion.Parser, events EventPublisher, logger *internal.Logger) *StudioService {
	if parser == nil {
		parser = ingestion.NewParser(ingestion.DefaultBatchSize)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &StudioService{
		repo:       repo,
		predictor:  predictor,
		parser:     parser,
		events:     events,
		logger:     logger,
		workspaces: make(map[core.WorkspaceID]*workspace),
	}
}

// workspace returns the live workspace, loading it from the repository on first use.
// The load runs outside s.mu so a slow repository only delays its own workspace.
func (s *StudioService) workspace(ctx context.Context, id core.WorkspaceID) (*workspace, error) {
	s.mu.Lock()
	ws, ok := s.workspaces[id]
	s.mu.Unlock()
	if ok {
		return ws, nil
	}

	state, err := s.repo.Load(ctx, id)
	if err != nil && !core.IsNotFoundError(err) {
		return nil, fmt.Errorf("load workspace %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.workspaces[id]; ok {
		return ws, nil
	}
	ws = &workspace{state: state, uploaders: make(map[core.FormID]*ingestion.Uploader)}
	s.workspaces[id] = ws
	return ws, nil
}

// dispatch applies actions in order and persists the result. Nothing is applied when
// any action fails.
func (s *StudioService) dispatch(ctx context.Context, id core.WorkspaceID, actions ...scenario.Action) (scenario.State, error) {
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return scenario.State{}, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	next := ws.state
	for _, action := range actions {
		if next, err = scenario.Update(next, action); err != nil {
			return ws.state, err
		}
	}
	if err := s.repo.Save(ctx, id, next); err != nil {
		return ws.state, fmt.Errorf("save workspace %s: %w", id, err)
	}
	ws.state = next
	return next, nil
}

// State returns the current state of a workspace
func (s *StudioService) State(ctx context.Context, id core.WorkspaceID) (scenario.State, error) {
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return scenario.State{}, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state, nil
}

// Select changes the country and category. Non-empty values must be known slugs.
func (s *StudioService) Select(ctx context.Context, id core.WorkspaceID, country, category string) (scenario.State, error) {
	if country != "" {
		if _, err := mappings.CountryCode(country); err != nil {
			return scenario.State{}, err
		}
	}
	if category != "" {
		if _, err := mappings.CategoryCode(category); err != nil {
			return scenario.State{}, err
		}
	}
	return s.dispatch(ctx, id, scenario.SelectCountry{Country: country}, scenario.SelectCategory{Category: category})
}

// CreateForm adds a form stamped with the current selection under a fresh id.
func (s *StudioService) CreateForm(ctx context.Context, id core.WorkspaceID, form scenario.ProductForm) (scenario.ProductForm, error) {
	current, err := s.State(ctx, id)
	if err != nil {
		return scenario.ProductForm{}, err
	}
	form.ID = core.NewFormID()
	form.Country = current.SelectedCountry
	form.Category = current.SelectedCategory

	if _, err := s.dispatch(ctx, id, scenario.SaveForm{Form: form}); err != nil {
		return scenario.ProductForm{}, err
	}
	return form, nil
}

// UpdateForm replaces an existing form, stamped with the current selection. Forecast
// results already on the form are kept unless the update carries its own.
func (s *StudioService) UpdateForm(ctx context.Context, id core.WorkspaceID, formID core.FormID, form scenario.ProductForm) (scenario.ProductForm, error) {
	current, err := s.State(ctx, id)
	if err != nil {
		return scenario.ProductForm{}, err
	}
	existing, ok := current.Form(formID)
	if !ok {
		return scenario.ProductForm{}, fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}

	form.ID = formID
	form.Country = current.SelectedCountry
	form.Category = current.SelectedCategory
	if form.PredictionData == nil {
		form.PredictionData = existing.PredictionData
	}
	if form.SimilarityData == nil {
		form.SimilarityData = existing.SimilarityData
	}
	if _, err := s.dispatch(ctx, id, scenario.SaveForm{Form: form}); err != nil {
		return scenario.ProductForm{}, err
	}
	return form, nil
}

// CloneForm copies a form under a fresh id, stamped with the current selection.
func (s *StudioService) CloneForm(ctx context.Context, id core.WorkspaceID, formID core.FormID) (scenario.ProductForm, error) {
	current, err := s.State(ctx, id)
	if err != nil {
		return scenario.ProductForm{}, err
	}
	src, ok := current.Form(formID)
	if !ok {
		return scenario.ProductForm{}, fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}

	clone := scenario.CloneForm(src, current.SelectedCountry, current.SelectedCategory)
	if _, err := s.dispatch(ctx, id, scenario.SaveForm{Form: clone}); err != nil {
		return scenario.ProductForm{}, err
	}
	return clone, nil
}

// DeleteForm removes a form and discards its distribution. An idle uploader goes with
// it; a busy one is dropped when its upload finds the form gone.
func (s *StudioService) DeleteForm(ctx context.Context, id core.WorkspaceID, formID core.FormID) error {
	if _, err := s.dispatch(ctx, id, scenario.DeleteForm{ID: formID}); err != nil {
		return err
	}
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if u, ok := ws.uploaders[formID]; ok && u.State() == ingestion.StateIdle {
		delete(ws.uploaders, formID)
	}
	return nil
}

// ToggleMinimized collapses or expands a form card
func (s *StudioService) ToggleMinimized(ctx context.Context, id core.WorkspaceID, formID core.FormID) (scenario.ProductForm, error) {
	state, err := s.dispatch(ctx, id, scenario.ToggleMinimized{ID: formID})
	if err != nil {
		return scenario.ProductForm{}, err
	}
	form, _ := state.Form(formID)
	return form, nil
}

// UploadDistribution starts parsing src in the background. The form's dataset is
// replaced once the parse succeeds. Only one upload per form runs at a time.
func (s *StudioService) UploadDistribution(ctx context.Context, id core.WorkspaceID, formID core.FormID, src io.Reader) error {
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	if _, ok := ws.state.Form(formID); !ok {
		ws.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}
	uploader := s.uploaderLocked(ws, id, formID)
	ws.mu.Unlock()

	return uploader.Upload(src, func(ds distribution.ClientDataset) {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		next, err := scenario.Update(ws.state, scenario.SetDistribution{ID: formID, Dataset: ds})
		if err != nil {
			s.logger.Warn("[Studio] Dropping distribution for form %s: %v", formID, err)
			if ws.uploaders[formID] == uploader {
				delete(ws.uploaders, formID)
			}
			return
		}
		ws.state = next
	})
}

func (s *StudioService) uploaderLocked(ws *workspace, id core.WorkspaceID, formID core.FormID) *ingestion.Uploader {
	if u, ok := ws.uploaders[formID]; ok {
		return u
	}
	u := ingestion.NewUploader(s.parser, s.logger.With("workspace", id.String(), "form", formID.String()))
	if s.events != nil {
		u.OnStateChange(func(state ingestion.State, report ingestion.Report) {
			event := api.UploadEvent{
				WorkspaceID: id.String(),
				FormID:      formID.String(),
				EventType:   api.EventUploadStarted,
				State:       string(state),
			}
			if state == ingestion.StateIdle {
				event.EventType = api.EventUploadCompleted
				event.Data = map[string]interface{}{
					"rows":      report.Rows,
					"accepted":  report.Accepted,
					"skipped":   report.Skipped,
					"nanFields": report.NaNFields,
				}
			}
			s.events.Broadcast(event)
		})
	}
	ws.uploaders[formID] = u
	return u
}

// UploadState reports whether a form's upload is in progress
func (s *StudioService) UploadState(ctx context.Context, id core.WorkspaceID, formID core.FormID) (ingestion.State, error) {
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return "", err
	}
	ws.mu.Lock()
	if _, exists := ws.state.Form(formID); !exists {
		ws.mu.Unlock()
		return "", fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}
	u, ok := ws.uploaders[formID]
	ws.mu.Unlock()
	if !ok {
		return ingestion.StateIdle, nil
	}
	return u.State(), nil
}

// WaitForUpload blocks until the form's in-flight upload, if any, has finished.
func (s *StudioService) WaitForUpload(ctx context.Context, id core.WorkspaceID, formID core.FormID) error {
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	u, ok := ws.uploaders[formID]
	ws.mu.Unlock()
	if ok {
		u.Wait()
	}
	return nil
}

// Distribution returns the dataset uploaded for a form
func (s *StudioService) Distribution(ctx context.Context, id core.WorkspaceID, formID core.FormID) (distribution.ClientDataset, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := state.Form(formID); !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}
	return state.Distribution(formID), nil
}

// SubmitAll sends every form to the prediction service and stores the forecasts that
// came back valid. Forms deleted while the request was in flight are skipped.
func (s *StudioService) SubmitAll(ctx context.Context, id core.WorkspaceID) ([]forecast.SubmissionResult, error) {
	current, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := s.predictor.SubmitAll(ctx, current.Forms)
	if err != nil {
		return nil, upstreamError(err)
	}

	var actions []scenario.Action
	latest, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		formID := current.Forms[i].ID
		if !res.OK() {
			s.logger.Warn("[Studio] Prediction for form %s rejected: %s", formID, res.Error)
			continue
		}
		if _, ok := latest.Form(formID); !ok {
			continue
		}
		actions = append(actions, scenario.ApplyPrediction{
			ID:         formID,
			Prediction: res.Data.Predictions,
			Similarity: res.Data.Similarity,
		})
	}
	if len(actions) > 0 {
		if _, err := s.dispatch(ctx, id, actions...); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Output returns the forecast of a form, fetching it from the prediction service when
// the form has none yet.
func (s *StudioService) Output(ctx context.Context, id core.WorkspaceID, formID core.FormID) (scenario.ProductOutput, error) {
	current, err := s.State(ctx, id)
	if err != nil {
		return scenario.ProductOutput{}, err
	}
	form, ok := current.Form(formID)
	if !ok {
		return scenario.ProductOutput{}, fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}
	if form.PredictionData != nil {
		return scenario.ProductOutput{
			ProductID:      form.ID,
			ScenarioName:   form.ScenarioName(),
			PredictionData: form.PredictionData,
			SimilarityData: form.SimilarityData,
		}, nil
	}

	output, err := s.predictor.FetchProduct(ctx, formID, form.WeekDate)
	if err != nil {
		return scenario.ProductOutput{}, upstreamError(err)
	}
	if output.PredictionData.HasAllRetailers() && len(output.SimilarityData) > 0 {
		if _, err := s.dispatch(ctx, id, scenario.ApplyPrediction{
			ID:         formID,
			Prediction: output.PredictionData,
			Similarity: output.SimilarityData,
		}); err != nil {
			s.logger.Warn("[Studio] Could not store fetched forecast for form %s: %v", formID, err)
		}
	}
	return output, nil
}

// Form returns one form of a workspace
func (s *StudioService) Form(ctx context.Context, id core.WorkspaceID, formID core.FormID) (scenario.ProductForm, error) {
	current, err := s.State(ctx, id)
	if err != nil {
		return scenario.ProductForm{}, err
	}
	form, ok := current.Form(formID)
	if !ok {
		return scenario.ProductForm{}, fmt.Errorf("%w: %s", core.ErrFormNotFound, formID)
	}
	return form, nil
}

// QueryAI relays a question to the assistant
func (s *StudioService) QueryAI(ctx context.Context, query string) (forecast.AIQueryResponse, error) {
	if query == "" {
		return forecast.AIQueryResponse{}, core.NewValidationError("query", "query is required")
	}
	resp, err := s.predictor.QueryAI(ctx, query)
	if err != nil {
		return forecast.AIQueryResponse{}, upstreamError(err)
	}
	return resp, nil
}

// upstreamError tags prediction service failures. Domain errors keep their meaning.
func upstreamError(err error) error {
	if core.IsNotFoundError(err) || core.IsValidationError(err) {
		return err
	}
	return errors.ExternalServiceError("prediction", err)
}
