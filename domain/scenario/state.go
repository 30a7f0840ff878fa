package scenario

import (
	"fmt"

	"npdstudio/domain/core"
	"npdstudio/domain/distribution"
)

// State is everything a workspace holds: the country/category selection, the product
// forms in display order and the distribution dataset uploaded for each form.
//
// State is a value. Update never mutates the State it is given; every transition returns
// a fresh State that shares no mutable slices or maps with its input.
type State struct {
	SelectedCountry  string                                     `json:"selectedCountry"`
	SelectedCategory string                                     `json:"selectedCategory"`
	Forms            []ProductForm                              `json:"forms"`
	Distributions    map[core.FormID]distribution.ClientDataset `json:"-"`
}

// Action is a state transition.
type Action interface {
	apply(s State) (State, error)
}

// Update applies action to s and returns the resulting state. On error the returned
// state is s unchanged.
func Update(s State, action Action) (State, error) {
	if action == nil {
		return s, fmt.Errorf("nil action")
	}
	next, err := action.apply(s.clone())
	if err != nil {
		return s, err
	}
	return next, nil
}

// Form returns the form with the given id.
func (s State) Form(id core.FormID) (ProductForm, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Forms[i], true
	}
	return ProductForm{}, false
}

// Distribution returns the dataset uploaded for a form, or nil.
func (s State) Distribution(id core.FormID) distribution.ClientDataset {
	return s.Distributions[id]
}

// CanAddForm reports whether another form fits under MaxForms.
func (s State) CanAddForm() bool {
	return len(s.Forms) < MaxForms
}

func (s State) indexOf(id core.FormID) int {
	for i, f := range s.Forms {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	next := s
	next.Forms = append([]ProductForm(nil), s.Forms...)
	next.Distributions = make(map[core.FormID]distribution.ClientDataset, len(s.Distributions))
	for id, ds := range s.Distributions {
		next.Distributions[id] = ds
	}
	return next
}

// SelectCountry changes the selected country. Every form is re-stamped with the new
// selection and has its sugar level reset.
type SelectCountry struct {
	Country string
}

func (a SelectCountry) apply(s State) (State, error) {
	s.SelectedCountry = a.Country
	return restamp(s), nil
}

// SelectCategory changes the selected category, with the same re-stamping as SelectCountry.
type SelectCategory struct {
	Category string
}

func (a SelectCategory) apply(s State) (State, error) {
	s.SelectedCategory = a.Category
	return restamp(s), nil
}

func restamp(s State) State {
	for i := range s.Forms {
		s.Forms[i].Country = s.SelectedCountry
		s.Forms[i].Category = s.SelectedCategory
		s.Forms[i].LevelOfSugar = ""
	}
	return s
}

// SaveForm replaces the form with the same id, or appends it when the id is new.
type SaveForm struct {
	Form ProductForm
}

func (a SaveForm) apply(s State) (State, error) {
	if a.Form.ID.String() == "" {
		return s, core.NewValidationError("id", "form id is required")
	}
	if i := s.indexOf(a.Form.ID); i >= 0 {
		s.Forms[i] = a.Form
		return s, nil
	}
	if !s.CanAddForm() {
		return s, fmt.Errorf("%w: maximum %d products allowed", core.ErrFormLimit, MaxForms)
	}
	s.Forms = append(s.Forms, a.Form)
	return s, nil
}

// DeleteForm removes a form together with its distribution dataset.
type DeleteForm struct {
	ID core.FormID
}

func (a DeleteForm) apply(s State) (State, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", core.ErrFormNotFound, a.ID)
	}
	s.Forms = append(s.Forms[:i], s.Forms[i+1:]...)
	delete(s.Distributions, a.ID)
	return s, nil
}

// SetDistribution replaces a form's dataset wholesale.
type SetDistribution struct {
	ID      core.FormID
	Dataset distribution.ClientDataset
}

func (a SetDistribution) apply(s State) (State, error) {
	if s.indexOf(a.ID) < 0 {
		return s, fmt.Errorf("%w: %s", core.ErrFormNotFound, a.ID)
	}
	s.Distributions[a.ID] = a.Dataset
	return s, nil
}

// ApplyPrediction stores the forecast returned for a form.
type ApplyPrediction struct {
	ID         core.FormID
	Prediction PredictionResponse
	Similarity SimilarityResponse
}

func (a ApplyPrediction) apply(s State) (State, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", core.ErrFormNotFound, a.ID)
	}
	s.Forms[i].PredictionData = a.Prediction
	s.Forms[i].SimilarityData = a.Similarity
	return s, nil
}

// ToggleMinimized flips the collapsed flag of a form card.
type ToggleMinimized struct {
	ID core.FormID
}

func (a ToggleMinimized) apply(s State) (State, error) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", core.ErrFormNotFound, a.ID)
	}
	s.Forms[i].IsMinimized = !s.Forms[i].IsMinimized
	return s, nil
}
