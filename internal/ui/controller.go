package ui

import (
	"errors"
	"log"
	"time"

	"github.com/stillpoint/stillpoint-app/internal/session"
	"github.com/stillpoint/stillpoint-app/internal/store"
)

// Choice is one entry on the selection screen: a breathing exercise from
// the catalog, or a plain countdown mode.
type Choice struct {
	Mode     session.Mode
	Exercise *session.ExerciseDefinition // nil for focus/break
	Name     string
}

// Controller handles UI events and drives the engine. All user intent goes
// through here; the view never calls the engine directly.
type Controller struct {
	model   *Model
	engine  *session.Controller
	catalog *session.Catalog
	store   *store.Store
	logger  *log.Logger

	choices []Choice
}

// NewController creates a controller and seeds the model's selection from
// stored preferences.
func NewController(model *Model, engine *session.Controller, catalog *session.Catalog, st *store.Store, logger *log.Logger) *Controller {
	if model == nil {
		panic("Controller: model cannot be nil")
	}
	if engine == nil {
		panic("Controller: engine cannot be nil")
	}
	if catalog == nil {
		panic("Controller: catalog cannot be nil")
	}
	if st == nil {
		panic("Controller: store cannot be nil")
	}
	if logger == nil {
		panic("Controller: logger cannot be nil")
	}

	c := &Controller{
		model:   model,
		engine:  engine,
		catalog: catalog,
		store:   st,
		logger:  logger,
	}
	c.choices = buildChoices(catalog)
	c.restoreSelection()
	return c
}

func buildChoices(catalog *session.Catalog) []Choice {
	var choices []Choice
	for _, def := range catalog.Definitions() {
		choices = append(choices, Choice{Mode: session.ModeBreathing, Exercise: def, Name: def.Name})
	}
	choices = append(choices,
		Choice{Mode: session.ModeFocus, Name: "Focus Timer"},
		Choice{Mode: session.ModeBreak, Name: "Break Timer"},
	)
	return choices
}

// Choices returns the selection-screen entries in display order.
func (c *Controller) Choices() []Choice {
	return c.choices
}

// restoreSelection rebuilds the last-used selection from preferences,
// falling back to the first choice and its first preset.
func (c *Controller) restoreSelection() {
	prefs := c.store.Preferences()

	choiceIdx := 0
	if prefs.ExerciseID != "" {
		for i, ch := range c.choices {
			if ch.Exercise != nil && ch.Exercise.ID == prefs.ExerciseID {
				choiceIdx = i
				break
			}
		}
	}
	choice := c.choices[choiceIdx]

	target := session.PresetsForMode(choice.Mode)[0]
	if prefs.TargetMinutes > 0 {
		want := time.Duration(prefs.TargetMinutes) * time.Minute
		for _, preset := range session.PresetsForMode(choice.Mode) {
			if preset == want {
				target = preset
				break
			}
		}
	}

	c.model.SetSelection(selectionFor(choice, target, prefs.AmbientSound))
}

func selectionFor(choice Choice, target time.Duration, ambient string) Selection {
	sel := Selection{
		Mode:         choice.Mode,
		ExerciseName: choice.Name,
		Target:       target,
		AmbientSound: ambient,
	}
	if choice.Exercise != nil {
		sel.ExerciseID = choice.Exercise.ID
	}
	return sel
}

// OnChoiceSelected handles selection of an exercise or countdown mode.
// The target snaps to the new mode's first preset if the current one is
// not offered there.
func (c *Controller) OnChoiceSelected(index int) {
	if index < 0 || index >= len(c.choices) {
		c.logger.Printf("Invalid choice index: %d", index)
		return
	}
	choice := c.choices[index]

	sel := c.model.Selection()
	target := sel.Target
	valid := false
	for _, preset := range session.PresetsForMode(choice.Mode) {
		if preset == target {
			valid = true
			break
		}
	}
	if !valid {
		target = session.PresetsForMode(choice.Mode)[0]
	}

	c.logger.Printf("Selected: %s (%v)", choice.Name, target)
	c.model.SetSelection(selectionFor(choice, target, sel.AmbientSound))
}

// OnDurationSelected handles selection of a duration preset for the
// current mode.
func (c *Controller) OnDurationSelected(index int) {
	sel := c.model.Selection()
	presets := session.PresetsForMode(sel.Mode)
	if index < 0 || index >= len(presets) {
		c.logger.Printf("Invalid duration index: %d", index)
		return
	}
	sel.Target = presets[index]
	c.model.SetSelection(sel)
}

// StartSession starts the selected session and switches to the dashboard.
func (c *Controller) StartSession() {
	sel := c.model.Selection()

	cfg := session.Config{
		Mode:         sel.Mode,
		Target:       sel.Target,
		AmbientSound: sel.AmbientSound,
	}
	if sel.ExerciseID != "" {
		def, err := c.catalog.Lookup(sel.ExerciseID)
		if err != nil {
			c.logger.Printf("Cannot start: %v", err)
			return
		}
		cfg.Exercise = def
	}

	if err := c.engine.Start(cfg); err != nil {
		c.logger.Printf("Start rejected: %v", err)
		return
	}

	c.store.SavePreferences(store.Preferences{
		ExerciseID:    sel.ExerciseID,
		TargetMinutes: int(sel.Target / time.Minute),
		AmbientSound:  sel.AmbientSound,
	})
	c.model.SetScreen(ScreenSession)
}

// ToggleSession starts, pauses or resumes depending on the engine state.
// From Completed it acknowledges and returns to the selection screen.
func (c *Controller) ToggleSession() {
	switch c.engine.Lifecycle() {
	case session.LifecycleIdle:
		c.StartSession()
	case session.LifecycleRunning:
		c.logIllegal(c.engine.Pause())
	case session.LifecyclePaused:
		c.logIllegal(c.engine.Resume())
	case session.LifecycleCompleted:
		c.AcknowledgeCompletion()
	}
}

// StopSession ends the session and returns to the selection screen.
func (c *Controller) StopSession() {
	c.logIllegal(c.engine.Stop())
	c.model.SetScreen(ScreenSelection)
}

// AcknowledgeCompletion dismisses the completion state.
func (c *Controller) AcknowledgeCompletion() {
	c.logIllegal(c.engine.AcknowledgeCompletion())
	c.model.SetScreen(ScreenSelection)
}

// OnScreenChange handles a screen-switch key.
func (c *Controller) OnScreenChange(s Screen) {
	c.model.SetScreen(s)
}

// OnEscapeKey requests application shutdown.
func (c *Controller) OnEscapeKey() {
	c.model.RequestClose()
}

func (c *Controller) logIllegal(err error) {
	if err != nil && !errors.Is(err, session.ErrIllegalTransition) {
		c.logger.Printf("Engine command failed: %v", err)
	}
}
