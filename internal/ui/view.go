package ui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/stillpoint/stillpoint-app/internal/safego"
	"github.com/stillpoint/stillpoint-app/internal/session"
)

// Page names for tview.Pages
const (
	pageSelection = "selection"
	pageSession   = "session"
)

// CursesView is the tview terminal UI: a selection screen (choices +
// durations + details) and a live session dashboard, with a shared log
// pane on the right. It renders model/engine state and forwards every key
// to the Controller; it holds no session state of its own.
type CursesView struct {
	logger     *log.Logger
	app        *tview.Application
	model      *Model
	controller *Controller

	currentScreen Screen
	pages         *tview.Pages
	logView       *tview.TextView
	mainFlex      *tview.Flex

	// Selection screen components
	choiceList    *tview.List
	durationList  *tview.List
	detailsPanel  *tview.TextView
	selectionFlex *tview.Flex
	selectionTabs []tview.Primitive

	// Session screen components
	sessionPanel *tview.TextView
	sessionFlex  *tview.Flex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCursesView builds the widgets, wires keyboard handlers and starts the
// model event listeners.
func NewCursesView(logger *log.Logger, app *tview.Application, model *Model, controller *Controller) *CursesView {
	if logger == nil {
		panic("CursesView: logger cannot be nil")
	}
	if app == nil {
		panic("CursesView: app cannot be nil")
	}
	if model == nil {
		panic("CursesView: model cannot be nil")
	}
	if controller == nil {
		panic("CursesView: controller cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &CursesView{
		logger:        logger,
		app:           app,
		model:         model,
		controller:    controller,
		currentScreen: ScreenSelection,
		ctx:           ctx,
		cancel:        cancel,
	}

	v.initWidgets()
	v.setupKeyboardHandlers()
	v.setupEventListeners()
	v.updateLogDisplay()

	return v
}

func (v *CursesView) initWidgets() {
	// Shared log view. No SetChangedFunc with app.Draw() - the event
	// listeners already draw after updating content, and a changed-func
	// draw can hang during shutdown.
	v.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	v.logView.SetBorder(true).SetTitle(" Logs ")

	v.pages = tview.NewPages()
	v.initSelectionScreen()
	v.initSessionScreen()
	v.pages.AddPage(pageSelection, v.selectionFlex, true, true)
	v.pages.AddPage(pageSession, v.sessionFlex, true, false)

	v.mainFlex = tview.NewFlex().
		AddItem(v.pages, 0, 2, true).
		AddItem(v.logView, 0, 1, false)
}

func (v *CursesView) initSelectionScreen() {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText("[yellow]Enter[white] Select  |  [yellow]Tab[white] Switch Pane  |  [yellow]Space[white] Start\n[yellow]1[white] Select  |  [yellow]2[white] Session  |  [yellow]Esc[white] Quit")

	v.choiceList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			v.controller.OnChoiceSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			v.updateDetailsDisplay(index)
		})
	v.choiceList.SetBorder(true).SetTitle(" Sessions ")
	for _, choice := range v.controller.Choices() {
		v.choiceList.AddItem(choice.Name, choiceSummary(choice), 0, nil)
	}

	v.durationList = tview.NewList().
		ShowSecondaryText(false).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			v.controller.OnDurationSelected(index)
		})
	v.durationList.SetBorder(true).SetTitle(" Duration ")

	v.detailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	v.detailsPanel.SetBorder(true).SetTitle(" Details ")
	v.updateDetailsDisplay(0)

	v.selectionTabs = []tview.Primitive{v.choiceList, v.durationList}

	listsColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.choiceList, 0, 3, true).
		AddItem(v.durationList, 0, 1, false)

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(listsColumn, 0, 1, true).
		AddItem(v.detailsPanel, 0, 1, false)

	v.selectionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(content, 0, 1, true)
}

func (v *CursesView) initSessionScreen() {
	v.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	v.sessionPanel.SetBorder(true).SetTitle(" Session ")
	v.updateSessionDisplay(session.Snapshot{})

	v.sessionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.sessionPanel, 0, 1, true)
}

func (v *CursesView) setupKeyboardHandlers() {
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			if screen, ok := ScreenByKey(event.Rune()); ok {
				v.controller.OnScreenChange(screen)
				return nil
			}
		}

		if event.Key() == tcell.KeyTab && v.currentScreen == ScreenSelection {
			for i, widget := range v.selectionTabs {
				if widget.HasFocus() {
					v.app.SetFocus(v.selectionTabs[(i+1)%len(v.selectionTabs)])
					break
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			v.controller.OnEscapeKey()
			return nil
		}

		if event.Key() == tcell.KeyRune && event.Rune() == ' ' {
			v.controller.ToggleSession()
			return nil
		}
		if event.Key() == tcell.KeyRune && event.Rune() == 'x' {
			v.controller.StopSession()
			return nil
		}

		return event
	})
}

func (v *CursesView) setupEventListeners() {
	logChan := make(chan string, 16)
	logUnregister := v.model.ListenToLog(logChan)
	v.wg.Add(1)
	safego.Go(v.logger, func() {
		defer v.wg.Done()
		defer logUnregister()
		for {
			select {
			case <-v.ctx.Done():
				return
			case _, ok := <-logChan:
				if !ok {
					return
				}
				v.updateLogDisplay()
				v.app.Draw()
			}
		}
	})

	screenChan := make(chan Screen, 1)
	screenUnregister := v.model.ListenToScreen(screenChan)
	v.wg.Add(1)
	safego.Go(v.logger, func() {
		defer v.wg.Done()
		defer screenUnregister()
		for {
			select {
			case <-v.ctx.Done():
				return
			case screen, ok := <-screenChan:
				if !ok {
					return
				}
				v.setScreen(screen)
				v.app.Draw()
			}
		}
	})

	selectionChan := make(chan Selection, 1)
	selectionUnregister := v.model.ListenToSelection(selectionChan)
	v.wg.Add(1)
	safego.Go(v.logger, func() {
		defer v.wg.Done()
		defer selectionUnregister()
		for {
			select {
			case <-v.ctx.Done():
				return
			case sel, ok := <-selectionChan:
				if !ok {
					return
				}
				v.updateDurationList(sel)
				v.updateDetailsDisplay(v.choiceList.GetCurrentItem())
				v.app.Draw()
			}
		}
	})

	snapChan := make(chan session.Snapshot, 4)
	snapUnregister := v.model.ListenToSnapshots(snapChan)
	v.wg.Add(1)
	safego.Go(v.logger, func() {
		defer v.wg.Done()
		defer snapUnregister()
		for {
			select {
			case <-v.ctx.Done():
				return
			case snap, ok := <-snapChan:
				if !ok {
					return
				}
				v.updateSessionDisplay(snap)
				v.app.Draw()
			}
		}
	})

	closeChan := make(chan struct{}, 1)
	closeUnregister := v.model.ListenToClose(closeChan)
	v.wg.Add(1)
	safego.Go(v.logger, func() {
		defer v.wg.Done()
		defer closeUnregister()
		select {
		case <-v.ctx.Done():
			return
		case <-closeChan:
			v.app.Stop()
		}
	})
}

func (v *CursesView) setScreen(s Screen) {
	if v.currentScreen == s {
		return
	}
	v.currentScreen = s

	switch s {
	case ScreenSelection:
		v.pages.SwitchToPage(pageSelection)
		v.app.SetFocus(v.choiceList)
	case ScreenSession:
		v.pages.SwitchToPage(pageSession)
		v.app.SetFocus(v.sessionPanel)
	}
}

func (v *CursesView) updateLogDisplay() {
	_, _, _, height := v.logView.GetInnerRect()
	if height <= 0 {
		return
	}
	v.logView.Clear()
	for _, line := range v.model.GetLogTail(height) {
		fmt.Fprint(v.logView, line)
	}
}

func (v *CursesView) updateDurationList(sel Selection) {
	current := v.durationList.GetCurrentItem()
	v.durationList.Clear()
	selectedIdx := -1
	for i, preset := range session.PresetsForMode(sel.Mode) {
		if preset == sel.Target {
			selectedIdx = i
		}
		v.durationList.AddItem(formatDuration(preset), "", 0, nil)
	}
	if selectedIdx > -1 {
		v.durationList.SetCurrentItem(selectedIdx)
	} else if current < v.durationList.GetItemCount() {
		v.durationList.SetCurrentItem(current)
	}
}

func (v *CursesView) updateDetailsDisplay(index int) {
	if v.detailsPanel == nil {
		return
	}

	choices := v.controller.Choices()
	var text string
	if index < 0 || index >= len(choices) {
		text = "\n  Select a session type from the list.\n"
	} else {
		choice := choices[index]
		sel := v.model.Selection()
		text = "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", choice.Name)
		text += fmt.Sprintf("  [gray]Duration:[white] %s\n", formatDuration(sel.Target))
		if choice.Exercise != nil {
			text += fmt.Sprintf("  [gray]Cycle:[white] %s\n\n", formatDuration(choice.Exercise.CycleDuration()))
			text += "  [gray]Phases:[white]\n"
			for i, phase := range choice.Exercise.Phases {
				text += fmt.Sprintf("    %d. %s for %ds\n", i+1, localize(phase.InstructionKey), int(phase.Duration.Seconds()))
			}
		} else {
			text += "\n  Plain countdown, no breathing guidance.\n"
		}
		text += "\n  [green]Press Space to begin[white]\n"
	}

	v.detailsPanel.SetText(text)
}

func (v *CursesView) updateSessionDisplay(snap session.Snapshot) {
	if v.sessionPanel == nil {
		return
	}

	var text string
	switch snap.Lifecycle {
	case session.LifecycleIdle:
		text = "\n  [gray]No session running[white]\n\n"
		text += "  Pick a session on the Select screen (press 1)\n"
		text += "  and press Space to begin.\n"

	case session.LifecycleCompleted:
		text = "\n  [green]Session complete.[white]\n\n"
		text += fmt.Sprintf("  %s for %s - well done.\n\n", modeTitle(snap.Config.Mode), formatDuration(snap.Config.Target))
		text += "  [gray]Press[white] [yellow]Space[white] [gray]to continue[white]\n"

	default:
		text = v.formatActiveSession(snap)
	}

	v.sessionPanel.SetText(text)
}

func (v *CursesView) formatActiveSession(snap session.Snapshot) string {
	paused := snap.Lifecycle == session.LifecyclePaused

	text := "\n"
	if paused {
		text += fmt.Sprintf("  [yellow]%s[white] [gray](PAUSED)[white]\n\n", modeTitle(snap.Config.Mode))
	} else {
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", modeTitle(snap.Config.Mode))
	}

	if snap.Config.Exercise != nil {
		text += fmt.Sprintf("  [cyan]%s[white]\n\n", snap.Config.Exercise.Name)
		text += fmt.Sprintf("      [yellow::b]%s[white::-]\n\n", localize(snap.InstructionKey))
		text += fmt.Sprintf("  [gray]Phase:[white]     %d/%d  (%ds left)\n",
			snap.PhaseIndex+1, len(snap.Config.Exercise.Phases), int(snap.PhaseRemaining.Seconds()+0.999))
	}

	text += fmt.Sprintf("  [gray]Elapsed:[white]   %s\n", formatDurationMMSS(snap.Elapsed))
	text += fmt.Sprintf("  [gray]Remaining:[white] %s\n", formatDurationMMSS(snap.Remaining))

	text += "\n  [gray]------------------------[white]\n"
	if paused {
		text += "  [yellow]Space[white] Resume  |  [yellow]X[white] Stop\n"
	} else {
		text += "  [yellow]Space[white] Pause  |  [yellow]X[white] Stop\n"
	}
	return text
}

// Run starts the UI and blocks until it exits.
func (v *CursesView) Run() error {
	v.app.SetRoot(v.mainFlex, true)
	v.app.SetFocus(v.choiceList)
	return v.app.Run()
}

// Shutdown stops the listener goroutines and waits for them.
func (v *CursesView) Shutdown() {
	v.logger.Println("CursesView: shutting down")
	v.cancel()
	v.wg.Wait()
}

func choiceSummary(choice Choice) string {
	if choice.Exercise == nil {
		return modeTitle(choice.Mode)
	}
	summary := ""
	for i, phase := range choice.Exercise.Phases {
		if i > 0 {
			summary += "-"
		}
		summary += fmt.Sprintf("%d", int(phase.Duration.Seconds()))
	}
	return summary + "s cycle"
}

func modeTitle(m session.Mode) string {
	switch m {
	case session.ModeFocus:
		return "Focus"
	case session.ModeBreak:
		return "Break"
	default:
		return "Breathing"
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%d min", minutes)
}

// formatDurationMMSS formats a duration as MM:SS.
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
