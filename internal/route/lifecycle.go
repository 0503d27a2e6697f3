package route

import (
	"context"
	"math"
	"time"

	"github.com/looplab/fsm"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// Lifecycle events.
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventCancel   = "cancel"
)

// lifecycle drives Route.Status. Every callback receives the route and the
// transition time as Args[0] and Args[1].
type lifecycle struct {
	*fsm.FSM
}

func newLifecycle(initial models.RouteStatus) *lifecycle {
	l := &lifecycle{}

	events := fsm.Events{
		{Name: EventStart, Src: []string{string(models.RouteStatusPlanned)}, Dst: string(models.RouteStatusActive)},
		{Name: EventComplete, Src: []string{string(models.RouteStatusActive)}, Dst: string(models.RouteStatusCompleted)},
		{Name: EventCancel, Src: []string{string(models.RouteStatusPlanned), string(models.RouteStatusActive)}, Dst: string(models.RouteStatusCancelled)},
	}

	callbacks := fsm.Callbacks{
		"enter_" + string(models.RouteStatusActive):    l.enterActive,
		"enter_" + string(models.RouteStatusCompleted): l.enterCompleted,
		"enter_" + string(models.RouteStatusCancelled): l.enterCancelled,
	}

	l.FSM = fsm.NewFSM(string(initial), events, callbacks)
	return l
}

func transitionArgs(e *fsm.Event) (*models.Route, time.Time) {
	return e.Args[0].(*models.Route), e.Args[1].(time.Time)
}

func (l *lifecycle) enterActive(_ context.Context, e *fsm.Event) {
	r, at := transitionArgs(e)
	r.Status = models.RouteStatusActive
	r.StartedAt = &at
	r.UpdatedAt = at
}

// enterCompleted derives the actual duration from the start time unless one was
// supplied. Clock skew never yields a negative duration.
func (l *lifecycle) enterCompleted(_ context.Context, e *fsm.Event) {
	r, at := transitionArgs(e)
	r.Status = models.RouteStatusCompleted
	r.CompletedAt = &at
	r.UpdatedAt = at
	if r.ActualDuration == nil && r.StartedAt != nil {
		minutes := math.Max(0, math.Round(at.Sub(*r.StartedAt).Minutes()))
		r.ActualDuration = &minutes
	}
}

func (l *lifecycle) enterCancelled(_ context.Context, e *fsm.Event) {
	r, at := transitionArgs(e)
	r.Status = models.RouteStatusCancelled
	r.UpdatedAt = at
}

// fire runs event and reports whether a transition took place. Events not
// allowed from the current state leave everything untouched.
func (l *lifecycle) fire(event string, r *models.Route, at time.Time) bool {
	return l.Event(context.Background(), event, r, at) == nil
}
