package notify

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"muninn/internal/jobstore"
	"muninn/internal/origin"
)

// Action is what a session should do with a completion signal.
type Action string

const (
	// ActionRedirect: the user is still on the view that started the batch;
	// navigate them straight to the result.
	ActionRedirect Action = "redirect"
	// ActionToast: the user navigated away mid-processing; surface a passive
	// notification with an explicit way to reach the result.
	ActionToast Action = "toast"
	// ActionNone: nothing to act on (no marker, or already handled).
	ActionNone Action = "none"
)

// Decision pairs the chosen action with the result to navigate to.
type Decision struct {
	Action   Action `json:"action"`
	ResultID string `json:"result_id,omitempty"`
}

/*
DecisionPoint translates a completion signal into the correct user-facing
action for one session. Each mounted session owns its own instance; the
handled flag guards against acting twice on a duplicated signal. Whichever
branch is taken, the origin marker is cleared so a later, unrelated
completion cannot be mis-attributed to a stale origin.
*/
type DecisionPoint struct {
	marker origin.Marker
	store  *jobstore.Store

	mu      sync.Mutex
	handled bool
}

func NewDecisionPoint(marker origin.Marker, store *jobstore.Store) *DecisionPoint {
	return &DecisionPoint{marker: marker, store: store}
}

// HandleCompletion decides between redirect and toast for the session
// currently showing currentView. It acts at most once per batch; call Reset
// when the session starts a new batch.
func (d *DecisionPoint) HandleCompletion(currentView string) (Decision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handled {
		return Decision{Action: ActionNone}, nil
	}

	originView, err := d.marker.GetOrigin()
	if err != nil {
		return Decision{Action: ActionNone}, fmt.Errorf("read origin marker: %w", err)
	}
	if originView == "" {
		return Decision{Action: ActionNone}, nil
	}

	resultID, _ := d.store.LatestResult()

	if err := d.marker.ClearOrigin(); err != nil {
		return Decision{Action: ActionNone}, fmt.Errorf("clear origin marker: %w", err)
	}
	d.handled = true

	action := ActionToast
	if currentView == originView {
		action = ActionRedirect
	}
	log.WithFields(log.Fields{
		"current_view": currentView,
		"origin_view":  originView,
		"action":       action,
	}).Debug("completion decision")
	return Decision{Action: action, ResultID: resultID}, nil
}

// Reset clears the handled guard so the next batch's completion can be
// acted on again.
func (d *DecisionPoint) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handled = false
}
