package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okwaro/safaribook/internal/apierror"
)

// Alert is one surfaced failure instance. Dismissing an alert hides
// that instance only; an identical later failure produces a fresh,
// visible alert.
type Alert struct {
	ID          string          `json:"id"`
	Error       *apierror.Error `json:"error"`
	CanRetry    bool            `json:"can_retry"`
	NeedsSignIn bool            `json:"needs_sign_in"`
	CreatedAt   time.Time       `json:"created_at"`
	dismissed   bool
}

// Center collects surfaced errors for presentation. Dismissal does not
// clear the underlying condition, only the instance's visibility.
type Center struct {
	mu     sync.Mutex
	alerts []*Alert
}

func NewCenter() *Center {
	return &Center{}
}

// Publish records a failure and returns its alert id.
func (c *Center) Publish(err *apierror.Error) string {
	a := &Alert{
		ID:          uuid.NewString(),
		Error:       err,
		CanRetry:    err.Retryable(),
		NeedsSignIn: err.NeedsSignIn(),
		CreatedAt:   time.Now(),
	}
	c.mu.Lock()
	c.alerts = append(c.alerts, a)
	c.mu.Unlock()
	return a.ID
}

// Dismiss hides one alert. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.alerts {
		if a.ID == id {
			a.dismissed = true
			return
		}
	}
}

// Visible returns the alerts still shown, oldest first.
func (c *Center) Visible() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Alert
	for _, a := range c.alerts {
		if !a.dismissed {
			out = append(out, *a)
		}
	}
	return out
}
