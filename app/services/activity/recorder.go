package activity

import (
	"context"
	"sync"
	"time"

	"campus-management/app/models"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event is what a handler reports after a successful write.
type Event struct {
	BranchID    string
	Module      string
	Action      string
	EntityID    string
	Description string
	Metadata    models.Metadata
}

// Logger records activity for the authenticated caller.
type Logger interface {
	Record(c *fiber.Ctx, e Event)
}

// Sink persists activity log entries somewhere.
type Sink interface {
	Write(ctx context.Context, entry *models.ActivityLog) error
}

// Recorder writes every event to its primary sink and then mirrors it
// asynchronously. Failures are logged and never reach the caller.
type Recorder struct {
	primary Sink
	mirrors []Sink
	timeout time.Duration
}

func NewRecorder(primary Sink, mirrors ...Sink) *Recorder {
	return &Recorder{primary: primary, mirrors: mirrors, timeout: 5 * time.Second}
}

func (r *Recorder) Record(c *fiber.Ctx, e Event) {
	entry := NewEntry(c, e)

	ctx, cancel := context.WithTimeout(c.UserContext(), r.timeout)
	defer cancel()
	if err := r.primary.Write(ctx, entry); err != nil {
		log.Error().Err(err).Str("module", e.Module).Str("action", e.Action).Msg("failed to record activity")
	}

	for _, m := range r.mirrors {
		go func(sink Sink) {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			if err := sink.Write(ctx, entry); err != nil {
				log.Warn().Err(err).Str("module", e.Module).Msg("failed to mirror activity")
			}
		}(m)
	}
}

// NewEntry fills caller and request details into an activity log row.
func NewEntry(c *fiber.Ctx, e Event) *models.ActivityLog {
	entry := &models.ActivityLog{
		ID:          uuid.NewString(),
		Module:      e.Module,
		Action:      e.Action,
		EntityID:    e.EntityID,
		Description: e.Description,
		Metadata:    e.Metadata,
		IPAddress:   c.IP(),
		CreatedAt:   time.Now().UTC(),
	}
	if entry.Metadata == nil {
		entry.Metadata = models.Metadata{}
	}

	if p := utils.CurrentUser(c); p != nil {
		entry.UserID = utils.OptionalString(p.UserID)
		entry.UserName = p.Name
		entry.Role = p.Role
		if e.BranchID == "" {
			e.BranchID = p.BranchID
		}
	}
	entry.BranchID = utils.OptionalString(e.BranchID)
	return entry
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(*fiber.Ctx, Event) {}

// Memory keeps events in memory; tests use it to assert what was recorded.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Record(_ *fiber.Ctx, e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Last returns the most recent event, or the zero Event.
func (m *Memory) Last() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return Event{}
	}
	return m.events[len(m.events)-1]
}
