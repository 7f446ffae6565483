package workflow

import (
	"time"

	"github.com/dukex/dno/pkg/eventbus"
	"github.com/dukex/dno/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Config carries the optional collaborators and knobs of an Engine. The zero
// value is usable: actions wait forever, ids are UUIDs and nothing is
// published, traced or counted.
type Config struct {
	// ActionTimeout bounds how long a use case waits for one client action.
	// Zero waits until the run context ends.
	ActionTimeout time.Duration

	Now         func() time.Time
	IDGenerator func() string

	EventBus eventbus.EventBus
	Tracer   trace.Tracer
	Metrics  *metrics.Collector
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}

	if c.IDGenerator == nil {
		c.IDGenerator = uuid.NewString
	}

	return c
}
