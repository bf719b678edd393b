package dispatch

import (
	"time"

	"github.com/loomhq/loom/core/task"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Event records one task exchange.
type Event struct {
	ID       string
	Node     string
	Provider string
	Service  string
	Action   task.ActionType
	Duration time.Duration
	// Changes lists how the worker changed the provisioner results.
	Changes []task.ResultChange
	Err     error
}

// LoggingSubscriber writes exchange events to a logger.
type LoggingSubscriber struct {
	logger *zerolog.Logger
}

func NewLoggingSubscriber(logger *zerolog.Logger) *LoggingSubscriber {
	if logger == nil {
		logger = &log.Logger
	}
	return &LoggingSubscriber{logger: logger}
}

func (s *LoggingSubscriber) ConsumeEvent(e *Event) error {
	var ev *zerolog.Event
	if e.Err != nil {
		ev = s.logger.Error().Err(e.Err)
	} else {
		ev = s.logger.Info()
	}
	ev = ev.
		Str("exchange_id", e.ID).
		Str("node", e.Node).
		Str("provider", e.Provider).
		Str("service", e.Service).
		Str("action", string(e.Action)).
		Dur("duration", e.Duration)

	if len(e.Changes) != 0 {
		paths := make([]string, 0, len(e.Changes))
		for _, c := range e.Changes {
			paths = append(paths, c.Op+" "+c.Path)
		}
		ev = ev.Strs("result_changes", paths)
	}
	ev.Msg("task exchanged with provisioner worker")
	return nil
}
