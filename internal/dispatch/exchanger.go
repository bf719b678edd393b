package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/loomhq/loom/core/task"
	"github.com/loomhq/loom/internal/metrics"
	"github.com/loomhq/loom/internal/pubsub"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Exchanger sends task configs to provisioner workers and decodes what they send back.
type Exchanger struct {
	transport Transport
	publisher pubsub.Publisher[Event]
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
}

// NewExchanger falls back to the global logger when logger is nil. m may be nil.
func NewExchanger(transport Transport, publisher pubsub.Publisher[Event], m *metrics.Metrics, logger *zerolog.Logger) *Exchanger {
	if logger == nil {
		logger = &log.Logger
	}
	return &Exchanger{
		transport: transport,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Exchange encodes cfg, hands it to the transport and decodes the worker's response into a new
// TaskConfig. Transport and decoding failures are returned as *CommunicationError.
func (e *Exchanger) Exchange(ctx context.Context, cfg *task.TaskConfig) (*task.TaskConfig, error) {
	action := cfg.ServiceAction()
	event := &Event{
		ID:       uuid.New().String(),
		Node:     cfg.NodeProperties().Hostname,
		Provider: cfg.Provider().Name,
		Service:  action.Service,
		Action:   action.Action,
	}
	start := time.Now()

	next, outcome, err := e.exchange(ctx, cfg, event.Node)
	event.Duration = time.Since(start)
	event.Err = err
	if e.metrics != nil {
		e.metrics.Exchanged(outcome, event.Duration)
	}
	if err == nil {
		changes, derr := cfg.ProvisionerResults().Diff(next.ProvisionerResults())
		if derr != nil {
			e.logger.Warn().Err(derr).Str("exchange_id", event.ID).Msg("unable to diff provisioner results")
		}
		event.Changes = changes
		if !next.FixedEqual(cfg) {
			e.logger.Warn().
				Str("exchange_id", event.ID).
				Str("node", event.Node).
				Msg("provisioner worker changed fixed task fields")
		}
	}

	if perr := e.publisher.PublishEvent(event); perr != nil {
		e.logger.Error().Err(perr).Str("exchange_id", event.ID).Msg("error publishing exchange event")
	}
	if event.Err != nil {
		return nil, event.Err
	}
	return next, nil
}

func (e *Exchanger) exchange(ctx context.Context, cfg *task.TaskConfig, node string) (*task.TaskConfig, string, error) {
	if err := cfg.ServiceAction().Validate(); err != nil {
		return nil, metrics.OutcomeEncodeFailure, err
	}
	doc, err := task.Marshal(cfg)
	if err != nil {
		return nil, metrics.OutcomeEncodeFailure, err
	}

	resp, err := e.transport.RoundTrip(ctx, doc)
	if err != nil {
		return nil, metrics.OutcomeTransport, &CommunicationError{Node: node, Err: err}
	}

	next, err := task.Unmarshal(resp)
	if err != nil {
		var perr *task.ProtocolError
		if errors.As(err, &perr) {
			return nil, metrics.OutcomeProtocol, &CommunicationError{Node: node, Err: err}
		}
		return nil, metrics.OutcomeProtocol, err
	}
	return next, metrics.OutcomeOK, nil
}
