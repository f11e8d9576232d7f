package atc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/virtualatc/atc-engine/internal/flight"
	"github.com/virtualatc/atc-engine/internal/intent"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Generator is the external text function: system prompt plus user prompt
// in, candidate reply out. Implementations must respect cancellation.
type Generator func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// PromptBuilder assembles the model prompts from the per-turn context.
type PromptBuilder interface {
	Build(actx *Context, transmission string) (system, user string)
}

// pilotWaitingPrompt stands in for pilot text when a deferred completion
// check issues the clearance spontaneously.
const pilotWaitingPrompt = "The pilot is standing by for the IFR clearance."

// Machine is the conversation state machine: it owns the clearance workflow
// and all flight-state mutation during a turn. Turns are serialized by the
// session, so the machine itself holds no locks.
type Machine struct {
	flight    *flight.Context
	resolver  *Resolver
	guardrail *Guardrail
	scrubber  *Scrubber
	prompts   PromptBuilder
	generate  Generator
	logger    *logger.Logger
}

// NewMachine creates a conversation machine bound to one flight context.
func NewMachine(
	fc *flight.Context,
	resolver *Resolver,
	guardrail *Guardrail,
	scrubber *Scrubber,
	prompts PromptBuilder,
	generate Generator,
	log *logger.Logger,
) *Machine {
	return &Machine{
		flight:    fc,
		resolver:  resolver,
		guardrail: guardrail,
		scrubber:  scrubber,
		prompts:   prompts,
		generate:  generate,
		logger:    log.Named("atc-machine"),
	}
}

// Flight exposes the machine's flight context for telemetry and UI reads.
func (m *Machine) Flight() *flight.Context {
	return m.flight
}

// HandleTransmission processes one normalized pilot transmission and
// returns the reply, if any. Model failures never escape: they become the
// fixed standby utterances. One model call per turn, no retries.
func (m *Machine) HandleTransmission(ctx context.Context, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Source: SourceNone}
	}

	it := intent.Parse(text, m.flight)
	m.logger.Debug("Classified transmission",
		logger.String("intent", string(it.Type)),
		logger.String("text", text))

	if it.Type == intent.TypeNewFlight {
		m.flight.Reset()
		m.logger.Info("Flight context reset for new flight")
		return Reply{Text: "Roger, flight plan reset. Standing by.", Spoke: true, Source: SourceProcedural}
	}

	// Bare acknowledgments are swallowed, except during the readback
	// window, where every turn is forwarded so the model can confirm or
	// correct what the pilot read back.
	readbackWindow := m.flight.State.Issued() && m.flight.Phase.Preflight()
	if it.Type == intent.TypeAcknowledgment && !readbackWindow {
		m.logger.Debug("Swallowing acknowledgment", logger.String("text", text))
		return Reply{Source: SourceNone}
	}

	if next, ok := it.SuggestedPhase(m.flight.Phase); ok {
		if m.flight.AdvancePhase(next) {
			m.logger.Info("Phase advanced by pilot intent",
				logger.String("phase", m.flight.Phase.String()),
				logger.String("intent", string(it.Type)))
		}
	}

	switch {
	case m.flight.PendingConfirmation != "":
		return m.handleConfirmation(ctx, text, it)
	case m.flight.State.Issued() && m.flight.Phase.Preflight():
		return m.handleIssued(ctx, text, it)
	case m.flight.Phase.Preflight() &&
		(m.flight.State == flight.StateClearancePendingData || m.flight.State == flight.StateClearanceReady):
		return m.handlePendingData(ctx, text, it)
	case m.flight.Phase.Preflight() && !m.flight.State.Issued() &&
		it.Type == intent.TypeRequestIfrClearance:
		return m.handleIfrRequest(ctx, text, it)
	}
	return m.handlePhase(ctx, text, it)
}

// RecheckPendingClearance is the deferred completion check the session
// schedules after a pending-data turn. When late-arriving flight data
// completed the clearance, it is issued immediately with a synthesized
// pilot-is-waiting prompt.
func (m *Machine) RecheckPendingClearance(ctx context.Context) (Reply, bool) {
	if m.flight.State != flight.StateClearancePendingData &&
		m.flight.State != flight.StateClearanceReady {
		return Reply{Source: SourceNone}, false
	}
	it := intent.Intent{Type: intent.TypeRequestIfrClearance}
	actx := m.resolver.BuildContext(m.flight, it)
	if !actx.Flags.ClearanceDataComplete {
		return Reply{Source: SourceNone}, false
	}
	m.logger.Info("Deferred check found clearance data complete")
	reply := m.issueClearance(ctx, actx, pilotWaitingPrompt)
	return reply, reply.Spoke
}

// handleIfrRequest services the first IFR clearance request of the cycle.
func (m *Machine) handleIfrRequest(ctx context.Context, text string, it intent.Intent) Reply {
	m.flight.SetState(flight.StateIfrRequested)
	m.resolver.EnsureSquawk(m.flight)

	// A requested destination that contradicts the filed one needs an
	// explicit confirmation before any clearance is built.
	if said := it.Param("destination"); said != "" && m.hasFiledDestination() &&
		!m.resolver.DestinationMatches(m.flight, said) {
		m.flight.PendingConfirmation = "destination"
		m.logger.Info("Destination mismatch, requesting confirmation",
			logger.String("requested", said),
			logger.String("filed", m.flight.DestinationICAO))
		return m.confirmDestinationReply()
	}

	actx := m.resolver.BuildContext(m.flight, it)
	if !actx.Flags.ClearanceDataComplete {
		m.flight.SetState(flight.StateClearancePendingData)
		reply, _ := m.modelReply(ctx, actx, text)
		reply.RecheckPending = true
		return reply
	}
	return m.issueClearance(ctx, actx, text)
}

// handleConfirmation resolves a pending slot confirmation, currently only
// the destination.
func (m *Machine) handleConfirmation(ctx context.Context, text string, it intent.Intent) Reply {
	said := it.Param("destination")
	if said == "" {
		said = it.Param("destination_icao")
	}
	if said != "" && m.resolver.DestinationMatches(m.flight, said) {
		m.flight.PendingConfirmation = ""
		m.resolver.EnsureSquawk(m.flight)
		actx := m.resolver.BuildContext(m.flight, it)
		if !actx.Flags.ClearanceDataComplete {
			m.flight.SetState(flight.StateClearancePendingData)
			reply, _ := m.modelReply(ctx, actx, text)
			reply.RecheckPending = true
			return reply
		}
		return m.issueClearance(ctx, actx, text)
	}
	return m.confirmDestinationReply()
}

// handlePendingData re-resolves on every turn while clearance data is
// incomplete; completion passes through ClearanceReady to ClearanceIssued
// within the same turn.
func (m *Machine) handlePendingData(ctx context.Context, text string, it intent.Intent) Reply {
	m.resolver.EnsureSquawk(m.flight)
	actx := m.resolver.BuildContext(m.flight, it)
	if actx.Flags.ClearanceDataComplete {
		return m.issueClearance(ctx, actx, text)
	}
	reply, _ := m.modelReply(ctx, actx, text)
	reply.RecheckPending = true
	return reply
}

// handleIssued is the readback window: every turn is forwarded, with the
// evaluator verdict injected into the context on readback turns.
func (m *Machine) handleIssued(ctx context.Context, text string, it intent.Intent) Reply {
	actx := m.resolver.BuildContext(m.flight, it)
	if it.Type == intent.TypeReadback {
		verdict := EvaluateReadback(text, actx, m.flight.IssuedClearanceText, m.flight.PendingReadback)
		actx.Readback = &verdict
		if verdict.Accepted {
			m.flight.PendingReadback = nil
		} else {
			outstanding := append([]string(nil), verdict.Missing...)
			m.flight.PendingReadback = append(outstanding, verdict.Mismatched...)
		}
		m.logger.Info("Readback evaluated",
			logger.Bool("accepted", verdict.Accepted),
			logger.String("missing", strings.Join(verdict.Missing, " ")),
			logger.String("mismatched", strings.Join(verdict.Mismatched, " ")))
	}
	reply, _ := m.modelReply(ctx, actx, text)
	reply.Readback = actx.Readback
	return reply
}

// handlePhase forwards any other turn to the model under the current
// phase's role and clearance type.
func (m *Machine) handlePhase(ctx context.Context, text string, it intent.Intent) Reply {
	actx := m.resolver.BuildContext(m.flight, it)
	reply, _ := m.modelReply(ctx, actx, text)
	return reply
}

// issueClearance generates, validates and records the clearance utterance.
// A failed model call leaves the state at ClearanceReady so the next turn
// repeats the attempt.
func (m *Machine) issueClearance(ctx context.Context, actx *Context, pilotText string) Reply {
	m.flight.SetState(flight.StateClearanceReady)

	reply, generated := m.modelReply(ctx, actx, pilotText)
	if !generated {
		return reply
	}

	m.flight.SetState(flight.StateClearanceIssued)
	m.flight.IssuedClearanceText = reply.Text
	m.flight.ClearedAltitude = actx.Decision.InitialAltitude
	m.flight.PendingReadback = nil
	m.logger.Info("IFR clearance issued",
		logger.String("callsign", m.flight.Callsign),
		logger.String("destination", actx.Decision.Destination),
		logger.String("runway", actx.Decision.DepartureRunway),
		logger.Int("initial_altitude", actx.Decision.InitialAltitude),
		logger.String("squawk", actx.Decision.Squawk),
		logger.String("source", string(reply.Source)))
	return reply
}

// modelReply makes the turn's single model call, converts failures to the
// fixed standby utterances, enforces the guardrail and scrubs the result.
// generated is false when the model call itself failed.
func (m *Machine) modelReply(ctx context.Context, actx *Context, pilotText string) (reply Reply, generated bool) {
	rc := m.scrubber.ResolveContext(m.flight)
	system, user := m.prompts.Build(actx, pilotText)

	candidate, err := m.generate(ctx, system, user)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Warn("Model call cancelled", logger.Error(err))
			return Reply{Text: StandbyProcessing, Spoke: true, Source: SourceFallback}, false
		}
		m.logger.Error("Model call failed", logger.Error(err))
		return Reply{Text: StandbyTechnical, Spoke: true, Source: SourceFallback}, false
	}

	final, verdict := m.guardrail.Enforce(candidate, actx)
	source := SourceModel
	if !verdict.IsValid {
		source = SourceFallback
	}
	return Reply{Text: m.scrubber.Scrub(final, rc), Spoke: true, Source: source}, true
}

func (m *Machine) confirmDestinationReply() Reply {
	filed := m.resolver.spokenAirport(m.flight.DestinationICAO, m.flight.DestinationName)
	cs := m.spokenName()
	text := fmt.Sprintf("%s, confirm destination. Flight plan shows %s.", cs, filed)
	if cs == "" {
		text = fmt.Sprintf("Confirm destination. Flight plan shows %s.", filed)
	}
	return Reply{Text: text, Spoke: true, Source: SourceProcedural}
}

func (m *Machine) hasFiledDestination() bool {
	return m.flight.DestinationICAO != "" || m.flight.DestinationName != ""
}

func (m *Machine) spokenName() string {
	switch {
	case m.flight.SpokenCallsign != "":
		return m.flight.SpokenCallsign
	case m.flight.RadioCallsign != "":
		return m.flight.RadioCallsign
	}
	return m.flight.Callsign
}
