package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transition rules and builds machines from them
type StateMachineBuilder interface {
	// Configure returns the rule set for the given source state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at the given state
	Build(current State) StateMachine
}

// StateConfiguration configures the outgoing transitions of one state
type StateConfiguration interface {
	// Permit allows a trigger to move to the target state
	Permit(trigger Trigger, to State) StateConfiguration

	// PermitIf allows a trigger to move to the target state when the guard passes
	PermitIf(trigger Trigger, to State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

type stateConfig struct {
	edges map[Trigger][]edge
}

type stateMachineBuilder struct {
	configs map[State]*stateConfig
}

type stateMachine struct {
	current State
	configs map[State]*stateConfig
}

// NewBuilder creates an empty builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{configs: make(map[State]*stateConfig)}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	cfg, ok := b.configs[state]
	if !ok {
		cfg = &stateConfig{edges: make(map[Trigger][]edge)}
		b.configs[state] = cfg
	}
	return cfg
}

// Build copies the rules so later Configure calls do not leak into built machines.
func (b *stateMachineBuilder) Build(current State) StateMachine {
	if !current.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", current))
	}

	configs := make(map[State]*stateConfig, len(b.configs))
	for state, cfg := range b.configs {
		edges := make(map[Trigger][]edge, len(cfg.edges))
		for trigger, list := range cfg.edges {
			edges[trigger] = append([]edge(nil), list...)
		}
		configs[state] = &stateConfig{edges: edges}
	}

	return &stateMachine{current: current, configs: configs}
}

func (c *stateConfig) Permit(trigger Trigger, to State) StateConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, to State, guard GuardFunc) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	c.edges[trigger] = append(c.edges[trigger], edge{to: to, guard: guard})
	return c
}

func (m *stateMachine) State() State {
	return m.current
}

// CanFire does not evaluate guards; it only reports whether the trigger is configured.
func (m *stateMachine) CanFire(trigger Trigger) bool {
	return len(m.edgesFor(trigger)) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) (Transition, error) {
	edges := m.edgesFor(trigger)
	if len(edges) == 0 {
		return Transition{}, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, e := range edges {
		if e.guard == nil || e.guard(ctx) {
			t := Transition{From: m.current, To: e.to, Trigger: trigger}
			m.current = e.to
			return t, nil
		}
	}

	return Transition{}, fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	cfg, ok := m.configs[m.current]
	if !ok {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(cfg.edges))
	for trigger, edges := range cfg.edges {
		if len(edges) > 0 {
			triggers = append(triggers, trigger)
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

func (m *stateMachine) edgesFor(trigger Trigger) []edge {
	cfg, ok := m.configs[m.current]
	if !ok {
		return nil
	}
	return cfg.edges[trigger]
}
