package learning

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
)

// Params holds the learner hyper-parameters and discretization thresholds.
type Params struct {
	Alpha            float64
	Gamma            float64
	InitialEpsilon   float64
	MinEpsilon       float64
	EpsilonDecay     float64
	DecisionInterval float64
	SurvivalReward   float64
	TerminalReward   float64

	CriticalRange  float64
	CloseRange     float64
	WallMargin     float64
	BoundaryRadius float64
}

// ParamsFromConfig returns the learner parameters from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	l := cfg.Learning
	return Params{
		Alpha:            l.Alpha,
		Gamma:            l.Gamma,
		InitialEpsilon:   l.InitialEpsilon,
		MinEpsilon:       l.MinEpsilon,
		EpsilonDecay:     l.EpsilonDecay,
		DecisionInterval: l.DecisionInterval,
		SurvivalReward:   l.SurvivalReward,
		TerminalReward:   l.TerminalReward,
		CriticalRange:    l.CriticalRange,
		CloseRange:       l.CloseRange,
		WallMargin:       l.WallMargin,
		BoundaryRadius:   cfg.Arena.BoundaryRadius,
	}
}

// Learner runs the decide/update loop for one agent.
//
// Between decisions the learner keeps returning its last action. At each
// decision boundary the previous (state, action) pair is updated with the
// survival reward bootstrapped from the current state, then a new action is
// chosen epsilon-greedily.
type Learner struct {
	params Params
	table  *Table
	rng    *rand.Rand

	epsilon    float64
	timer      float64
	last       State
	lastAction components.Action
	decisions  int
}

// New creates a learner writing to table. The rng drives exploration.
func New(params Params, table *Table, rng *rand.Rand) *Learner {
	return &Learner{
		params:  params,
		table:   table,
		rng:     rng,
		epsilon: params.InitialEpsilon,
		last:    DefaultState,
	}
}

// Step advances the decision timer by dt. When the interval has elapsed it
// performs the update and picks a new action; decided reports whether that
// happened this call.
func (l *Learner) Step(dt float64, current State) (action components.Action, decided bool) {
	l.timer += dt
	if l.timer <= l.params.DecisionInterval {
		return l.lastAction, false
	}
	l.timer = 0

	l.Update(current)
	l.lastAction = l.Choose(current)
	l.last = current
	l.decisions++
	return l.lastAction, true
}

// Update applies the temporal-difference update to the last transition:
//
//	Q[last][a] += alpha * (reward + gamma * max(Q[current]) - Q[last][a])
func (l *Learner) Update(current State) {
	row := l.table.Get(l.last)
	next := l.table.Get(current).Max()
	a := l.lastAction
	row[a] += l.params.Alpha * (l.params.SurvivalReward + l.params.Gamma*next - row[a])
}

// Choose picks an action for s. With probability epsilon a uniformly random
// valid action is returned, where JUMP is invalid while airborne. Otherwise
// the best known action is returned without any footing filter.
func (l *Learner) Choose(s State) components.Action {
	if l.rng.Float64() < l.epsilon {
		n := components.NumActions
		if !s.Grounded() {
			// ActionJump is the last action, so dropping it shortens the range.
			n--
		}
		return components.Action(l.rng.Intn(n))
	}
	return l.table.Get(s).Best()
}

// Terminal credits the last transition with the terminal reward and no
// bootstrap term. Called when the learner survives a round to timeout.
func (l *Learner) Terminal() {
	row := l.table.Get(l.last)
	a := l.lastAction
	row[a] += l.params.Alpha * (l.params.TerminalReward - row[a])
}

// Decay shrinks epsilon by the decay factor, never below the floor.
func (l *Learner) Decay() {
	l.epsilon = math.Max(l.params.MinEpsilon, l.epsilon*l.params.EpsilonDecay)
}

// Reset prepares the learner for a new round. The last state is seeded with
// DefaultState and the decision timer restarts. The last action carries over.
func (l *Learner) Reset() {
	l.last = DefaultState
	l.timer = 0
}

// Epsilon returns the current exploration rate.
func (l *Learner) Epsilon() float64 { return l.epsilon }

// LastAction returns the action currently being executed.
func (l *Learner) LastAction() components.Action { return l.lastAction }

// LastState returns the state of the most recent decision.
func (l *Learner) LastState() State { return l.last }

// Decisions returns the number of decisions made so far.
func (l *Learner) Decisions() int { return l.decisions }

// Table returns the table the learner writes to.
func (l *Learner) Table() *Table { return l.table }

// LogValue implements slog.LogValuer.
func (l *Learner) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("epsilon", l.epsilon),
		slog.Int("q_states", l.table.Len()),
		slog.Int("decisions", l.decisions),
		slog.String("action", l.lastAction.String()),
	)
}
