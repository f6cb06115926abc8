package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pursuit/telemetry"
)

// Phase is the round state machine position.
type Phase uint8

const (
	PhaseRunning Phase = iota
	PhaseOver
)

// String returns the display name for a Phase.
func (p Phase) String() string {
	if p == PhaseOver {
		return "OVER"
	}
	return "RUNNING"
}

// Outcome is how a round ended.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeHunters
	OutcomeRunners
)

// String returns the telemetry label for an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeHunters:
		return telemetry.OutcomeHunters
	case OutcomeRunners:
		return telemetry.OutcomeRunners
	default:
		return ""
	}
}

// Message returns the banner shown while the round is over.
func (o Outcome) Message() string {
	switch o {
	case OutcomeHunters:
		return "TOTAL ELIMINATION!"
	case OutcomeRunners:
		return "RUNNERS SURVIVED!"
	default:
		return ""
	}
}

// Score is the cumulative win tally across rounds.
type Score struct {
	HunterWins int `json:"hunters" msgpack:"hunters"`
	RunnerWins int `json:"runners" msgpack:"runners"`
}

// ActiveSet tracks which runners are still in the round.
// Members are reported in roster order.
type ActiveSet struct {
	roster  []ecs.Entity
	members map[ecs.Entity]struct{}
}

// NewActiveSet creates a set holding every runner of the roster.
func NewActiveSet(roster []ecs.Entity) *ActiveSet {
	s := &ActiveSet{roster: roster, members: make(map[ecs.Entity]struct{}, len(roster))}
	s.Reset()
	return s
}

// Reset restores the full roster.
func (s *ActiveSet) Reset() {
	for _, e := range s.roster {
		s.members[e] = struct{}{}
	}
}

// Remove drops e, returning false if it was not a member.
func (s *ActiveSet) Remove(e ecs.Entity) bool {
	if _, ok := s.members[e]; !ok {
		return false
	}
	delete(s.members, e)
	return true
}

// Contains reports whether e is still active.
func (s *ActiveSet) Contains(e ecs.Entity) bool {
	_, ok := s.members[e]
	return ok
}

// Len returns the number of active runners.
func (s *ActiveSet) Len() int {
	return len(s.members)
}

// Size returns the full roster size.
func (s *ActiveSet) Size() int {
	return len(s.roster)
}

// AppendMembers appends the active runners in roster order to buf.
func (s *ActiveSet) AppendMembers(buf []ecs.Entity) []ecs.Entity {
	for _, e := range s.roster {
		if _, ok := s.members[e]; ok {
			buf = append(buf, e)
		}
	}
	return buf
}

// Round owns the round state machine, the clock and the cumulative tallies.
type Round struct {
	duration float64

	phase      Phase
	outcome    Outcome
	elapsed    float64
	score      Score
	generation int
	bestTime   float64
}

// NewRound creates a running round of the given duration.
func NewRound(duration float64) *Round {
	return &Round{duration: duration}
}

// Running reports whether the round is in progress.
func (r *Round) Running() bool { return r.phase == PhaseRunning }

// Advance moves the round clock forward while running.
func (r *Round) Advance(dt float64) {
	if r.phase == PhaseRunning {
		r.elapsed += dt
	}
}

// TimeUp reports whether the round clock reached the duration.
func (r *Round) TimeUp() bool { return r.elapsed >= r.duration }

// End moves a running round to OVER with the given outcome. The phase flag
// is set before anything else, and a round that is already over is left
// untouched: End returns false and nothing is counted twice.
func (r *Round) End(outcome Outcome) bool {
	if r.phase != PhaseRunning {
		return false
	}
	r.phase = PhaseOver
	r.outcome = outcome

	switch outcome {
	case OutcomeHunters:
		r.score.HunterWins++
	case OutcomeRunners:
		r.score.RunnerWins++
	}
	if t := r.Survival(); t > r.bestTime {
		r.bestTime = t
	}
	r.generation++
	return true
}

// Restart zeroes the clock, clears the outcome and resumes RUNNING.
// Score, generation and best time persist.
func (r *Round) Restart() {
	r.phase = PhaseRunning
	r.outcome = OutcomeNone
	r.elapsed = 0
}

// Phase returns the current phase.
func (r *Round) Phase() Phase { return r.phase }

// Outcome returns how the last round ended, or OutcomeNone while running.
func (r *Round) Outcome() Outcome { return r.outcome }

// Message returns the win banner, empty while running.
func (r *Round) Message() string { return r.outcome.Message() }

// Survival returns the time survived this round. A long final frame can push
// the clock past the duration; survival is capped there.
func (r *Round) Survival() float64 { return min(r.elapsed, r.duration) }

// Elapsed returns seconds since the round started.
func (r *Round) Elapsed() float64 { return r.elapsed }

// Remaining returns the time left on the round clock, never negative.
func (r *Round) Remaining() float64 { return r.duration - min(r.elapsed, r.duration) }

// Duration returns the round length.
func (r *Round) Duration() float64 { return r.duration }

// Score returns the cumulative tally.
func (r *Round) Score() Score { return r.score }

// Generation returns the number of completed rounds.
func (r *Round) Generation() int { return r.generation }

// BestTime returns the longest round seen so far.
func (r *Round) BestTime() float64 { return r.bestTime }
