package game

import "github.com/pthm-cable/pursuit/components"

// AgentView is the presentation view of one agent.
type AgentView struct {
	ID      string  `json:"id" msgpack:"id"`
	Role    string  `json:"role" msgpack:"role"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	Z       float64 `json:"z" msgpack:"z"`
	Yaw     float64 `json:"yaw" msgpack:"yaw"`
	Alive   bool    `json:"alive" msgpack:"alive"`
	Learner bool    `json:"learner,omitempty" msgpack:"learner,omitempty"`
}

// Snapshot is everything a presentation layer needs to draw one frame.
type Snapshot struct {
	Tick          int64       `json:"tick" msgpack:"tick"`
	Phase         string      `json:"phase" msgpack:"phase"`
	Message       string      `json:"message,omitempty" msgpack:"message,omitempty"`
	Status        string      `json:"status" msgpack:"status"`
	Elapsed       float64     `json:"elapsed" msgpack:"elapsed"`
	Remaining     float64     `json:"remaining" msgpack:"remaining"`
	ActiveRunners int         `json:"active_runners" msgpack:"active_runners"`
	Score         Score       `json:"score" msgpack:"score"`
	Generation    int         `json:"generation" msgpack:"generation"`
	BestTime      float64     `json:"best_time" msgpack:"best_time"`
	LearnerAction string      `json:"learner_action,omitempty" msgpack:"learner_action,omitempty"`
	Epsilon       float64     `json:"epsilon" msgpack:"epsilon"`
	Agents        []AgentView `json:"agents" msgpack:"agents"`
}

// Snapshot captures the current presentation state. Agents are listed in
// roster order, hunters first.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Tick:          g.tick,
		Phase:         g.round.Phase().String(),
		Message:       g.round.Message(),
		Status:        g.StatusSummary(),
		Elapsed:       g.round.Elapsed(),
		Remaining:     g.round.Remaining(),
		ActiveRunners: g.active.Len(),
		Score:         g.round.Score(),
		Generation:    g.round.Generation(),
		BestTime:      g.round.BestTime(),
		LearnerAction: g.LearnerLabel(),
		Epsilon:       g.Epsilon(),
		Agents:        make([]AgentView, 0, len(g.ids)),
	}

	for _, id := range g.ids {
		e := g.byID[id]
		pos := g.posMap.Get(e)
		agent := g.agentMap.Get(e)
		alive := agent.Role == components.RoleHunter || g.active.Contains(e)
		_, learner := g.learners[e]
		s.Agents = append(s.Agents, AgentView{
			ID:      agent.ID,
			Role:    agent.Role.String(),
			X:       pos.X,
			Y:       pos.Y,
			Z:       pos.Z,
			Yaw:     g.headMap.Get(e).Yaw,
			Alive:   alive,
			Learner: learner,
		})
	}
	return s
}
