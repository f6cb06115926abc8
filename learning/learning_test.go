package learning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/pursuit/components"
	"github.com/pthm-cable/pursuit/config"
)

func testParams(t *testing.T) Params {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	return ParamsFromConfig(cfg)
}

func TestStateIndexDense(t *testing.T) {
	seen := make(map[int]bool)
	for d := DistanceCritical; d <= DistanceFar; d++ {
		for w := WallNear; w <= WallSafe; w++ {
			for f := FootingGround; f <= FootingAir; f++ {
				i := State{Distance: d, Wall: w, Footing: f}.Index()
				if i < 0 || i >= NumStates {
					t.Errorf("index %d out of range", i)
				}
				seen[i] = true
			}
		}
	}
	if len(seen) != NumStates {
		t.Errorf("got %d distinct indices, want %d", len(seen), NumStates)
	}
	if DefaultState.String() != "FAR_SAFE_GROUND" {
		t.Errorf("default state = %q, want FAR_SAFE_GROUND", DefaultState)
	}
}

func TestDiscretize(t *testing.T) {
	p := testParams(t)
	tests := []struct {
		threat, center float64
		grounded       bool
		want           string
	}{
		{1, 0, true, "CRITICAL_SAFE_GROUND"},
		{4.99, 0, true, "CRITICAL_SAFE_GROUND"},
		{5, 0, true, "CLOSE_SAFE_GROUND"},
		{9.99, 27.5, false, "CLOSE_WALL_AIR"},
		{10, 27, true, "FAR_SAFE_GROUND"},
		{50, 29, false, "FAR_WALL_AIR"},
	}
	for _, tt := range tests {
		got := p.Discretize(tt.threat, tt.center, tt.grounded)
		if got.String() != tt.want {
			t.Errorf("Discretize(%v, %v, %v) = %s, want %s", tt.threat, tt.center, tt.grounded, got, tt.want)
		}
	}
}

func TestTableLazyRows(t *testing.T) {
	table := NewTable()
	s := State{Distance: DistanceClose, Wall: WallNear, Footing: FootingAir}

	if table.Len() != 0 {
		t.Fatalf("new table has %d rows", table.Len())
	}
	row := table.Get(s)
	if table.Len() != 1 {
		t.Errorf("Len after first Get = %d, want 1", table.Len())
	}
	if len(row) != components.NumActions {
		t.Errorf("row length = %d, want %d", len(row), components.NumActions)
	}
	for i, v := range row {
		if v != 0 {
			t.Errorf("row[%d] = %v, want 0", i, v)
		}
	}

	row[components.ActionCenter] = 3
	again := table.Get(s)
	if again != row {
		t.Error("repeated Get returned a different row")
	}
	if again[components.ActionCenter] != 3 {
		t.Error("row was reinitialized")
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
}

func TestTableRowPerState(t *testing.T) {
	table := NewTable()
	rows := make(map[*Values]bool)
	for d := DistanceCritical; d <= DistanceFar; d++ {
		for w := WallNear; w <= WallSafe; w++ {
			for f := FootingGround; f <= FootingAir; f++ {
				rows[table.Get(State{Distance: d, Wall: w, Footing: f})] = true
			}
		}
	}
	if len(rows) != NumStates || table.Len() != NumStates {
		t.Errorf("distinct rows = %d, Len = %d, want %d", len(rows), table.Len(), NumStates)
	}
}

func TestValuesBestFirstMax(t *testing.T) {
	v := Values{1, 4, 4, 2, 4}
	if got := v.Best(); got != components.ActionJukeLeft {
		t.Errorf("Best = %v, want JUKE_L", got)
	}
	if v.Max() != 4 {
		t.Errorf("Max = %v, want 4", v.Max())
	}

	var zero Values
	if got := zero.Best(); got != components.ActionFlee {
		t.Errorf("Best of zero row = %v, want FLEE", got)
	}
}

func TestUpdateRule(t *testing.T) {
	p := testParams(t)
	l := New(p, NewTable(), rand.New(rand.NewSource(1)))

	last := l.LastState()
	l.table.Get(last)[components.ActionFlee] = 2
	current := State{Distance: DistanceClose, Wall: WallSafe, Footing: FootingGround}
	l.table.Get(current)[components.ActionJump] = 10

	l.Update(current)

	// 2 + 0.5 * (1 + 0.9*10 - 2) = 6
	if got := l.table.Get(last)[components.ActionFlee]; math.Abs(got-6) > 1e-12 {
		t.Errorf("Q after update = %v, want 6", got)
	}
}

func TestTerminalRule(t *testing.T) {
	p := testParams(t)
	l := New(p, NewTable(), rand.New(rand.NewSource(1)))
	l.table.Get(DefaultState)[components.ActionFlee] = 20

	l.Terminal()

	// 20 + 0.5 * (100 - 20) = 60
	if got := l.table.Get(DefaultState)[components.ActionFlee]; math.Abs(got-60) > 1e-12 {
		t.Errorf("Q after terminal = %v, want 60", got)
	}
}

func TestDecisionCadence(t *testing.T) {
	p := testParams(t)
	l := New(p, NewTable(), rand.New(rand.NewSource(3)))

	dt := 1.0 / 64
	decisions := 0
	for i := 0; i < 600; i++ {
		if _, decided := l.Step(dt, DefaultState); decided {
			decisions++
		}
	}
	// One decision every 13 ticks (timer must exceed 0.2 s)
	if decisions != 600/13 {
		t.Errorf("decisions in 600 ticks = %d, want %d", decisions, 600/13)
	}
	if l.Decisions() != decisions {
		t.Errorf("Decisions() = %d, want %d", l.Decisions(), decisions)
	}
}

func TestStepHoldsActionBetweenDecisions(t *testing.T) {
	p := testParams(t)
	p.InitialEpsilon = 1
	l := New(p, NewTable(), rand.New(rand.NewSource(5)))

	var current components.Action
	for i := 0; i < 200; i++ {
		action, decided := l.Step(0.05, DefaultState)
		if decided {
			current = action
			continue
		}
		if action != current {
			t.Fatalf("tick %d: action changed to %v without a decision", i, action)
		}
	}
}

func TestExplorationNeverJumpsAirborne(t *testing.T) {
	p := testParams(t)
	p.InitialEpsilon = 1
	l := New(p, NewTable(), rand.New(rand.NewSource(11)))
	air := State{Distance: DistanceCritical, Wall: WallSafe, Footing: FootingAir}

	counts := make(map[components.Action]int)
	for i := 0; i < 10000; i++ {
		counts[l.Choose(air)]++
	}
	if counts[components.ActionJump] != 0 {
		t.Errorf("exploration chose JUMP %d times while airborne", counts[components.ActionJump])
	}
	for a := components.ActionFlee; a < components.ActionJump; a++ {
		if counts[a] < 2000 {
			t.Errorf("action %v chosen %d times, want roughly uniform", a, counts[a])
		}
	}

	ground := State{Distance: DistanceCritical, Wall: WallSafe, Footing: FootingGround}
	jumps := 0
	for i := 0; i < 10000; i++ {
		if l.Choose(ground) == components.ActionJump {
			jumps++
		}
	}
	if jumps < 1500 {
		t.Errorf("grounded exploration chose JUMP %d times, want roughly 1/5", jumps)
	}
}

func TestExploitationIgnoresFooting(t *testing.T) {
	p := testParams(t)
	p.InitialEpsilon = 0
	l := New(p, NewTable(), rand.New(rand.NewSource(1)))
	air := State{Distance: DistanceFar, Wall: WallSafe, Footing: FootingAir}
	l.table.Get(air)[components.ActionJump] = 5

	if got := l.Choose(air); got != components.ActionJump {
		t.Errorf("exploitation = %v, want JUMP", got)
	}
}

func TestEpsilonDecay(t *testing.T) {
	p := testParams(t)
	for _, n := range []int{0, 1, 10, 100, 298, 299, 1000} {
		l := New(p, NewTable(), rand.New(rand.NewSource(1)))
		for i := 0; i < n; i++ {
			l.Decay()
		}
		want := math.Max(p.MinEpsilon, p.InitialEpsilon*math.Pow(p.EpsilonDecay, float64(n)))
		if math.Abs(l.Epsilon()-want) > 1e-12 {
			t.Errorf("epsilon after %d decays = %v, want %v", n, l.Epsilon(), want)
		}
	}
}

func TestResetSeedsDefaultState(t *testing.T) {
	p := testParams(t)
	p.InitialEpsilon = 0
	l := New(p, NewTable(), rand.New(rand.NewSource(1)))
	critical := State{Distance: DistanceCritical, Wall: WallNear, Footing: FootingAir}
	l.table.Get(critical)[components.ActionCenter] = 1

	l.Step(1, critical)
	if l.LastState() != critical || l.LastAction() != components.ActionCenter {
		t.Fatalf("after decision: state %v action %v", l.LastState(), l.LastAction())
	}

	l.Reset()
	if l.LastState() != DefaultState {
		t.Errorf("last state after reset = %v, want %v", l.LastState(), DefaultState)
	}
	if l.LastAction() != components.ActionCenter {
		t.Errorf("last action after reset = %v, want CENTER", l.LastAction())
	}
	if _, decided := l.Step(p.DecisionInterval/2, DefaultState); decided {
		t.Error("decision timer was not restarted")
	}
}
