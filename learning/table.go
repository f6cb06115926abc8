package learning

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/pursuit/components"
)

// Values holds one action-value per action.
type Values [components.NumActions]float64

// Max returns the largest action-value.
func (v *Values) Max() float64 {
	return floats.Max(v[:])
}

// Best returns the action with the largest value. Ties go to the first
// action in declaration order.
func (v *Values) Best() components.Action {
	return components.Action(floats.MaxIdx(v[:]))
}

// Table maps states to action-values through State.Index. Rows are
// created zero-filled on first access and never reinitialized afterwards.
//
// A Table may be shared by several learners driven from the same tick.
type Table struct {
	rows    [NumStates]*Values
	visited int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Get returns the row for s, creating it if unseen.
// Repeated calls for the same state return the same row.
func (t *Table) Get(s State) *Values {
	i := s.Index()
	if t.rows[i] == nil {
		t.rows[i] = &Values{}
		t.visited++
	}
	return t.rows[i]
}

// Len returns the number of states visited so far.
func (t *Table) Len() int {
	return t.visited
}
