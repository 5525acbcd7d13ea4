package selector

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []Candidate {
	return []Candidate{
		{ID: "model.p.stg_orders", Name: "stg_orders"},
		{ID: "model.p.fct_orders", Name: "fct_orders", Documented: true},
		{ID: "model.p.dim_customers", Name: "dim_customers"},
	}
}

func TestAll(t *testing.T) {
	ids, err := All()(candidates())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"model.p.dim_customers",
		"model.p.fct_orders",
		"model.p.stg_orders",
	}, ids, "ids come back sorted regardless of candidate order")
}

func TestFixed(t *testing.T) {
	ids, err := Fixed("stg_orders", "dim_customers")(candidates())
	require.NoError(t, err)
	assert.Equal(t, []string{"model.p.dim_customers", "model.p.stg_orders"}, ids)
}

func TestFixed_UnknownNamesIgnored(t *testing.T) {
	ids, err := Fixed("no_such_model")(candidates())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func step(t *testing.T, m pickerModel, keys ...string) pickerModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyPress(k))
		m = next.(pickerModel)
	}
	return m
}

func TestPicker_ToggleAndConfirm(t *testing.T) {
	m := pickerModel{candidates: candidates(), checked: make(map[int]bool)}

	m = step(t, m, " ", "j", "j", " ", "enter")

	assert.True(t, m.confirmed)
	assert.False(t, m.aborted)
	assert.True(t, m.checked[0])
	assert.False(t, m.checked[1])
	assert.True(t, m.checked[2])
}

func TestPicker_CursorBounds(t *testing.T) {
	m := pickerModel{candidates: candidates(), checked: make(map[int]bool)}

	m = step(t, m, "k", "k")
	assert.Zero(t, m.cursor)

	m = step(t, m, "j", "j", "j", "j")
	assert.Equal(t, 2, m.cursor)
}

func TestPicker_ToggleTwiceUnchecks(t *testing.T) {
	m := pickerModel{candidates: candidates(), checked: make(map[int]bool)}

	m = step(t, m, " ", " ")
	assert.False(t, m.checked[0])
}

func TestPicker_Abort(t *testing.T) {
	m := pickerModel{candidates: candidates(), checked: make(map[int]bool)}

	m = step(t, m, " ", "esc")
	assert.True(t, m.aborted)
	assert.False(t, m.confirmed)
}

func TestPicker_View(t *testing.T) {
	m := pickerModel{candidates: candidates(), checked: map[int]bool{0: true}}

	view := m.View()
	assert.Contains(t, view, "Select the models you want to document:")
	assert.Contains(t, view, "model.p.stg_orders")
	assert.Contains(t, view, "(documented)")
	assert.Contains(t, view, "[x]")
	assert.Contains(t, view, "space: toggle, enter: confirm, q: abort")
}

func TestInteractive_EmptyCandidates(t *testing.T) {
	ids, err := Interactive()(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
