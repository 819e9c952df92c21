package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bangd/bang"
)

func testRecords() []bang.Record {
	return []bang.Record{
		{Key: "g", Name: "Google", URL: "https://www.google.com/search?q={{{s}}}", Domain: "www.google.com"},
		{Key: "gh", Name: "GitHub", URL: "https://github.com/search?q={{{s}}}", Domain: "github.com"},
		{Key: "yt", Name: "YouTube", URL: "https://www.youtube.com/results?search_query={{{s}}}", Domain: "www.youtube.com"},
	}
}

func newTestModel() Model {
	records := testRecords()
	return New(records, func(q string) (bang.Resolution, error) {
		return bang.Resolve(q, records, "g")
	})
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestEmptyInputListsAll(t *testing.T) {
	m := newTestModel()
	assert.Len(t, m.Results(), 3)
}

func TestTypingReranks(t *testing.T) {
	m := typeText(t, newTestModel(), "gh")
	require.NotEmpty(t, m.Results())
	assert.Equal(t, "gh", m.Results()[0].Record.Key)
}

func TestEnterResolvesSelectedWithRest(t *testing.T) {
	m := typeText(t, newTestModel(), "gh golang/go")
	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)

	res, ok := m.Chosen()
	require.True(t, ok)
	assert.Equal(t, "https://github.com/search?q=golang/go", res.URL)
	assert.Equal(t, bang.OutcomeResolved, res.Outcome)
}

func TestEnterWithExplicitBang(t *testing.T) {
	m := typeText(t, newTestModel(), "!yt cats")
	m, _ = press(t, m, tea.KeyEnter)
	res, ok := m.Chosen()
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/results?search_query=cats", res.URL)
}

func TestCursorMovesSelection(t *testing.T) {
	m := newTestModel()
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyEnter)
	res, ok := m.Chosen()
	require.True(t, ok)
	assert.Equal(t, "gh", res.Record.Key)
	assert.Equal(t, "https://github.com", res.URL)
}

func TestTabCompletes(t *testing.T) {
	m := typeText(t, newTestModel(), "yt")
	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, "!yt ", m.input.Value())
}

func TestResolveErrorIsShown(t *testing.T) {
	m := New(nil, func(string) (bang.Resolution, error) { return bang.Resolution{}, bang.ErrUnresolved })
	m = typeText(t, m, "anything")
	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.True(t, errors.Is(m.err, bang.ErrUnresolved))
	assert.Contains(t, m.View(), bang.ErrUnresolved.Error())
	_, ok := m.Chosen()
	assert.False(t, ok)
}

func TestEscQuits(t *testing.T) {
	_, cmd := press(t, newTestModel(), tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
