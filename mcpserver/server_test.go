package mcpserver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bangd/bang"
	"bangd/registry"
	"bangd/snapshot"
)

func newTestTools(t *testing.T) *tools {
	t.Helper()
	file := snapshot.NewFile(filepath.Join(t.TempDir(), "bangs.json"), nil)
	reg := registry.New(file, "g")
	ctx := context.Background()
	for _, rec := range []bang.Record{
		{Key: "g", Name: "Google", URL: "https://www.google.com/search?q={{{s}}}"},
		{Key: "gh", Name: "GitHub", URL: "https://github.com/search?q={{{s}}}"},
		{Key: "ghi", Name: "GitHub Issues", URL: "https://github.com/issues?q={{{s}}}"},
	} {
		_, err := reg.Add(ctx, rec)
		require.NoError(t, err)
	}
	return &tools{reg: reg}
}

func TestNewRegistersServer(t *testing.T) {
	tl := newTestTools(t)
	assert.NotNil(t, New(tl.reg, "test", nil))
}

func TestResolveBang(t *testing.T) {
	tl := newTestTools(t)
	_, out, err := tl.ResolveBang(context.Background(), nil, ResolveBangInput{Query: "!gh bubbletea"})
	require.NoError(t, err)
	assert.Equal(t, ResolveBangOutput{
		URL:        "https://github.com/search?q=bubbletea",
		Outcome:    "resolved",
		Bang:       "gh",
		Name:       "GitHub",
		CleanQuery: "bubbletea",
	}, out)
}

func TestResolveBangEmpty(t *testing.T) {
	tl := newTestTools(t)
	_, _, err := tl.ResolveBang(context.Background(), nil, ResolveBangInput{Query: ""})
	assert.True(t, errors.Is(err, bang.ErrEmptyQuery))
}

func TestResolveBangUnresolvedSuggests(t *testing.T) {
	tl := newTestTools(t)
	require.NoError(t, tl.reg.SetDefault("gh"))
	gh, _ := tl.reg.Find("gh")
	_, err := tl.reg.Delete(context.Background(), gh.ID)
	require.NoError(t, err)

	_, _, err = tl.ResolveBang(context.Background(), nil, ResolveBangInput{Query: "!gi x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bang.ErrUnresolved))
	assert.Contains(t, err.Error(), "did you mean !g")
}

func TestSearchBangs(t *testing.T) {
	tl := newTestTools(t)
	_, out, err := tl.SearchBangs(context.Background(), nil, SearchBangsInput{Query: "domain:github"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalHits)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "gh", out.Results[0].Key)

	_, out, err = tl.SearchBangs(context.Background(), nil, SearchBangsInput{Query: "gh", MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalHits)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 115, out.Results[0].Score)
}
