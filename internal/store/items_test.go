package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/thoughtgraph/internal/graph"
)

func TestCreateItem(t *testing.T) {
	db := testDB(t)

	it := &Item{Kind: graph.KindThought, Title: "On patience", Tags: []string{"virtue", " virtue ", "", "time"}}
	require.NoError(t, db.CreateItem(it))

	assert.NotEmpty(t, it.ID, "empty id is filled with a uuid")
	assert.False(t, it.CreatedAt.IsZero())
	assert.Equal(t, []string{"virtue", "time"}, it.Tags)

	got, err := db.GetItem(it.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "On patience", got.Title)
	assert.Equal(t, graph.KindThought, got.Kind)
	assert.Equal(t, []string{"virtue", "time"}, got.Tags)
	assert.True(t, it.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateItemInvalid(t *testing.T) {
	db := testDB(t)

	cases := map[string]*Item{
		"unknown kind":  {ID: "x", Kind: "Essay"},
		"missing kind":  {ID: "x"},
		"negative size": {ID: "x", Kind: graph.KindQuote, Size: ptr(-2)},
		"own parent":    {ID: "x", Kind: graph.KindTopic, ParentID: "x"},
	}
	for name, it := range cases {
		t.Run(name, func(t *testing.T) {
			err := db.CreateItem(it)
			assert.True(t, errors.Is(err, ErrInvalidItem), "got %v", err)
		})
	}
}

func TestCreateItemUnknownParent(t *testing.T) {
	db := testDB(t)
	err := db.CreateItem(&Item{ID: "child", Kind: graph.KindTopic, ParentID: "nobody"})
	require.Error(t, err)

	got, err := db.GetItem("child")
	require.NoError(t, err)
	assert.Nil(t, got, "failed create is rolled back")
}

func TestGetItemNotFound(t *testing.T) {
	db := testDB(t)
	got, err := db.GetItem("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListItemsPaging(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.CreateItem(&Item{ID: fmt.Sprintf("q%d", i), Kind: graph.KindQuote, Title: fmt.Sprint(i)}))
	}
	require.NoError(t, db.CreateItem(&Item{ID: "t0", Kind: graph.KindTopic}))

	p, err := db.ListItems(graph.KindQuote, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Count)
	assert.Len(t, p.Results, 2)
	assert.True(t, p.HasNext)

	p, err = db.ListItems(graph.KindQuote, 3, 2)
	require.NoError(t, err)
	assert.Len(t, p.Results, 1)
	assert.False(t, p.HasNext)

	p, err = db.ListItems("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Count)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	p, err = db.ListItems(graph.KindPassage, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.NotNil(t, p.Results)
	assert.Empty(t, p.Results)
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.CreateItem(&Item{ID: "a", Kind: graph.KindQuote, Title: "Meditations", Author: "Marcus Aurelius"}))
	require.NoError(t, db.CreateItem(&Item{ID: "b", Kind: graph.KindThought, Content: "100% certain", Tags: []string{"doubt"}}))
	require.NoError(t, db.CreateItem(&Item{ID: "c", Kind: graph.KindThought, Title: "Unrelated"}))

	ids := func(items []Item) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	got, err := db.Search("aurelius", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))

	got, err = db.Search("doub", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got), "tags are searched")

	got, err = db.Search("%", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got), "wildcards are literal")

	got, err = db.Search("   ", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTags(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.CreateItem(&Item{ID: "a", Kind: graph.KindThought, Tags: []string{"ethics", "logic"}}))
	require.NoError(t, db.CreateItem(&Item{ID: "b", Kind: graph.KindQuote, Tags: []string{"ethics"}}))

	tags, err := db.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{"ethics", 2}, {"logic", 1}}, tags)

	items, err := db.ItemsByTag("ethics")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = db.ItemsByTag("nothing")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func ptr(f float64) *float64 { return &f }
