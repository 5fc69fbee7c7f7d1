package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aitool/sleuth/internal/backend"
)

func files(ids ...string) []backend.FileRecord {
	out := make([]backend.FileRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, backend.FileRecord{UUID: id})
	}
	return out
}

func TestSelectionIDsFollowListOrder(t *testing.T) {
	s := NewSelection()
	s.Sync(files("c", "b", "a"))
	s.Toggle("a")
	s.Toggle("c")

	assert.Equal(t, []string{"c", "a"}, s.IDs())
	assert.True(t, s.IsSelected("a"))
	assert.Equal(t, 2, s.Len())

	s.Toggle("c")
	assert.Equal(t, []string{"a"}, s.IDs())
}

func TestSelectionViewerIDs(t *testing.T) {
	s := NewSelection()
	s.Sync(files("a", "b"))
	assert.Nil(t, s.ViewerIDs())

	s.SetActive("b")
	assert.Equal(t, []string{"b"}, s.ViewerIDs())

	s.Toggle("a")
	assert.Equal(t, []string{"a"}, s.ViewerIDs(), "marked files win over the active one")

	s.Clear()
	assert.Equal(t, []string{"b"}, s.ViewerIDs())
}

func TestSelectionSyncDropsVanishedFiles(t *testing.T) {
	s := NewSelection()
	s.Sync(files("a", "b", "c"))
	s.SelectAll()
	s.SetActive("b")

	assert.False(t, s.Sync(files("a", "b", "c", "d")))
	assert.True(t, s.Sync(files("a", "c")))
	assert.Equal(t, []string{"a", "c"}, s.IDs())
	assert.Equal(t, "", s.Active())
	assert.True(t, SameIDs([]string{"a", "c"}, s.IDs()))
}
