package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAssignsIDsAndKeepsOrder(t *testing.T) {
	l := NewLog()

	first := l.Append(KindStarting, "Starting research...", true)
	second := l.Append(KindSearching, "Searching... 1/3 completed", false)

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)

	records, cursor := l.ReadFrom(0)
	assert.Equal(t, 2, cursor)
	assert.Equal(t, KindStarting, records[0].Kind)
	assert.True(t, records[0].Done)
	assert.Equal(t, KindSearching, records[1].Kind)
	assert.False(t, records[1].Done)
}

func TestReadFromIsIdempotent(t *testing.T) {
	l := NewLog()
	l.Append(KindStarting, "Starting research...", true)
	l.Append(KindPlanning, "Will perform 3 searches", true)

	firstRead, cursor := l.ReadFrom(0)
	secondRead, cursorAgain := l.ReadFrom(0)

	assert.Equal(t, firstRead, secondRead)
	assert.Equal(t, cursor, cursorAgain)
}

func TestReadFromCursorOnlyReturnsNewRecords(t *testing.T) {
	l := NewLog()
	l.Append(KindStarting, "Starting research...", true)

	_, cursor := l.ReadFrom(0)
	assert.Equal(t, 1, cursor)

	// Nothing new yet.
	records, cursor := l.ReadFrom(cursor)
	assert.Empty(t, records)
	assert.Equal(t, 1, cursor)

	l.Append(KindPlanning, "Will perform 2 searches", true)
	records, cursor = l.ReadFrom(cursor)
	assert.Len(t, records, 1)
	assert.Equal(t, KindPlanning, records[0].Kind)
	assert.Equal(t, 2, cursor)
}

func TestReadFromClampsOutOfRangeCursors(t *testing.T) {
	l := NewLog()
	l.Append(KindStarting, "Starting research...", true)

	records, cursor := l.ReadFrom(-5)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, cursor)

	records, cursor = l.ReadFrom(99)
	assert.Empty(t, records)
	assert.Equal(t, 1, cursor)
}

func TestAppendAfterCloseIsDropped(t *testing.T) {
	l := NewLog()
	l.Append(KindStarting, "Starting research...", true)
	l.Close()

	assert.True(t, l.Closed())
	assert.Nil(t, l.Append(KindSearching, "Searching... 1/1 completed", false))
	assert.Equal(t, 1, l.Len())
}

func TestNotifierFiresPerAppend(t *testing.T) {
	l := NewLog()

	var seen []UpdateRecord
	l.SetNotifier(func(record UpdateRecord) {
		seen = append(seen, record)
	})

	l.Append(KindStarting, "Starting research...", true)
	l.Append(KindWriting, "Writing outline...", false)
	l.Close()
	l.Append(KindWriting, "dropped", false)

	assert.Len(t, seen, 2)
	assert.Equal(t, "Starting research...", seen[0].Content)
	assert.Equal(t, "Writing outline...", seen[1].Content)
}
