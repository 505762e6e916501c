package session

import (
	"testing"

	"deep-research-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsIdentityAndLog(t *testing.T) {
	r := NewRegistry()

	sess := r.Create("impact of rate cuts", "financial")

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "impact of rate cuts", sess.Query)
	assert.Equal(t, "financial", sess.Variant)
	assert.Equal(t, store.StageCreated, sess.Stage)
	require.NotNil(t, sess.Log)
	assert.Zero(t, sess.Log.Len())
}

func TestGetReturnsSameSession(t *testing.T) {
	r := NewRegistry()
	created := r.Create("q", "general")

	got, found := r.Get(created.ID)
	require.True(t, found)
	assert.Same(t, created, got)

	_, found = r.Get("no-such-id")
	assert.False(t, found)
}

func TestDeleteRemovesSession(t *testing.T) {
	r := NewRegistry()
	sess := r.Create("q", "general")

	r.Delete(sess.ID)

	_, found := r.Get(sess.ID)
	assert.False(t, found)
}

func TestSessionsAreIndependent(t *testing.T) {
	r := NewRegistry()
	a := r.Create("first", "general")
	b := r.Create("second", "general")

	require.NotEqual(t, a.ID, b.ID)
	a.Log.Append("starting", "Starting research...", true)
	assert.Zero(t, b.Log.Len())
}
