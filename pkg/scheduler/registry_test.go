package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ExecContext, []string) error { return nil }

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("unmute-job", noopHandler))
	require.NoError(t, r.Register("reminder", noopHandler))

	assert.Error(t, r.Register("unmute-job", noopHandler), "duplicate name accepted")
	assert.Error(t, r.Register("", noopHandler), "empty name accepted")
	assert.Error(t, r.Register("nil-job", nil), "nil handler accepted")

	_, ok := r.Lookup("unmute-job")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"reminder", "unmute-job"}, r.Names())
}

func TestRegistrySeal(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("unban-job", noopHandler)
	r.Seal()

	assert.Error(t, r.Register("late-job", noopHandler))
	assert.Panics(t, func() { r.MustRegister("late-job", noopHandler) })

	_, ok := r.Lookup("unban-job")
	assert.True(t, ok, "sealed registry must still resolve")
}

func TestNewSealsRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("send-message", noopHandler)
	New(NewMemoryStore(), r, Options{})

	assert.Error(t, r.Register("after-start", noopHandler))
}
