package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	s := New(time.Minute)

	code, err := s.Issue("maria@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	assert.True(t, s.Verify("maria@example.com", code))
	// Address lookup is case-insensitive.
	assert.True(t, s.Verify("MARIA@example.com", code))
	assert.False(t, s.Verify("maria@example.com", "000000x"))
	assert.False(t, s.Verify("otra@example.com", code))
	assert.False(t, s.Verify("maria@example.com", ""))
}

func TestVerifyDoesNotConsume(t *testing.T) {
	s := New(time.Minute)
	code, err := s.Issue("maria@example.com")
	require.NoError(t, err)

	assert.True(t, s.Verify("maria@example.com", code))
	assert.True(t, s.Verify("maria@example.com", code))
}

func TestConsumeIsSingleUse(t *testing.T) {
	s := New(time.Minute)
	code, err := s.Issue("maria@example.com")
	require.NoError(t, err)

	assert.True(t, s.Consume("maria@example.com", code))
	assert.False(t, s.Consume("maria@example.com", code))
	assert.False(t, s.Verify("maria@example.com", code))
}

func TestReissueReplacesCode(t *testing.T) {
	s := New(time.Minute)
	primero, err := s.Issue("maria@example.com")
	require.NoError(t, err)
	segundo, err := s.Issue("maria@example.com")
	require.NoError(t, err)

	if primero != segundo {
		assert.False(t, s.Verify("maria@example.com", primero))
	}
	assert.True(t, s.Verify("maria@example.com", segundo))
}

func TestCodesExpire(t *testing.T) {
	s := New(20 * time.Millisecond)
	code, err := s.Issue("maria@example.com")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, s.Verify("maria@example.com", code))
}
