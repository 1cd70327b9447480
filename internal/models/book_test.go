package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"Machado de Assis", "Clarice Lispector"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Machado de Assis","Clarice Lispector"]`, v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	assert.Error(t, l.Scan(42))
}

func TestFriendRequestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, FriendRequestStatusPending.CanTransitionTo(FriendRequestStatusAccepted))
	assert.False(t, FriendRequestStatusAccepted.CanTransitionTo(FriendRequestStatusPending))
	assert.False(t, FriendRequestStatusAccepted.CanTransitionTo(FriendRequestStatusAccepted))
	assert.False(t, FriendRequestStatus("rejected").Valid())
	assert.True(t, FriendRequestStatusPending.Valid())
}
