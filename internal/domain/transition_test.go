package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		current StatusCode
		event   Event
		next    StatusCode
		changed bool
	}{
		{StatusInCreation, EventPublish, StatusSentToReview, true},
		{StatusInCreation, EventEdit, StatusInCreation, false},
		{StatusUpToDate, EventEdit, StatusInReview, true},
		{StatusSentToReview, EventEdit, StatusInReview, true},
		{StatusInReview, EventEdit, StatusInReview, false},
		{StatusReady, EventEdit, StatusReady, false},
		{StatusUpToDate, EventPublish, StatusUpToDate, false},
		{StatusInReview, EventPublish, StatusInReview, false},
	}
	for _, tc := range cases {
		next, changed := NextStatus(tc.current, tc.event)
		assert.Equal(t, tc.next, next, "%s --%s-->", tc.current, tc.event)
		assert.Equal(t, tc.changed, changed, "%s --%s-->", tc.current, tc.event)
	}
}

func TestCanPublish_OnlyFromInCreation(t *testing.T) {
	require.NoError(t, CanPublish(StatusInCreation))

	err := CanPublish(StatusInReview)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "IN_REVIEW")
}

func TestKindForFlow(t *testing.T) {
	assert.Equal(t, KindRaw, KindForFlow(FlowBase))
	assert.Equal(t, KindRaw, KindForFlow(FlowCuration))
	assert.Equal(t, KindTranslation, KindForFlow(FlowManualTranslation))
	assert.Equal(t, KindTranslation, KindForFlow(FlowAutoTranslation))
	assert.Equal(t, KindMedia, KindForFlow(FlowMedia))
}
