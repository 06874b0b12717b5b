package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestDocument() *Document {
	return &Document{
		ID:           "0b5e2a8c-1111-2222-3333-444455556666",
		Kind:         KindRaw,
		ExperienceID: "exp-1",
		Data: map[string]any{
			"commercial": map[string]any{"title": "Old"},
		},
		Fields: map[string]Field{
			"title": {Value: "Old", Required: true, Category: "commercial"},
		},
		StatusCode: StatusUpToDate,
	}
}

func TestSetField_MarksModified(t *testing.T) {
	d := newTestDocument()
	require.NoError(t, d.SetField("title", "New", testNow))
	assert.True(t, d.Modified)
	assert.Equal(t, "New", d.FieldValue("title"))
	assert.Equal(t, testNow, d.UpdatedAt)
	assert.True(t, d.Fields["title"].Required, "metadata should survive value updates")
}

func TestSetField_UnknownField(t *testing.T) {
	d := newTestDocument()
	err := d.SetField("nope", "x", testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.False(t, d.Modified)
}

func TestSetField_DoesNotTouchData(t *testing.T) {
	d := newTestDocument()
	require.NoError(t, d.SetField("title", "New", testNow))
	assert.Equal(t, "Old", d.Data["commercial"].(map[string]any)["title"])
}

func TestApplySaved(t *testing.T) {
	d := newTestDocument()
	d.Modified = true
	saved := map[string]any{"commercial": map[string]any{"title": "New"}}

	d.ApplySaved(saved, StatusInReview, testNow)

	assert.False(t, d.Modified)
	assert.Equal(t, StatusInReview, d.StatusCode)
	assert.Equal(t, saved, d.Data)
}

func TestApplySaved_EmptyStatusKeepsCurrent(t *testing.T) {
	d := newTestDocument()
	d.ApplySaved(d.Data, "", testNow)
	assert.Equal(t, StatusUpToDate, d.StatusCode)
}

func TestClone_IsDeep(t *testing.T) {
	d := newTestDocument()
	c, err := d.Clone()
	require.NoError(t, err)

	c.Data["commercial"].(map[string]any)["title"] = "Changed"
	require.NoError(t, c.SetField("title", "Changed", testNow))

	assert.Equal(t, "Old", d.Data["commercial"].(map[string]any)["title"])
	assert.Equal(t, "Old", d.FieldValue("title"))
	assert.False(t, d.Modified)
}

func TestDisplayID(t *testing.T) {
	d := newTestDocument()
	assert.Equal(t, "0b5e2a8c", d.DisplayID())
	d.ID = "abc"
	assert.Equal(t, "abc", d.DisplayID())
}
