package expert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKnown(t *testing.T) {
	e, err := Get("case_law")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	assert.Equal(t, "Case Law Analyst", e.Name)
	assert.NotEmpty(t, e.Expertise)
	assert.NotEmpty(t, e.Style)
	assert.NotEmpty(t, e.AccentColor)
}

func TestGetCaseInsensitive(t *testing.T) {
	e, err := Get("Constitutional")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	assert.Equal(t, "constitutional", e.ID)
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("maritime")
	if err == nil {
		t.Fatalf("expected error")
	}
	assert.Contains(t, err.Error(), "maritime")
}

func TestIDsSorted(t *testing.T) {
	assert.Equal(t, []string{"case_law", "constitutional", "legal_historian"}, IDs())
}

func TestAllMatchesIDs(t *testing.T) {
	all := All()
	assert.Len(t, all, len(IDs()))
	for i, id := range IDs() {
		assert.Equal(t, id, all[i].ID)
	}
}

func TestDefaultIsRegistered(t *testing.T) {
	_, err := Get(DefaultID)
	assert.NoError(t, err)
}
