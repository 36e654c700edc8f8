package content

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  interface{ Validate() error }
		want error
	}{
		{"events_nil_maps", &EventsDocument{}, ErrEventsShape},
		{"events_missing_upcoming", &EventsDocument{PastEvents: map[string]PastEventGroup{}}, ErrEventsShape},
		{"sponsors_nil_list", &SponsorsDocument{}, ErrSponsorsShape},
		{"luminaries_missing_leadership", &LuminariesDocument{Faculty: []TeamMember{}}, ErrLuminariesShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.doc.Validate(), tt.want)
		})
	}
}

func TestValidate_AcceptsEmptyButShapedDocuments(t *testing.T) {
	events := &EventsDocument{
		PastEvents:     map[string]PastEventGroup{},
		UpcomingEvents: []UpcomingEvent{},
	}
	assert.NoError(t, events.Validate())

	sponsors := &SponsorsDocument{Sponsors: []Sponsor{}}
	assert.NoError(t, sponsors.Validate())

	luminaries := &LuminariesDocument{Faculty: []TeamMember{}, Leadership: []TeamMember{}}
	assert.NoError(t, luminaries.Validate())
}

func TestTouch_StampsEpochMillis(t *testing.T) {
	doc := &SponsorsDocument{Sponsors: []Sponsor{}}
	before := time.Now().UnixMilli()
	doc.Touch()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, doc.Version(), before)
	assert.LessOrEqual(t, doc.Version(), after)
}

func TestDefaults_AreValidAndStamped(t *testing.T) {
	assert.NoError(t, DefaultEvents().Validate())
	assert.NoError(t, DefaultSponsors().Validate())
	assert.NoError(t, DefaultLuminaries().Validate())

	assert.Positive(t, DefaultEvents().Version())
	assert.Positive(t, DefaultSponsors().Version())
	assert.Positive(t, DefaultLuminaries().Version())
}

func TestEventsDocument_JSONShape(t *testing.T) {
	doc := DefaultEvents()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "pastEvents")
	assert.Contains(t, decoded, "upcomingEvents")
	assert.Contains(t, decoded, "lastModified")

	var roundTrip EventsDocument
	require.NoError(t, json.Unmarshal(raw, &roundTrip))
	assert.NoError(t, roundTrip.Validate())
	assert.Equal(t, doc.Version(), roundTrip.Version())
}
