package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestStoryPayload_Validate(t *testing.T) {
	valid := StoryPayload{
		Description: "Trip to the lake",
		Photo:       []byte{0xFF, 0xD8},
		PhotoName:   "story.jpg",
	}

	tests := []struct {
		name    string
		mutate  func(p *StoryPayload)
		wantErr error
	}{
		{name: "valid without location", mutate: func(p *StoryPayload) {}},
		{name: "valid with location", mutate: func(p *StoryPayload) {
			p.Latitude, p.Longitude = ptr(-6.2), ptr(106.8)
		}},
		{name: "empty description", mutate: func(p *StoryPayload) {
			p.Description = "   "
		}, wantErr: ErrEmptyDescription},
		{name: "description too long", mutate: func(p *StoryPayload) {
			p.Description = strings.Repeat("x", MaxDescriptionLen+1)
		}, wantErr: ErrDescriptionTooLong},
		{name: "missing photo", mutate: func(p *StoryPayload) {
			p.Photo = nil
		}, wantErr: ErrMissingPhoto},
		{name: "latitude only", mutate: func(p *StoryPayload) {
			p.Latitude = ptr(-6.2)
		}, wantErr: ErrPartialLocation},
		{name: "longitude only", mutate: func(p *StoryPayload) {
			p.Longitude = ptr(106.8)
		}, wantErr: ErrPartialLocation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStory_HasLocation(t *testing.T) {
	s := Story{ID: "1"}
	assert.False(t, s.HasLocation())

	s.Latitude = ptr(1)
	assert.False(t, s.HasLocation(), "one coordinate is not a location")
	require.ErrorIs(t, s.Validate(), ErrPartialLocation)

	s.Longitude = ptr(2)
	assert.True(t, s.HasLocation())
	require.NoError(t, s.Validate())
}

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Now()
	e := CacheEntry{Key: "k", Expiry: now.Add(time.Minute)}
	assert.False(t, e.Expired(now))
	assert.True(t, e.Expired(now.Add(2*time.Minute)))
}
