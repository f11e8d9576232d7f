package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/internal/airlines"
	"github.com/virtualatc/atc-engine/internal/callsign"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

func newTestPipeline(t *testing.T) (*Pipeline, callsign.Resolved) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	resolver := callsign.NewResolver(airlines.NewDirectory(log), log)
	return NewPipeline(log), resolver.Resolve("EZY113")
}

func TestNormalizeStages(t *testing.T) {
	p, cs := newTestPipeline(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"stt confusions",
			"rodger, squack fower fife niner tree",
			"roger, squawk 4593",
		},
		{
			"spoken numbers after keywords",
			"easy one one three on stand two four requesting push",
			"Easy 113 on stand 24 requesting push",
		},
		{
			"unrelated numerals stay words",
			"we have two souls on board and one bag",
			"we have two souls on board and one bag",
		},
		{
			"afr becomes ifr",
			"easy 113 requesting afr clearance",
			"Easy 113 requesting IFR clearance",
		},
		{
			"afr callsign untouched",
			"traffic is AFR 1234 on final",
			"traffic is AFR 1234 on final",
		},
		{
			"near-miss airline code repaired",
			"esy 113 ready to copy",
			"Easy 113 ready to copy",
		},
		{
			"callsign variants collapse",
			"ezy113 uh this is easyjet 113",
			"Easy 113 uh this is Easy 113",
		},
		{
			"spaced icao joins",
			"cleared to e g k k as filed",
			"cleared to EGKK as filed",
		},
		{
			"then is filed",
			"then is filed, climb 5000",
			"then as filed, climb 5000",
		},
		{
			"flight level words",
			"climbing flight level three five zero",
			"climbing FL350",
		},
		{
			"flight level below band stays",
			"maintain flight level 90",
			"maintain flight level 90",
		},
		{
			"bare thousands in band",
			"climb 35,000",
			"climb FL350",
		},
		{
			"low altitude stays feet",
			"climb 5000",
			"climb 5000",
		},
		{
			"runway side normalized",
			"runway tree tree left",
			"runway 33L",
		},
		{
			"runway padded",
			"runway 6 cleared for takeoff",
			"runway 06 cleared for takeoff",
		},
		{
			"spaced squawk digits",
			"squawk 4 4 0 6",
			"squawk 4406",
		},
		{
			"radio check typos",
			"radial checking please",
			"radio checking please",
		},
		{
			"whitespace collapsed",
			"  easy   113   with  you  ",
			"Easy 113 with you",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Normalize(tt.in, cs))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	p, cs := newTestPipeline(t)

	inputs := []string{
		"rodger, squack fower fife niner tree",
		"easy one one three on stand two four requesting afr clearance",
		"cleared to e g k k, then is filed, flight level three five zero",
		"runway tree tree left, squawk 4 4 0 6, radial check",
		"ezy113 climbing 35,000",
		"completely unrelated chatter that must not change",
	}

	for _, in := range inputs {
		once := p.Normalize(in, cs)
		twice := p.Normalize(once, cs)
		assert.Equal(t, once, twice, "pipeline not idempotent for %q", in)
	}
}

func TestNormalizeWithoutCallsign(t *testing.T) {
	p, _ := newTestPipeline(t)

	// A zero callsign disables airline scoping but generic keywords work.
	out := p.Normalize("squawk four four zero six", callsign.Resolved{})
	assert.Equal(t, "squawk 4406", out)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("EZY", "EZY"))
	assert.Equal(t, 1, levenshtein("ESY", "EZY"))
	assert.Equal(t, 1, levenshtein("EZ", "EZY"))
	assert.Equal(t, 2, levenshtein("EASY", "EZY"))
	assert.Equal(t, 3, levenshtein("", "EZY"))
}
