package generator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Keywords
	}{
		{name: "comma string", in: `"air, schools ,, data "`, want: Keywords{"air", "schools", "data"}},
		{name: "list", in: `["air", " ", "data"]`, want: Keywords{"air", "data"}},
		{name: "empty string", in: `""`, want: Keywords{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k Keywords
			require.NoError(t, json.Unmarshal([]byte(tt.in), &k))
			assert.Equal(t, tt.want, k)
		})
	}

	var k Keywords
	assert.Error(t, json.Unmarshal([]byte(`42`), &k))
}

func TestKeywords_String(t *testing.T) {
	assert.Equal(t, "a, b", Keywords{"a", "b"}.String())
	assert.Equal(t, "", Keywords{}.String())
}

func TestGenerationRequest_Normalize(t *testing.T) {
	req := GenerationRequest{
		MeetingTitle: "  briefing ",
		PolicyTitle:  " p ",
		Question:     " q ",
		Keywords:     Keywords{" a ", ""},
	}
	req.Normalize(time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC))

	assert.Equal(t, "briefing", req.MeetingTitle)
	assert.Equal(t, "p", req.PolicyTitle)
	assert.Equal(t, "q", req.Question)
	assert.Equal(t, Keywords{"a"}, req.Keywords)
	assert.Equal(t, "2025-03-04", req.MeetingDate)
	assert.Equal(t, "00:00", req.MeetingTime)
	assert.Equal(t, "20s", req.VideoLength)
	assert.Equal(t, DepthDeep, req.Depth)
	assert.Equal(t, ViewExternal, req.ViewMode)
	assert.NoError(t, req.Validate())
}

func TestGenerationRequest_Validate(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate())

	req = GenerationRequest{MeetingDate: "06/01/2025", MeetingTime: "25:00", Depth: "extreme"}
	err := req.Validate()
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.ElementsMatch(t, []string{"meeting_title", "policy_title", "question"}, ie.Missing)
	assert.ElementsMatch(t, []string{"meeting_date", "meeting_time", "depth"}, ie.Invalid)
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "invalid")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestGenerationRequest_DecodeFromJSON(t *testing.T) {
	body := `{"meeting_title":"m","policy_title":"p","question":"q","keywords":"x, y","video_len":"10s","depth":"very_deep","decisive_mode":true}`
	var req GenerationRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, Keywords{"x", "y"}, req.Keywords)
	assert.Equal(t, DepthVeryDeep, req.Depth)
	assert.True(t, req.DecisiveMode)
	assert.Equal(t, "10s", req.VideoLength)
}
