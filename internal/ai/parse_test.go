package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantScore  int
		wantReason string
		wantErr    bool
	}{
		{
			name:       "well-formed response",
			raw:        "8|Critical bug report affecting payment",
			wantScore:  8,
			wantReason: "Critical bug report affecting payment",
		},
		{
			name:       "whitespace around parts",
			raw:        "  7 |  checkout is down  ",
			wantScore:  7,
			wantReason: "checkout is down",
		},
		{
			name:       "missing separator falls back to first token",
			raw:        "9 urgent outage",
			wantScore:  9,
			wantReason: "No reason provided",
		},
		{
			name:       "score above range clamps to ten",
			raw:        "15|over-enthusiastic model",
			wantScore:  10,
			wantReason: "over-enthusiastic model",
		},
		{
			name:       "negative score clamps to zero",
			raw:        "-3|confused model",
			wantScore:  0,
			wantReason: "confused model",
		},
		{
			name:    "non-numeric score is an error",
			raw:     "high|sounds bad",
			wantErr: true,
		},
		{
			name:    "empty response is an error",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reason, err := ParseScore(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain json untouched",
			in:   `{"type":"bug"}`,
			want: `{"type":"bug"}`,
		},
		{
			name: "json fence stripped",
			in:   "```json\n{\"type\":\"bug\"}\n```",
			want: `{"type":"bug"}`,
		},
		{
			name: "bare fence stripped",
			in:   "```\n{\"type\":\"bug\"}\n```",
			want: `{"type":"bug"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}
