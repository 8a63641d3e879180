//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
)

func TestCountsString(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   string
	}{
		{
			name:   "empty counts",
			counts: Counts{},
			want:   "{}",
		},
		{
			name:   "sorted keys",
			counts: Counts{"11": 3, "00": 5},
			want:   `{"00":5,"11":3}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.counts.String())
		})
	}
}

func TestCountsTotalAndClone(t *testing.T) {
	c := Counts{"000": 10, "111": 990}
	assert.Equal(t, uint64(1000), c.Total())
	assert.Equal(t, []string{"000", "111"}, c.SortedKeys())

	clone := c.Clone()
	clone["000"] = 0
	assert.Equal(t, uint32(10), c["000"])

	list := CloneCountsList([]Counts{c})
	list[0]["111"] = 1
	assert.Equal(t, uint32(990), c["111"])
}

func TestToPrettyJSON(t *testing.T) {
	got := ToPrettyJSON(map[string]interface{}{"counts": Counts{"1": 2}, "name": "bell"})
	want := heredoc.Doc(`
		{
		  "counts": {
		    "1": 2
		  },
		  "name": "bell"
		}
	`)
	assert.Equal(t, want, got)
}
