package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggle(t *testing.T) {
	tests := []struct {
		name    string
		set     []string
		id      string
		want    []string
		wantDir Direction
	}{
		{"add to empty", nil, "7", []string{"7"}, Added},
		{"add to existing", []string{"1", "2"}, "3", []string{"1", "2", "3"}, Added},
		{"remove only member", []string{"7"}, "7", []string{}, Removed},
		{"remove keeps order", []string{"1", "2", "3"}, "2", []string{"1", "3"}, Removed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := append([]string(nil), tt.set...)
			dir := Toggle(&set, tt.id)
			assert.Equal(t, tt.wantDir, dir)
			assert.ElementsMatch(t, tt.want, set)
		})
	}
}

func TestToggle_TwiceRestoresSet(t *testing.T) {
	sets := [][]string{nil, {"a"}, {"a", "b", "c"}, {"x", "y"}}
	ids := []string{"a", "b", "z"}

	for _, s := range sets {
		for _, id := range ids {
			set := append([]string(nil), s...)
			first := Toggle(&set, id)
			second := Toggle(&set, id)
			assert.NotEqual(t, first, second)
			assert.ElementsMatch(t, s, set, "toggle twice of %q on %v", id, s)
		}
	}
}

func TestToggle_NeverDuplicates(t *testing.T) {
	var set []string
	for i := 0; i < 5; i++ {
		Toggle(&set, "u1")
		Toggle(&set, "u2")
	}
	// odd number of toggles on each: both present exactly once
	assert.Len(t, set, 2)
	assert.True(t, Contains(set, "u1"))
	assert.True(t, Contains(set, "u2"))
}

func TestApply(t *testing.T) {
	set := []string{"1"}

	assert.False(t, Apply(&set, "1", Added))
	assert.Equal(t, []string{"1"}, set)

	assert.True(t, Apply(&set, "2", Added))
	assert.Equal(t, []string{"1", "2"}, set)

	assert.True(t, Apply(&set, "1", Removed))
	assert.Equal(t, []string{"2"}, set)

	assert.False(t, Apply(&set, "9", Removed))
	assert.Equal(t, []string{"2"}, set)
}
