package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsKeepsRepeats(t *testing.T) {
	assert.Equal(t, []string{"1s", "1s", "2s"}, Fields(" 1s,1s, ,2s"))
	assert.Nil(t, Fields(""))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "blank", input: "   ", expected: nil},
		{name: "single", input: "broker:9092", expected: []string{"broker:9092"}},
		{name: "trims entries", input: " a , b ,c", expected: []string{"a", "b", "c"}},
		{name: "drops empties", input: "a,,  ,b", expected: []string{"a", "b"}},
		{name: "drops repeats preserving order", input: "b,a,b,a", expected: []string{"b", "a"}},
		{name: "durations", input: "1s,2s,3s", expected: []string{"1s", "2s", "3s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
