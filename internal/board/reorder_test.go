package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func to(stage string, index int) *Location {
	return &Location{Stage: stage, Index: index}
}

func TestReorder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input map[string][]int
		move  Move
		want  map[string][]int
	}{
		{
			name:  "within stage forward",
			input: map[string][]int{"A": {1, 2, 3}},
			move:  Move{Source: Location{"A", 0}, Destination: to("A", 1)},
			want:  map[string][]int{"A": {2, 1, 3}},
		},
		{
			name:  "within stage to end",
			input: map[string][]int{"A": {1, 2, 3}},
			move:  Move{Source: Location{"A", 0}, Destination: to("A", 2)},
			want:  map[string][]int{"A": {2, 3, 1}},
		},
		{
			name:  "within stage backward",
			input: map[string][]int{"A": {1, 2, 3}},
			move:  Move{Source: Location{"A", 2}, Destination: to("A", 0)},
			want:  map[string][]int{"A": {3, 1, 2}},
		},
		{
			name:  "same slot",
			input: map[string][]int{"A": {1, 2, 3}},
			move:  Move{Source: Location{"A", 1}, Destination: to("A", 1)},
			want:  map[string][]int{"A": {1, 2, 3}},
		},
		{
			name:  "across stages into empty",
			input: map[string][]int{"A": {1, 2, 3}, "B": {}},
			move:  Move{Source: Location{"A", 0}, Destination: to("B", 0)},
			want:  map[string][]int{"A": {2, 3}, "B": {1}},
		},
		{
			name:  "across stages append",
			input: map[string][]int{"A": {1}, "B": {7, 8}, "C": {9}},
			move:  Move{Source: Location{"A", 0}, Destination: to("B", 2)},
			want:  map[string][]int{"A": {}, "B": {7, 8, 1}, "C": {9}},
		},
		{
			name:  "dropped outside",
			input: map[string][]int{"A": {1, 2, 3}},
			move:  Move{Source: Location{"A", 0}},
			want:  map[string][]int{"A": {1, 2, 3}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Reorder(tc.input, tc.move)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReorder_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := map[string][]int{"A": {1, 2, 3}, "B": {4}}
	_, err := Reorder(input, Move{Source: Location{"A", 0}, Destination: to("B", 1)})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"A": {1, 2, 3}, "B": {4}}, input)
}

func TestReorder_ConservesCards(t *testing.T) {
	t.Parallel()

	input := map[string][]int{"A": {1, 2, 3}, "B": {4, 5}}
	got, err := Reorder(input, Move{Source: Location{"B", 1}, Destination: to("A", 1)})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, append(append([]int{}, got["A"]...), got["B"]...))
	assert.Equal(t, []int{1, 5, 2, 3}, got["A"])
	assert.Equal(t, []int{4}, got["B"])
}

func TestReorder_Errors(t *testing.T) {
	t.Parallel()

	input := map[string][]int{"A": {1, 2, 3}, "B": {4}}
	tests := []struct {
		name string
		move Move
		want error
	}{
		{"unknown source", Move{Source: Location{"X", 0}, Destination: to("A", 0)}, ErrUnknownStage},
		{"unknown destination", Move{Source: Location{"A", 0}, Destination: to("X", 0)}, ErrUnknownStage},
		{"source past end", Move{Source: Location{"A", 3}, Destination: to("A", 0)}, ErrIndexOutOfRange},
		{"negative source", Move{Source: Location{"A", -1}, Destination: to("A", 0)}, ErrIndexOutOfRange},
		{"same stage past end", Move{Source: Location{"A", 0}, Destination: to("A", 3)}, ErrIndexOutOfRange},
		{"cross stage past end", Move{Source: Location{"A", 0}, Destination: to("B", 2)}, ErrIndexOutOfRange},
		{"negative destination", Move{Source: Location{"A", 0}, Destination: to("B", -1)}, ErrIndexOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Reorder(input, tc.move)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
