package scoring

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		submitted string
		want      Result
	}{
		{
			name:      "one wrong word",
			reference: "the quick brown fox",
			submitted: "the quick brown dog",
			want:      Result{Accuracy: 75, Mistakes: 1, TotalWords: 4, CorrectWords: 3},
		},
		{
			name:      "case insensitive",
			reference: "Hello World",
			submitted: "hello world",
			want:      Result{Accuracy: 100, Mistakes: 0, TotalWords: 2, CorrectWords: 2},
		},
		{
			name:      "empty reference",
			reference: "",
			submitted: "anything at all",
			want:      Result{},
		},
		{
			name:      "whitespace only reference",
			reference: " \t\n ",
			submitted: "x",
			want:      Result{},
		},
		{
			name:      "extra submitted words ignored",
			reference: "one two",
			submitted: "one two three four",
			want:      Result{Accuracy: 100, Mistakes: 0, TotalWords: 2, CorrectWords: 2},
		},
		{
			name:      "short submission counts missing words",
			reference: "one two three",
			submitted: "one",
			want:      Result{Accuracy: 33, Mistakes: 2, TotalWords: 3, CorrectWords: 1},
		},
		{
			name:      "no alignment for shifted words",
			reference: "a b c d",
			submitted: "b c d",
			want:      Result{Accuracy: 0, Mistakes: 4, TotalWords: 4, CorrectWords: 0},
		},
		{
			name:      "punctuation must match exactly",
			reference: "I'm planning a trip.",
			submitted: "im planning a trip",
			want:      Result{Accuracy: 50, Mistakes: 2, TotalWords: 4, CorrectWords: 2},
		},
		{
			name:      "runs of whitespace",
			reference: "two   words",
			submitted: "two\n\nwords",
			want:      Result{Accuracy: 100, Mistakes: 0, TotalWords: 2, CorrectWords: 2},
		},
		{
			name:      "rounds half up",
			reference: "a b c d e f g h",
			submitted: "a x x x x x x x",
			want:      Result{Accuracy: 13, Mistakes: 7, TotalWords: 8, CorrectWords: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.reference, tt.submitted)
			if got != tt.want {
				t.Fatalf("Compare(%q, %q) = %+v, want %+v", tt.reference, tt.submitted, got, tt.want)
			}
		})
	}
}

func TestCompareBounds(t *testing.T) {
	refs := []string{"", "a", "a b", "the quick brown fox jumps", "x y z x y z"}
	subs := []string{"", "a", "b a", "THE QUICK", "x y z x y z extra words here"}
	for _, ref := range refs {
		for _, sub := range subs {
			got := Compare(ref, sub)
			if got.Accuracy < 0 || got.Accuracy > 100 {
				t.Fatalf("accuracy out of range for %q/%q: %d", ref, sub, got.Accuracy)
			}
			if got.Mistakes != got.TotalWords-got.CorrectWords || got.Mistakes < 0 {
				t.Fatalf("mistake invariant broken for %q/%q: %+v", ref, sub, got)
			}
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1, 2); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := Percent(1, 8); got != 13 {
		t.Fatalf("expected 13 (12.5 rounds up), got %d", got)
	}
	if got := Percent(3, 0); got != 0 {
		t.Fatalf("expected 0 for empty whole, got %d", got)
	}
}
