package vectorstore

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedderIsDeterministicAndNormalized(t *testing.T) {
	e := NewHashEmbedder(64)

	first, err := e.Embed(context.Background(), []string{"Go, Kubernetes", ""})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, _ := e.Embed(context.Background(), []string{"go kubernetes"})

	if len(first) != 2 || len(first[0]) != 64 {
		t.Fatalf("unexpected shape: %d vectors", len(first))
	}

	var norm float64
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatalf("expected case and punctuation insensitive vectors")
		}
		norm += float64(first[0][i]) * float64(first[0][i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit vector, got norm %v", norm)
	}

	for _, x := range first[1] {
		if x != 0 {
			t.Fatalf("expected zero vector for empty text")
		}
	}
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e := NewHashEmbedder(0)
	vectors, _ := e.Embed(context.Background(), []string{
		"Kotlin, Android",
		"Kotlin, Android, Firebase",
		"WordPress, PHP, MySQL",
	})

	near := dot(vectors[0], vectors[1])
	far := dot(vectors[0], vectors[2])
	if near <= far {
		t.Fatalf("expected overlapping stacks to be closer: near=%v far=%v", near, far)
	}
}

// dot equals cosine similarity for the unit vectors the embedder returns.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestTokenize(t *testing.T) {
	got := tokenize("C++, C#, Node.js & .NET")
	want := []string{"c++", "c#", "node", "js", "net"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
