package textutil

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	// Folding strips the combining marks produced by NFKD.
	expected := map[string]string{
		"  Café au Lait ": "cafe au lait",
		"Résumé":          "resume",
		"PLAIN":           "plain",
	}
	for input, want := range expected {
		if got := Fold(input); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestKeywordsDeduplicatesAndDropsNoise(t *testing.T) {
	got := Keywords("Café Shirt, café SHIRT! a")
	want := []string{"cafe", "shirt"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords = %v, want %v", got, want)
	}
}
