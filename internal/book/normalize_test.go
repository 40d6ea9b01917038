package book

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lower case", input: "The Hobbit", want: "the+hobbit"},
		{name: "apostrophe", input: "Harry Potter and the Philosopher's Stone", want: "harry+potter+and+the+philosophers+stone"},
		{name: "mojibake quote", input: "Swann" + mojibakeQuote + "s Way", want: "swanns+way"},
		{name: "nested mojibake", input: "a" + "â" + mojibakeQuote + "€™b", want: "ab"},
		{name: "multiple spaces", input: "A  B", want: "a++b"},
		{name: "no escaping", input: "Cats & Dogs #1", want: "cats+&+dogs+#1"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The Hobbit",
		"Don't Panic",
		"L'Étranger",
		"It" + mojibakeQuote + "s",
		"ââ€™€™",
		"  leading and trailing  ",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestIdentityKey(t *testing.T) {
	a := Identity{Title: "The Hobbit", Author: "J.R.R. Tolkien"}
	b := Identity{Title: "the hobbit", Author: "J.R.R. TOLKIEN"}
	c := Identity{Title: "Mrs Dalloway", Author: "Virginia Woolf"}
	d := Identity{Title: "Mrs' Dalloway", Author: "Virginia Woolf"}

	assert.Equal(t, "title=the+hobbit&author=j.r.r.+tolkien", a.Key())
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, c.Key(), d.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
