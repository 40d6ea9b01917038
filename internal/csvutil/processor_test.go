package csvutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lepinkainen/openshelf/internal/testutil"
)

type person struct {
	Name string
	City string
	Line int
}

func personParser(h Header, rec Record) (person, error) {
	nameIdx, ok := h.Index("name")
	if !ok {
		return person{}, fmt.Errorf("no name column")
	}
	cityIdx, _ := h.Index("city")
	if len(rec.Fields) <= cityIdx {
		return person{}, fmt.Errorf("short record")
	}
	return person{Name: rec.Fields[nameIdx], City: rec.Fields[cityIdx], Line: rec.Line}, nil
}

func TestProcessCSV(t *testing.T) {
	env := testutil.NewTestEnv(t)
	csvPath := env.WriteFileString("test.csv", "Name,Age,City\nAlice,30,NYC\nBob,25,LA\n")

	people, err := ProcessCSV(csvPath, personParser, ProcessorOptions{HasHeader: true})
	if err != nil {
		t.Fatalf("ProcessCSV() error = %v", err)
	}

	expected := []person{
		{Name: "Alice", City: "NYC", Line: 2},
		{Name: "Bob", City: "LA", Line: 3},
	}
	if len(people) != len(expected) {
		t.Fatalf("expected %d people, got %d", len(expected), len(people))
	}
	for i, p := range people {
		if p != expected[i] {
			t.Errorf("people[%d] = %v, want %v", i, p, expected[i])
		}
	}
}

func TestProcessCSV_Delimiter(t *testing.T) {
	input := "name;city\n\"Smith; Jr\";Oslo\n"

	people, err := ProcessReader(strings.NewReader(input), personParser, ProcessorOptions{Comma: ';', HasHeader: true})
	if err != nil {
		t.Fatalf("ProcessReader() error = %v", err)
	}
	if len(people) != 1 || people[0].Name != "Smith; Jr" || people[0].City != "Oslo" {
		t.Errorf("unexpected result %+v", people)
	}
}

func TestProcessCSV_DetectHeader(t *testing.T) {
	detect := func(first []string) bool { return len(first) > 0 && first[0] == "title" }
	parser := func(h Header, rec Record) (string, error) { return rec.Fields[0], nil }

	withHeader, err := ProcessReader(strings.NewReader("title\nDune\n"), parser, ProcessorOptions{DetectHeader: detect})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(withHeader) != 1 || withHeader[0] != "Dune" {
		t.Errorf("with header = %v", withHeader)
	}

	without, err := ProcessReader(strings.NewReader("Dune\nEmma\n"), parser, ProcessorOptions{DetectHeader: detect})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(without) != 2 {
		t.Errorf("without header = %v", without)
	}
}

func TestProcessCSV_SkipInvalid(t *testing.T) {
	input := "name,city\nAlice\nBob,LA\n"

	people, err := ProcessReader(strings.NewReader(input), personParser, ProcessorOptions{HasHeader: true, SkipInvalid: true})
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(people) != 1 || people[0].Name != "Bob" {
		t.Errorf("unexpected result %+v", people)
	}

	_, err = ProcessReader(strings.NewReader(input), personParser, ProcessorOptions{HasHeader: true})
	if err == nil {
		t.Error("expected error for invalid record")
	}
}

func TestProcessCSV_EmptyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	csvPath := env.WriteFileString("empty.csv", "")

	if _, err := ProcessCSV(csvPath, personParser, ProcessorOptions{HasHeader: true}); err == nil {
		t.Error("expected error for empty file with required header")
	}
}

func TestProcessCSV_FileNotFound(t *testing.T) {
	if _, err := ProcessCSV("/nonexistent/file.csv", personParser, ProcessorOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHeaderIndex(t *testing.T) {
	h := NewHeader([]string{"\ufeffTitle", " Author ", "title"})

	if i, ok := h.Index("TITLE"); !ok || i != 0 {
		t.Errorf("Index(TITLE) = %d, %v", i, ok)
	}
	if i, ok := h.Index("author"); !ok || i != 1 {
		t.Errorf("Index(author) = %d, %v", i, ok)
	}
	if _, ok := h.Index("missing"); ok {
		t.Error("Index(missing) should be false")
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: ','},
		{in: ";", want: ';'},
		{in: "|", want: '|'},
		{in: `\t`, want: '\t'},
		{in: "tab", want: '\t'},
		{in: ";;", wantErr: true},
		{in: `"`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDelimiter(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestProcessCSV_ValidateHeader(t *testing.T) {
	requireName := func(h Header) error {
		if _, ok := h.Index("name"); !ok {
			return fmt.Errorf("no name column")
		}
		return nil
	}
	calls := 0
	countingParser := func(h Header, rec Record) (person, error) {
		calls++
		return personParser(h, rec)
	}

	for _, input := range []string{"who,city\n", "who,city\nAlice,NYC\n"} {
		_, err := ProcessReader(strings.NewReader(input), countingParser, ProcessorOptions{
			HasHeader:      true,
			ValidateHeader: requireName,
			SkipInvalid:    true,
		})
		if err == nil {
			t.Errorf("expected header error for %q", input)
		}
	}
	if calls != 0 {
		t.Errorf("parser called %d times after header was rejected", calls)
	}

	people, err := ProcessReader(strings.NewReader("name,city\nAlice,NYC\n"), personParser, ProcessorOptions{
		HasHeader:      true,
		ValidateHeader: requireName,
	})
	if err != nil || len(people) != 1 {
		t.Errorf("valid header: people = %v, err = %v", people, err)
	}
}
