package profile

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
)

func TestSaturatingAdd(t *testing.T) {
	tests := []struct {
		a, b, want uint64
	}{
		{0, 0, 0},
		{1, 2, 3},
		{math.MaxUint64, 0, math.MaxUint64},
		{math.MaxUint64, 1, math.MaxUint64},
		{math.MaxUint64 - 1, 1, math.MaxUint64},
		{math.MaxUint64 / 2, math.MaxUint64/2 + 10, math.MaxUint64},
		{math.MaxUint64, math.MaxUint64, math.MaxUint64},
	}
	for _, tt := range tests {
		got := SaturatingAdd(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("SaturatingAdd(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got < tt.a || got < tt.b {
			t.Errorf("SaturatingAdd(%d, %d) = %d is smaller than an input", tt.a, tt.b, got)
		}
	}
}

func TestProfileAdd(t *testing.T) {
	p := New()
	p.Add("a", "b", 10)
	p.Add("b", "c", 5)
	p.Add("a", "b", 7)
	p.Add("x", "y", 0)

	if p.Len() != 3 {
		t.Fatalf("Len = %d, want 3", p.Len())
	}
	if w, ok := p.Weight("a", "b"); !ok || w != 17 {
		t.Errorf("Weight(a,b) = %d, %v, want 17", w, ok)
	}
	if _, ok := p.Weight("b", "a"); ok {
		t.Error("pairs are directed")
	}

	entries := p.Entries()
	want := []Pair{{"a", "b"}, {"b", "c"}, {"x", "y"}}
	for i, e := range entries {
		if e.Pair != want[i] {
			t.Errorf("entry %d = %v, want %v", i, e.Pair, want[i])
		}
	}
	if p.Total() != 22 {
		t.Errorf("Total = %d, want 22", p.Total())
	}
}

func TestProfileAddSaturates(t *testing.T) {
	p := New()
	p.Add("a", "b", math.MaxUint64-5)
	p.Add("a", "b", 100)
	if w, _ := p.Weight("a", "b"); w != math.MaxUint64 {
		t.Errorf("weight = %d, want MaxUint64", w)
	}
}

func TestParse(t *testing.T) {
	input := `# generated by perf2cg
main parse_args 12

main   run	4000
run hot_loop 91000
main run 1
`
	p, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("Len = %d, want 3", p.Len())
	}
	if w, _ := p.Weight("main", "run"); w != 4001 {
		t.Errorf("Weight(main,run) = %d, want 4001", w)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"two fields", "a b\n"},
		{"four fields", "a b 1 2\n"},
		{"negative", "a b -1\n"},
		{"not a number", "a b many\n"},
		{"overflow", "a b 18446744073709551616\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("error = %v, want ErrMalformedLine", err)
			}
			if !cerrors.Is(err, cerrors.ErrCodeInvalidProfile) {
				t.Errorf("code = %v, want INVALID_PROFILE", cerrors.GetCode(err))
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	p := New()
	p.Add("f", "g", 3)
	p.Add("g", "h", 9)

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "f g 3\ng h 9\n" {
		t.Errorf("Write = %q", buf.String())
	}
}

func writeShard(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadShards(t *testing.T) {
	dir := t.TempDir()
	a := writeShard(t, dir, "a.txt", "x y 1\ny z 2\n")
	b := writeShard(t, dir, "b.txt", "w x 5\nx y 10\n")

	p, err := LoadShards(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("LoadShards: %v", err)
	}

	want := []Entry{
		{Pair{"x", "y"}, 11},
		{Pair{"y", "z"}, 2},
		{Pair{"w", "x"}, 5},
	}
	got := p.Entries()
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadShardsErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeShard(t, dir, "good.txt", "a b 1\n")
	bad := writeShard(t, dir, "bad.txt", "a b\n")

	if _, err := LoadShards(context.Background(), []string{good, bad}); !errors.Is(err, ErrMalformedLine) {
		t.Errorf("error = %v, want ErrMalformedLine", err)
	}

	_, err := LoadShards(context.Background(), []string{filepath.Join(dir, "missing.txt")})
	if !cerrors.Is(err, cerrors.ErrCodeFileNotFound) {
		t.Errorf("missing shard code = %v, want FILE_NOT_FOUND", cerrors.GetCode(err))
	}
}

func TestLoadShardsEmpty(t *testing.T) {
	p, err := LoadShards(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0", p.Len())
	}
}
