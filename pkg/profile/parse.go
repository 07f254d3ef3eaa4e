package profile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
)

// ErrMalformedLine is returned when a profile line does not have the
// "caller callee count" shape.
var ErrMalformedLine = errors.New("malformed profile line")

// maxLineBytes allows for very long mangled names.
const maxLineBytes = 1 << 20

// Parse reads a text profile from r.
//
// Each non-blank line that does not start with '#' must hold exactly three
// whitespace-separated fields: caller, callee and a base-10 count that fits
// in 64 bits. Parse does not close r.
func Parse(r io.Reader) (*Profile, error) {
	p := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidProfile, ErrMalformedLine,
				"line %d: expected 3 fields, got %d", line, len(fields))
		}
		weight, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidProfile, fmt.Errorf("%w: %w", ErrMalformedLine, err),
				"line %d: bad count %q", line, fields[2])
		}
		p.Add(fields[0], fields[1], weight)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return p, nil
}

// ParseFile opens path and parses it with [Parse].
func ParseFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "profile %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Write emits p in the text format accepted by [Parse], one entry per line
// in first-seen order.
func (p *Profile) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range p.entries {
		if _, err := fmt.Fprintf(bw, "%s %s %d\n", e.From, e.To, e.Weight); err != nil {
			return err
		}
	}
	return bw.Flush()
}
