// Package idx generates the ULIDs used as principal and request identifiers.
package idx

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string.
type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// Generator hands out monotonic ULIDs. IDs minted within the same
// millisecond still sort in creation order. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	clock   func() time.Time
	entropy io.Reader
}

// NewGenerator returns a Generator reading time from clock, or time.Now when
// clock is nil.
func NewGenerator(clock func() time.Time) *Generator {
	if clock == nil {
		clock = time.Now
	}
	return &Generator{
		clock:   clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New mints an ID at the generator's current time.
func (g *Generator) New() ID {
	return g.NewAt(g.clock())
}

// NewAt mints an ID carrying t as its timestamp.
func (g *Generator) NewAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), g.entropy).String())
}

var defaultGenerator = sync.OnceValue(func() *Generator { return NewGenerator(nil) })

// New mints an ID from the process-wide generator.
func New() ID { return defaultGenerator().New() }

// NewAt mints an ID at t from the process-wide generator.
func NewAt(t time.Time) ID { return defaultGenerator().NewAt(t) }

// Parse validates s and returns it as an ID. Surrounding whitespace is
// ignored; lowercase input is accepted and upper-cased.
func Parse(s string) (ID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// MustParse is Parse for hard-coded IDs in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time returns the embedded timestamp, or the zero time for an invalid ID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// Compare orders IDs by creation time, then by entropy.
func Compare(a, b ID) int {
	return strings.Compare(a.String(), b.String())
}
