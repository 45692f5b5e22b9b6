package frontier

import "context"

// State is the phase a Frontier is in.
type State int

const (
	// Pending means the queue is non-empty and no step is running.
	Pending State = iota
	// Fetching means the head of the queue is being fetched.
	Fetching
	// Extracting means candidates are being resolved into paths.
	Extracting
	// Filtering means candidates are being checked against the filters.
	Filtering
	// Enqueuing means novel paths are being queued.
	Enqueuing
	// Done means the queue is empty.
	Done
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fetching:
		return "fetching"
	case Extracting:
		return "extracting"
	case Filtering:
		return "filtering"
	case Enqueuing:
		return "enqueuing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Kind classifies a candidate.
type Kind int

const (
	// KindUnknown is a raw reference relative to the page it was found on.
	KindUnknown Kind = iota
	// KindDirectory is a root-relative directory that will be listed.
	KindDirectory
	// KindFile is a root-relative file. Files are recorded, never fetched.
	KindFile
)

// Candidate is a reference or listing entry produced by a Source.
type Candidate struct {
	Ref  string
	Kind Kind
}

// Source produces the candidates found at a path.
type Source interface {
	Fetch(ctx context.Context, path string) ([]Candidate, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, path string) ([]Candidate, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, path string) ([]Candidate, error) {
	return f(ctx, path)
}

// Policy decides whether a path may be fetched. *robots.RuleSet satisfies it.
type Policy interface {
	Allowed(path string) bool
}

type allowAll struct{}

func (allowAll) Allowed(string) bool { return true }

// pathStatus is where an interned path currently lives.
type pathStatus uint8

const (
	statusNone pathStatus = iota
	statusQueued
	statusFetching
	statusVisited
	statusFailed
	statusLeaf
)

// table interns path strings.
type table struct {
	ids  map[string]int
	strs []string
}

func newTable() *table {
	return &table{ids: make(map[string]int)}
}

func (t *table) intern(s string) int {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := len(t.strs)
	t.ids[s] = id
	t.strs = append(t.strs, s)
	return id
}

func (t *table) str(id int) string {
	return t.strs[id]
}

func (t *table) strings(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.strs[id]
	}
	return out
}
