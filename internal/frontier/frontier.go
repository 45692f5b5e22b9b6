package frontier

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/nao1215/orphancrawl/internal/model"
	"github.com/nao1215/orphancrawl/internal/paths"
)

// Frontier drives one breadth-first crawl.
//
// Step is meant to be called from a single goroutine. The accessors may be
// called from any goroutine while a crawl is running.
type Frontier struct {
	mu sync.Mutex

	table   *table
	state   State
	queue   []int
	status  map[int]pathStatus
	visited []int
	failed  []int
	leaves  []int
	linkMap map[int][]int
	stats   model.CrawlStats
	partial bool

	fileTypes      map[string]struct{}
	blacklist      map[string]struct{}
	blacklistMatch BlacklistMatch
	ignore         []glob.Glob
	policy         Policy
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithFileTypes sets the extensions that pass the whitelist, such as
// "html" or ".php". An empty list lets every extension through.
func WithFileTypes(types ...string) Option {
	return func(f *Frontier) {
		f.fileTypes = normalizeFileTypes(types)
	}
}

// WithBlacklist sets directory names whose subtrees are skipped.
func WithBlacklist(dirs ...string) Option {
	return func(f *Frontier) {
		f.blacklist = make(map[string]struct{}, len(dirs))
		for _, d := range dirs {
			for _, seg := range paths.Segments(d) {
				f.blacklist[seg] = struct{}{}
			}
		}
	}
}

// WithBlacklistMatch selects what the blacklist is compared against.
func WithBlacklistMatch(m BlacklistMatch) Option {
	return func(f *Frontier) {
		f.blacklistMatch = m
	}
}

// WithIgnore sets compiled patterns; matching paths are skipped.
func WithIgnore(patterns ...glob.Glob) Option {
	return func(f *Frontier) {
		f.ignore = append(f.ignore, patterns...)
	}
}

// WithPolicy sets the robots policy gating which paths are queued.
func WithPolicy(p Policy) Option {
	return func(f *Frontier) {
		if p != nil {
			f.policy = p
		}
	}
}

// New creates a Frontier whose queue holds seed.
func New(seed string, opts ...Option) *Frontier {
	f := &Frontier{
		table:   newTable(),
		state:   Pending,
		status:  make(map[int]pathStatus),
		linkMap: make(map[int][]int),
		policy:  allowAll{},
	}
	for _, opt := range opts {
		opt(f)
	}

	id := f.table.intern(paths.Clean(seed))
	f.queue = []int{id}
	f.status[id] = statusQueued

	return f
}

// Batch describes what one Step did.
type Batch struct {
	// Page is the path that was fetched.
	Page string
	// Links are the paths recorded for Page in the link map.
	Links []string
	// Enqueued are the paths newly added to the queue.
	Enqueued []string
	// Leaves are the files newly recorded.
	Leaves []string
	// Err is a *FetchError when Page could not be fetched.
	Err error
}

// Step processes the head of the queue. It returns a nil Batch once the
// queue is empty. A failed fetch is reported in the Batch, not as an
// error; only context cancellation is returned as an error, in which case
// the path is put back at the head of the queue.
func (f *Frontier) Step(ctx context.Context, src Source) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if len(f.queue) == 0 {
		f.state = Done
		f.mu.Unlock()
		return nil, nil
	}
	id := f.queue[0]
	f.queue = f.queue[1:]
	f.status[id] = statusFetching
	f.state = Fetching
	page := f.table.str(id)
	f.mu.Unlock()

	candidates, err := src.Fetch(ctx, page)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			f.queue = append([]int{id}, f.queue...)
			f.status[id] = statusQueued
			f.state = Pending
			return nil, ctxErr
		}
		f.status[id] = statusFailed
		f.failed = append(f.failed, id)
		f.stats.FetchFailures++
		f.settle()
		return &Batch{Page: page, Err: &FetchError{Path: page, Err: err}}, nil
	}

	batch := f.absorb(id, page, candidates)
	f.status[id] = statusVisited
	f.visited = append(f.visited, id)
	f.settle()

	return batch, nil
}

// absorb runs candidates through extraction, filtering and enqueuing.
func (f *Frontier) absorb(pageID int, page string, candidates []Candidate) *Batch {
	batch := &Batch{Page: page}
	dir := paths.Dir(page)
	recorded := make(map[int]struct{}, len(candidates))
	var novel []int

	for _, c := range candidates {
		f.stats.Discovered++

		f.state = Extracting
		resolved, err := candidatePath(dir, c)
		if err != nil {
			f.stats.Malformed++
			continue
		}

		f.state = Filtering
		if f.blacklisted(c.Ref, resolved) {
			f.stats.Blacklisted++
			continue
		}
		if f.ignored(resolved) {
			f.stats.Ignored++
			continue
		}

		id := f.table.intern(resolved)
		if _, ok := recorded[id]; !ok {
			recorded[id] = struct{}{}
			f.linkMap[pageID] = append(f.linkMap[pageID], id)
			batch.Links = append(batch.Links, resolved)
		}

		if !f.whitelisted(resolved, c.Kind) {
			f.stats.NotWhitelisted++
			continue
		}

		if c.Kind == KindFile {
			if f.status[id] != statusNone {
				f.stats.Duplicates++
				continue
			}
			f.status[id] = statusLeaf
			f.leaves = append(f.leaves, id)
			f.stats.Leaves++
			batch.Leaves = append(batch.Leaves, resolved)
			continue
		}

		if !f.policy.Allowed(resolved) {
			f.stats.RobotsDenied++
			continue
		}
		if f.status[id] != statusNone {
			f.stats.Duplicates++
			continue
		}

		f.status[id] = statusQueued
		novel = append(novel, id)
		f.stats.Enqueued++
		batch.Enqueued = append(batch.Enqueued, resolved)
	}

	f.state = Enqueuing
	f.queue = append(f.queue, novel...)
	sort.SliceStable(f.queue, func(i, j int) bool {
		return f.table.str(f.queue[i]) < f.table.str(f.queue[j])
	})

	return batch
}

// settle moves to Pending or Done after a step. Callers hold f.mu.
func (f *Frontier) settle() {
	if len(f.queue) == 0 {
		f.state = Done
		return
	}
	f.state = Pending
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	maxVisited int
	observer   func(*Batch)
}

// WithMaxVisited stops the crawl once n paths were fetched. The crawl is
// then marked partial. Zero means no limit.
func WithMaxVisited(n int) RunOption {
	return func(c *runConfig) {
		c.maxVisited = n
	}
}

// WithObserver calls fn with every Batch.
func WithObserver(fn func(*Batch)) RunOption {
	return func(c *runConfig) {
		c.observer = fn
	}
}

// Run steps until the frontier is Done or ctx is cancelled.
func (f *Frontier) Run(ctx context.Context, src Source, opts ...RunOption) error {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	for {
		if cfg.maxVisited > 0 && f.VisitedTotal() >= cfg.maxVisited && !f.Done() {
			f.Abandon()
			return nil
		}

		batch, err := f.Step(ctx, src)
		if err != nil {
			return err
		}
		if batch == nil {
			return nil
		}
		if cfg.observer != nil {
			cfg.observer(batch)
		}
	}
}

// Abandon drops the remaining queue and marks the crawl partial.
func (f *Frontier) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) > 0 {
		f.partial = true
	}
	for _, id := range f.queue {
		f.status[id] = statusNone
	}
	f.queue = nil
	f.state = Done
}

// State returns the current phase.
func (f *Frontier) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Done reports whether the crawl has finished.
func (f *Frontier) Done() bool {
	return f.State() == Done
}

// VisitedTotal returns the number of fetched paths.
func (f *Frontier) VisitedTotal() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Stats returns a copy of the filter counters.
func (f *Frontier) Stats() model.CrawlStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// Snapshot is a copy of the traversal sets.
type Snapshot struct {
	State   State
	Queue   []string
	Visited []string
	Failed  []string
	Leaves  []string
}

// Snapshot copies the queue and the sets.
func (f *Frontier) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		State:   f.state,
		Queue:   f.table.strings(f.queue),
		Visited: f.table.strings(f.visited),
		Failed:  f.table.strings(f.failed),
		Leaves:  f.table.strings(f.leaves),
	}
}

// Leaves returns the recorded files, sorted.
func (f *Frontier) Leaves() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.table.strings(f.leaves)
	slices.Sort(out)
	return out
}

// Result returns the crawl outcome. It fails with ErrCrawlNotComplete until
// the frontier is Done.
func (f *Frontier) Result() (*model.CrawlResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != Done {
		return nil, ErrCrawlNotComplete
	}

	linkMap := make(map[string][]string, len(f.linkMap))
	flat := make(map[int]struct{}, len(f.visited))
	for _, id := range f.visited {
		flat[id] = struct{}{}
	}
	for page, targets := range f.linkMap {
		linkMap[f.table.str(page)] = f.table.strings(targets)
		for _, t := range targets {
			flat[t] = struct{}{}
		}
	}

	flatLinks := make([]string, 0, len(flat))
	for id := range flat {
		flatLinks = append(flatLinks, f.table.str(id))
	}
	slices.Sort(flatLinks)

	return &model.CrawlResult{
		VisitedTotal: len(f.visited),
		VisitedPaths: f.table.strings(f.visited),
		LinkMap:      linkMap,
		FlatLinks:    flatLinks,
		FailedPaths:  f.table.strings(f.failed),
		Stats:        f.stats,
		Partial:      f.partial,
	}, nil
}
