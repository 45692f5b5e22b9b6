package robots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/text/cases"
)

// Mode selects how conflicting Allow and Disallow rules are settled.
type Mode int

const (
	// ModeLiteral denies a path only when a Disallow rule matches it and no
	// later rule of either type matches it as well.
	ModeLiteral Mode = iota
	// ModeAllowOverride denies a path when a Disallow rule matches it and no
	// Allow rule matches it.
	ModeAllowOverride
	// ModeStandard applies RFC 9309 longest-match evaluation.
	ModeStandard
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeAllowOverride:
		return "allow-override"
	case ModeStandard:
		return "standard"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration name into a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "literal":
		return ModeLiteral, nil
	case "allow-override", "allow":
		return ModeAllowOverride, nil
	case "standard", "rfc9309":
		return ModeStandard, nil
	default:
		return ModeLiteral, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Directive is the type of a robots rule.
type Directive int

const (
	// Disallow forbids crawling matching paths.
	Disallow Directive = iota
	// Allow permits crawling matching paths.
	Allow
)

// String returns the robots.txt spelling of the directive.
func (d Directive) String() string {
	if d == Allow {
		return "Allow"
	}
	return "Disallow"
}

// Rule is a single Allow or Disallow line from an applicable group.
type Rule struct {
	Type    Directive
	Pattern string
	re      *regexp.Regexp
}

// Match reports whether the rule pattern matches path.
func (r Rule) Match(path string) bool {
	return r.re.MatchString(path)
}

// Expr returns the regular expression the pattern was compiled to.
func (r Rule) Expr() string {
	return r.re.String()
}

// RuleSet is the compiled view of one robots.txt for one user agent.
type RuleSet struct {
	retrieved  bool
	mode       Mode
	agent      string
	rules      []Rule
	crawlDelay time.Duration
	sitemaps   []string
	std        *robotstxt.RobotsData
}

// Option configures a RuleSet.
type Option func(*RuleSet)

// WithUserAgent sets the agent whose groups apply in addition to "*".
func WithUserAgent(agent string) Option {
	return func(rs *RuleSet) {
		rs.agent = strings.TrimSpace(agent)
	}
}

// WithMode sets the override mode.
func WithMode(mode Mode) Option {
	return func(rs *RuleSet) {
		rs.mode = mode
	}
}

// Unrestricted returns a RuleSet for a site without a usable robots.txt.
func Unrestricted(opts ...Option) *RuleSet {
	rs := &RuleSet{}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Load parses the lines of a retrieved robots.txt.
//
// A "User-agent" line opens a group. Consecutive User-agent lines share one
// group, which applies when any of the names contains "*" or contains the
// configured agent, compared case-insensitively. Allow and Disallow lines of
// applicable groups are kept in file order; empty values are ignored.
func Load(lines []string, opts ...Option) *RuleSet {
	rs := &RuleSet{retrieved: true}
	for _, opt := range opts {
		opt(rs)
	}

	fold := cases.Fold()
	agent := fold.String(rs.agent)

	applies := false
	inAgentRun := false
	for _, raw := range lines {
		line := raw
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "user-agent" {
			name := fold.String(value)
			matched := strings.Contains(name, "*") || (agent != "" && strings.Contains(name, agent))
			if inAgentRun {
				applies = applies || matched
			} else {
				applies = matched
			}
			inAgentRun = true
			continue
		}
		inAgentRun = false

		switch key {
		case "sitemap":
			if value != "" {
				rs.sitemaps = append(rs.sitemaps, value)
			}
		case "allow", "disallow":
			if !applies || value == "" {
				continue
			}
			typ := Disallow
			if key == "allow" {
				typ = Allow
			}
			rs.rules = append(rs.rules, Rule{
				Type:    typ,
				Pattern: value,
				re:      compilePattern(value),
			})
		case "crawl-delay":
			if !applies {
				continue
			}
			if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
				d := time.Duration(secs * float64(time.Second))
				if d > rs.crawlDelay {
					rs.crawlDelay = d
				}
			}
		}
	}

	if rs.mode == ModeStandard {
		if data, err := robotstxt.FromBytes([]byte(strings.Join(lines, "\n"))); err == nil {
			rs.std = data
		}
	}

	return rs
}

// Allowed reports whether path may be crawled.
func (rs *RuleSet) Allowed(path string) bool {
	if rs == nil || !rs.retrieved {
		return true
	}

	switch rs.mode {
	case ModeStandard:
		return rs.allowedStandard(path)
	case ModeAllowOverride:
		return rs.allowedAllowOverride(path)
	default:
		return rs.allowedLiteral(path)
	}
}

func (rs *RuleSet) allowedLiteral(path string) bool {
	for i, rule := range rs.rules {
		if rule.Type != Disallow || !rule.Match(path) {
			continue
		}
		overridden := false
		for _, later := range rs.rules[i+1:] {
			if later.Match(path) {
				overridden = true
				break
			}
		}
		if !overridden {
			return false
		}
	}
	return true
}

func (rs *RuleSet) allowedAllowOverride(path string) bool {
	disallowed := false
	for _, rule := range rs.rules {
		if !rule.Match(path) {
			continue
		}
		if rule.Type == Allow {
			return true
		}
		disallowed = true
	}
	return !disallowed
}

func (rs *RuleSet) allowedStandard(path string) bool {
	if rs.std == nil {
		return true
	}
	group := rs.std.FindGroup(rs.agentOrWildcard())
	if group == nil {
		return true
	}
	return group.Test(path)
}

// Retrieved reports whether the RuleSet was built from a robots.txt.
func (rs *RuleSet) Retrieved() bool {
	return rs != nil && rs.retrieved
}

// Mode returns the override mode.
func (rs *RuleSet) Mode() Mode {
	return rs.mode
}

// Rules returns a copy of the applicable rules in file order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// CrawlDelay returns the largest Crawl-delay of the applicable groups.
func (rs *RuleSet) CrawlDelay() time.Duration {
	if rs == nil {
		return 0
	}
	if rs.std != nil {
		if group := rs.std.FindGroup(rs.agentOrWildcard()); group != nil && group.CrawlDelay > rs.crawlDelay {
			return group.CrawlDelay
		}
	}
	return rs.crawlDelay
}

// Sitemaps returns the Sitemap URLs announced in the file.
func (rs *RuleSet) Sitemaps() []string {
	out := make([]string, len(rs.sitemaps))
	copy(out, rs.sitemaps)
	return out
}

func (rs *RuleSet) agentOrWildcard() string {
	if rs.agent == "" {
		return "*"
	}
	return rs.agent
}

// compilePattern turns a robots path pattern into an anchored expression.
// "*" matches anything; everything else is literal. Patterns ending in "/",
// "=" or "?" also match everything below them.
func compilePattern(pattern string) *regexp.Regexp {
	pieces := strings.Split(pattern, "*")
	for i, p := range pieces {
		pieces[i] = regexp.QuoteMeta(p)
	}
	expr := "^" + strings.Join(pieces, ".*")
	if strings.HasSuffix(pattern, "/") || strings.HasSuffix(pattern, "=") || strings.HasSuffix(pattern, "?") {
		expr += ".*"
	}
	return regexp.MustCompile(expr)
}
