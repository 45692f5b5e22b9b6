// Package robots parses robots.txt directives into a RuleSet and answers
// whether a path may be crawled.
//
// Three evaluation modes are supported. ModeLiteral, the default, lets any
// later matching rule override a matching Disallow. ModeAllowOverride only
// lets a matching Allow override it. ModeStandard defers to the longest-match
// semantics of RFC 9309 as implemented by github.com/temoto/robotstxt.
//
// A RuleSet built from a missing or unreadable robots.txt allows everything.
package robots
