// Package paths implements the path algebra shared by the crawlers.
//
// Every path handled by the crawlers is root-relative and starts with "/".
// Directory-like paths end in "/"; file-like paths keep their extension so
// that file-type filtering can inspect it. Query strings are preserved.
package paths
