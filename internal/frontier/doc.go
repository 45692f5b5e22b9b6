// Package frontier implements the breadth-first traversal shared by the
// site crawler and the server crawler.
//
// A Frontier owns a FIFO queue of paths, the set of visited paths and the
// link map recorded while visiting them. Each Step dequeues one path, asks a
// Source for the candidates found there, filters and resolves them, appends
// the novel ones to the queue and stably sorts it. Run loops Step until the
// queue is empty.
//
// Every path is interned once; the queue, the sets and the link map hold
// table indices. A path is in at most one of the queue, the visited set and
// the failed set.
//
// Filtering happens in this order:
//
//  1. references with a scheme or fragment are dropped as malformed
//  2. the directory blacklist and the ignore patterns
//  3. the path is recorded in the link map of the page
//  4. the file-type whitelist
//  5. robots.txt rules
//  6. deduplication against everything already known
package frontier
