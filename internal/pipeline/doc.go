// Package pipeline runs the steps of one orphancrawl run in sequence.
//
// A run crawls the site and the server, reconciles the two inventories into
// an orphan report, optionally archives the report and finally writes it.
// Each stage is a Step that receives the shared Run state. The two crawls
// are independent and run concurrently inside a ParallelStep.
//
// BatchProcessor runs one pipeline per configured site with a concurrency
// limit, using errgroup.
package pipeline
