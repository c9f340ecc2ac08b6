// Package progress drives a percentage indicator around a long-running
// operation that reports real progress only while downloading and then goes
// quiet while computing.
//
// The first 40% of the bar tracks the download. When computation starts the
// controller jumps to at least 45% and ramps towards 99% on a timer, so the
// bar keeps moving while nothing is reported. Complete forces 100%.
// The displayed value never decreases between Begin and Complete.
package progress
