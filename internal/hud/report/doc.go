// Package report renders aligned lap comparisons for people: a PNG plot
// of time deltas against a reference lap (gonum/plot) and an HTML page
// overlaying every channel by track position (go-echarts).
package report
