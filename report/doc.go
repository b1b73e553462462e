// Package report summarizes parsed pseudopotential files for inspection,
// as human-readable text or JSON.
package report
