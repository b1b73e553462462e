// Package pipeline drives trimming over files and directories: single
// files through Runner, whole directories through Batch, with atomic
// output writes and an optional directory watch mode.
package pipeline
