// Package job tracks contracted work through the lead → scheduled →
// in_progress → completed pipeline.
package job
