// Package db holds storage-level types shared by the Redis store and the
// repositories. Repositories declare the narrow store interfaces they need.
package db

// ScoredMember is a sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}
