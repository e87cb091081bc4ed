// Package learning adapts clustering preferences from user feedback.
//
// The engine keeps a single preference record and a time-ordered feedback
// history. Ratings, manual adjustments, parameter changes, acceptances, and
// rejections each nudge the record with a small learning rate. A/B tests run
// two preference variants side by side with deterministic per-course
// assignment; the winner's parameters become the new baseline.
package learning
