// Package swipe runs the household consensus voting round: one session per
// household per day, votes from every member, and a match once every current
// member has approved the same recipe.
//
// A Manager owns all mutations. Votes for one session are applied one at a
// time under a per-session lock; different sessions never contend.
package swipe
