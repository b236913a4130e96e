// Package ackable binds received content to the channel and delivery tags
// needed to settle it.
//
// An Ackable settles every delivery tag of its content with one broker call
// per tag, in insertion order. A second settle call returns
// ErrAlreadyAcknowledged without touching the broker. NewBatch groups the
// Ackables of one GetMany call so the remaining items can be settled in one
// call after some were settled individually.
package ackable
