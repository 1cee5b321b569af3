// Package testutil provides fluent builders for contracts and operation
// batches used across package tests.
package testutil
