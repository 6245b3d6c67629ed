// Package testutil provides small helpers shared by the package tests.
package testutil
