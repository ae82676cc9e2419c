// Package testsupport provides config builders, stub executables and file
// helpers shared by package tests.
package testsupport
