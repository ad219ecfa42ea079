// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, an opened SQLite catalog, an in-memory catalog with fault
// injection, a scripted page source, and entry builders.
package testsupport
