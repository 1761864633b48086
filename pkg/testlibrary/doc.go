// Package testlibrary provides the TestLibrary greeter.
//
// A Greeter is stateless apart from its injected capabilities, so a single
// value may be shared between goroutines. Reading the wall clock goes through
// the Clock interface and formatting goes through the Formatter interface;
// tests inject fixed implementations of both to get deterministic output.
package testlibrary
