// Package runtime is the object model shared by the MIR interpreter and,
// through the C sources in runtime/native, by compiled programs.
//
// Ints and bools are inline values and never touch the heap. Strings, pairs
// and functions are heap objects with a reference count that starts at 1.
// Every operation borrows its operands and returns a new owned value.
// Failures are fatal: they panic with *Fatal and the program stops.
package runtime
