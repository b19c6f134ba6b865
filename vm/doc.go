// Package vm implements the drawing machine: its binary instruction
// format, the two-pass assembler, and the execution engine.
//
// The machine has 16 registers split into two banks. Registers A-H hold
// unsigned 16-bit integers with wrapping arithmetic; registers S-Z hold
// IEEE 754 doubles. Register A is the heading (degrees), X and Y are the
// pen position. Programs are a 5-byte header (version, canvas width,
// canvas height) followed by variable-length instructions. Executing a
// program yields a stream of pixel events for a presentation layer.
package vm
