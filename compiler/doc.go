/*
Package compiler runs the pipeline.

	Program Text ->
		parse ->
	Abstract Syntax Tree (ast) ->
		analyze ->
	Checked Program ->
		opt ->
	Optimized Program ->
		back ->
	RISC-V Instructions (asm/riscv) ->
		render ->
	Assembly Text

Each stage is synchronous and keeps its counters in its own instance,
so independent files can be compiled concurrently.
*/
package compiler
