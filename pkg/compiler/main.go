// Package compiler turns Brio source into MIPS-flavoured assembly text.
//
// Pipeline: source → Lex → Parse → Collect/CheckNames/CheckTypes →
// Flatten → BuildSymbolTable → Generate → assembly text
//
// The checking passes accumulate a Report of diagnostics; code generation
// only runs on a clean report.
package compiler
