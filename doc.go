// Package rulekit compiles human-written eligibility rules such as
//
//	age > 30 AND department = 'Sales'
//
// into an abstract syntax tree, evaluates the tree against attribute
// records, and combines several rules into one equivalent tree.
//
// Typical use is as follows:
//
//  1. Optionally declare a Schema describing the attributes rules may use
//  2. Compile the rule string into a Node
//  3. Evaluate the Node against a record (map[string]any)
//  4. Combine Nodes from several rules when all of them must hold
//
// # Rule Language
//
// A rule is a sequence of comparisons joined by AND and OR (case-insensitive)
// and grouped with parentheses. A comparison is an attribute name, one of
// > < >= <= = !=, and a literal: a number (optionally signed, with an
// optional fractional part), a single- or double-quoted string, or true/false.
//
// AND binds tighter than OR; both associate to the left. Two comparisons
// must always be joined by a connective.
//
// # Errors
//
// Every failure is returned as a typed error: *LexError and *ParseError from
// Compile, *SchemaError when a schema is given, *EvalError from Evaluate and
// *CombineError from Combine. Use errors.Is with the Err* sentinels to test
// for a particular kind.
//
// # Concurrency
//
// Nodes are never modified after construction. A Node may be evaluated and
// combined from any number of goroutines at once, and Combine shares
// subtrees between its result and its inputs.
package rulekit
