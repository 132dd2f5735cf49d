// Package cel evaluates rulekit rules with Google's cel-go engine.
//
// See https://github.com/google/cel-go and https://opensource.google/projects/cel for more information
// about CEL.
//
// A compiled rule tree is translated into a CEL expression (see Source), type
// checked against declarations derived from a rulekit.Schema, and turned into
// a CEL program. Evaluating the program gives the same result as
// rulekit.Evaluate without short-circuiting, and the same *rulekit.EvalError
// kinds for missing attributes and mismatched types.
//
// # Types
//
// All numeric attributes are declared as CEL doubles and record numbers are
// converted to float64 before evaluation, so integer and floating point
// values compare the way they do in rulekit:
//
//	rulekit:  age > 30 AND department = 'Sales'
//	CEL:      ((age > 30.0) && (department == "Sales"))
//
// Without a schema, each attribute is declared with the type of the
// literals it is compared against.
//
// # Reserved Words
//
// CEL reserves a few identifiers (in, null, package, ...). Rules using them as
// attribute names cannot be compiled by this package.
package cel
