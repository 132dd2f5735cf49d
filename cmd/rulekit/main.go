// Rulekit compiles, evaluates and combines boolean attribute rules.
//
// Usage:
//
//	# Show the tree of a rule
//	rulekit compile "age > 30 AND department = 'Sales'"
//
//	# Evaluate a rule against a record
//	rulekit eval "age > 30" --data '{"age": 41}'
//
//	# Evaluate a configured rule against a file of JSON records, one per line
//	rulekit eval --config rules.yaml --id senior_sales --data-file people.jsonl
//
//	# Combine rules into one
//	rulekit combine "a > 1 OR b < 2" "a > 1 OR c = 'x'"
//
//	# List configured rules
//	rulekit rules --config rules.yaml
package main

func main() {
	Execute()
}
