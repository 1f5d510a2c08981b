// Package errors provides coded, actionable errors for the vtree command
// line tool.
//
// Each error code maps to a registered template with a category, a short
// message, an optional explanation and an optional hint:
//
//	V0xx  render: reconciliation and host failures
//	M0xx  markup: HTML input that cannot become a tree
//	C0xx  config: missing or invalid configuration
//	S0xx  snapshot and server failures
//	X0xx  cli: bad command line input
//
// # Usage
//
//	err := errors.New("C002").WithFile("vtree.yaml").Wrap(parseErr)
//	errors.PrintError(os.Stderr, err)
//
// Classify maps the sentinel errors of the vdom, hosttree, markup and
// snapshot packages onto their codes:
//
//	if err := r.Render(tree, root); err != nil {
//	    return errors.Classify(err, "V001")
//	}
package errors
