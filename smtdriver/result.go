package smtdriver

// AssignmentResult is the outcome of evaluating one candidate assignment
// against a formula's compiled dispatcher.
type AssignmentResult struct {
	// Index is the assignment's 0-based position in the source file.
	Index int

	// Models reports whether every assertion held (the dispatcher
	// returned 0).
	Models bool

	// FailingAssertion is the 1-based index of the first assertion that
	// evaluated false; zero when Models is true or the assignment was
	// rejected before compiled code ran (see Rejected).
	FailingAssertion int

	// Rejected holds the validation error when the assignment failed a
	// precondition check and was never passed to compiled code.
	Rejected error
}
