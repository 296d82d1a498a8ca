package entities

// CorpusID identifies a testcase in the engine's corpus.
type CorpusID int64

// NoCorpus is passed when an operation is not tied to a corpus entry.
const NoCorpus CorpusID = -1

// Valid reports whether the id refers to a corpus entry.
func (id CorpusID) Valid() bool {
	return id >= 0
}

// MutationResult reports whether a mutator changed its input.
type MutationResult int

const (
	// MutationSkipped means the input was left untouched.
	MutationSkipped MutationResult = iota
	// MutationMutated means the input was changed.
	MutationMutated
)

func (r MutationResult) String() string {
	if r == MutationMutated {
		return "mutated"
	}
	return "skipped"
}
