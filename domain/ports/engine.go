package ports

// Input is a single fuzzing input.
type Input interface {
	// Bytes returns the serialized input. Callers must not modify it.
	Bytes() []byte
}

// State is the engine's fuzzing state.
type State interface {
	// Executions returns the number of target executions so far.
	Executions() uint64

	// CorpusCount returns the number of entries in the corpus.
	CorpusCount() int
}

// Testcase is a corpus entry being assembled for an interesting input.
type Testcase interface {
	// Input returns the testcase input.
	Input() Input

	// SetMetadata attaches a metadata blob under key.
	SetMetadata(key string, value []byte)
}

// EventManager dispatches engine events. It is opaque to this layer.
type EventManager interface{}

// Fuzzer is the engine's fuzzer instance. It is opaque to this layer.
type Fuzzer interface{}
