package timetabler

// literalKind tells which decision a SAT variable encodes.
type literalKind uint64

const (
	slotLiteral literalKind = iota
	resourceLiteral
	lecturerLiteral
	literalKinds
)

// indexer gives a unique positive index to a (kind, session, value) triple and back, as a
// mixed-radix number with value as the least significant digit.
type indexer struct {
	values   uint64
	sessions uint64
}

func newIndexer(sessions, values int) indexer {
	return indexer{values: uint64(values), sessions: uint64(sessions)}
}

func (indexer indexer) Variables() uint64 {
	return indexer.values * indexer.sessions * uint64(literalKinds)
}

func (indexer indexer) Index(kind literalKind, session, value int) int64 {
	return int64(uint64(value)+indexer.values*uint64(session)+indexer.values*indexer.sessions*uint64(kind)) + 1
}

func (indexer indexer) Attributes(index int64) (kind literalKind, session, value int) {
	rest := uint64(index - 1)
	value = int(rest % indexer.values)
	rest = rest / indexer.values

	session = int(rest % indexer.sessions)
	rest = rest / indexer.sessions

	kind = literalKind(rest)
	return kind, session, value
}
