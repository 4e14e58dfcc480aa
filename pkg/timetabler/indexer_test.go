package timetabler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexerRoundTrip(t *testing.T) {
	indexer := newIndexer(7, 40)
	seen := make(map[int64]bool)

	for kind := slotLiteral; kind < literalKinds; kind++ {
		for session := range 7 {
			for value := range 40 {
				index := indexer.Index(kind, session, value)
				assert.False(t, seen[index], "index %v used twice", index)
				assert.GreaterOrEqual(t, index, int64(1))
				assert.LessOrEqual(t, uint64(index), indexer.Variables())
				seen[index] = true

				gotKind, gotSession, gotValue := indexer.Attributes(index)
				assert.Equal(t, kind, gotKind)
				assert.Equal(t, session, gotSession)
				assert.Equal(t, value, gotValue)
			}
		}
	}
	assert.Len(t, seen, int(indexer.Variables()))
}
