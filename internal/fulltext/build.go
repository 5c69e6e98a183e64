package fulltext

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/docsearch/documenter-mcp/internal/searchindex"
)

// DefaultBatchSize is how many documents go into one bleve batch
const DefaultBatchSize = 100

// Create makes a new on-disk index at path, which must not exist yet
func Create(path string) (bleve.Index, error) {
	index, err := bleve.New(path, NewMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index at %s: %w", path, err)
	}
	return index, nil
}

// Open opens an existing on-disk index
func Open(path string) (bleve.Index, error) {
	index, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}
	return index, nil
}

// CreateInMemory makes a new index that lives only in memory
func CreateInMemory() (bleve.Index, error) {
	index, err := bleve.NewMemOnly(NewMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}
	return index, nil
}

// IndexTable adds every record of table to index in batches. progress, when
// not nil, is called after each submitted batch with the running count.
func IndexTable(index bleve.Index, table *searchindex.Table, batchSize int, progress func(done, total int)) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	total := table.Len()
	batch := index.NewBatch()
	for i, record := range table.Records {
		if err := batch.Index(DocumentID(i), NewDocument(i, record)); err != nil {
			return fmt.Errorf("failed to add record %d to batch: %w", i, err)
		}

		if (i+1)%batchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
			if progress != nil {
				progress(i+1, total)
			}
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
		if progress != nil {
			progress(total, total)
		}
	}
	return nil
}

// BuildInMemory creates an in-memory index holding table
func BuildInMemory(table *searchindex.Table) (bleve.Index, error) {
	index, err := CreateInMemory()
	if err != nil {
		return nil, err
	}
	if err := IndexTable(index, table, DefaultBatchSize, nil); err != nil {
		index.Close()
		return nil, err
	}
	return index, nil
}
