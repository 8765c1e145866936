package clone

import (
	"context"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/percona/percona-dbcopy-mongodb/errors"
	"github.com/percona/percona-dbcopy-mongodb/metrics"
)

//nolint:gochecknoglobals
var yes = true // for ref

//nolint:gochecknoglobals
var upsertBulkOptions = options.BulkWrite().
	SetOrdered(false).
	SetBypassDocumentValidation(false)

// WriteError reports a destination batch with one or more failed
// operations. Unordered execution means a failed operation does not block
// the rest of the batch, but any failure fails the flush as a whole.
type WriteError struct {
	Namespace string
	Err       error
}

func (e *WriteError) Error() string {
	return "bulk write " + strconv.Quote(e.Namespace) + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// upsertBatch accumulates pending upserts keyed by the document _id and
// flushes them as one unordered bulk write. The batch never grows beyond
// its construction size: the caller flushes when Full reports true.
type upsertBatch struct {
	writes []mongo.WriteModel
}

func newUpsertBatch(size int) *upsertBatch {
	return &upsertBatch{
		writes: make([]mongo.WriteModel, 0, size),
	}
}

func (b *upsertBatch) Full() bool {
	return len(b.writes) == cap(b.writes)
}

func (b *upsertBatch) Empty() bool {
	return len(b.writes) == 0
}

func (b *upsertBatch) Len() int {
	return len(b.writes)
}

// Add appends a pending upsert for the document identified by id.
func (b *upsertBatch) Add(id any, doc any) {
	b.writes = append(b.writes, &mongo.ReplaceOneModel{
		Filter:      bson.D{{Key: "_id", Value: id}},
		Replacement: doc,
		Upsert:      &yes,
	})
}

// AddRaw appends a pending upsert for a raw BSON document, extracting its
// _id field.
func (b *upsertBatch) AddRaw(doc bson.Raw) error {
	id, err := doc.LookupErr("_id")
	if err != nil {
		return errors.Wrap(err, "document has no _id")
	}

	b.Add(id, doc)

	return nil
}

// Flush applies all pending upserts to coll as one unordered bulk write
// and clears the batch. Flushing an empty batch is a no-op.
func (b *upsertBatch) Flush(ctx context.Context, coll *mongo.Collection) (int, error) {
	if b.Empty() {
		return 0, nil
	}

	_, err := coll.BulkWrite(ctx, b.writes, upsertBulkOptions)
	if err != nil {
		return 0, &WriteError{
			Namespace: coll.Database().Name() + "." + coll.Name(),
			Err:       err,
		}
	}

	size := len(b.writes)
	clear(b.writes)
	b.writes = b.writes[:0]

	metrics.AddBatchesFlushed(1)
	metrics.AddDocumentsUpserted(size)

	return size, nil
}
