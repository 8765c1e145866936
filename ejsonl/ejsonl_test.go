package ejsonl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/percona/percona-dbcopy-mongodb/ejsonl"
	"github.com/percona/percona-dbcopy-mongodb/errors"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	oid, err := bson.ObjectIDFromHex("65f0c7a1e4b0d8a9c3b2f1e0")
	require.NoError(t, err)

	dec, err := bson.ParseDecimal128("12345.6789")
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  bson.D
	}{
		{
			name: "null",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: nil}},
		},
		{
			name: "boolean",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: true}},
		},
		{
			name: "int32",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: int32(42)}},
		},
		{
			name: "int64",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: int64(1 << 40)}},
		},
		{
			name: "float",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: 3.5}},
		},
		{
			name: "string",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: "text with \"quotes\" and \nnewline"}},
		},
		{
			name: "timestamp",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: bson.Timestamp{T: 1700000000, I: 7}}},
		},
		{
			name: "datetime",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: bson.DateTime(1700000000123)}},
		},
		{
			name: "binary",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: bson.Binary{Subtype: 0x00, Data: []byte{0xde, 0xad, 0xbe, 0xef}}}},
		},
		{
			name: "decimal128",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: dec}},
		},
		{
			name: "object id",
			doc:  bson.D{{Key: "_id", Value: oid}, {Key: "v", Value: "x"}},
		},
		{
			name: "regular expression",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: bson.Regex{Pattern: "^a.*z$", Options: "i"}}},
		},
		{
			name: "sequence",
			doc:  bson.D{{Key: "_id", Value: int32(1)}, {Key: "v", Value: bson.A{int32(1), "two", 3.0, nil}}},
		},
		{
			name: "nested mapping",
			doc: bson.D{
				{Key: "_id", Value: int32(1)},
				{Key: "v", Value: bson.D{
					{Key: "inner", Value: bson.D{{Key: "ts", Value: bson.Timestamp{T: 42, I: 1}}}},
					{Key: "list", Value: bson.A{bson.D{{Key: "k", Value: int64(9)}}}},
				}},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			line, err := ejsonl.Marshal(test.doc)
			require.NoError(t, err)
			assert.NotContains(t, string(line), "\n", "encoded document must be a single line")

			got, err := ejsonl.Unmarshal(line)
			require.NoError(t, err)
			assert.Equal(t, test.doc, got)
		})
	}
}

func TestFieldOrderPreserved(t *testing.T) {
	t.Parallel()

	doc := bson.D{{Key: "_id", Value: int32(1)}, {Key: "b", Value: int32(2)}, {Key: "a", Value: int32(3)}, {Key: "z", Value: int32(4)}}

	line, err := ejsonl.Marshal(doc)
	require.NoError(t, err)

	got, err := ejsonl.Unmarshal(line)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestUnmarshalLineMalformed(t *testing.T) {
	t.Parallel()

	_, err := ejsonl.UnmarshalLine([]byte(`{"_id": 1, "broken":`), 17)
	require.Error(t, err)

	var decodeErr *ejsonl.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, 17, decodeErr.Line)
	assert.Contains(t, err.Error(), "line 17")
}

func TestMarshalRawDocument(t *testing.T) {
	t.Parallel()

	doc := bson.D{{Key: "_id", Value: int32(5)}, {Key: "name", Value: "raw"}}

	data, err := bson.Marshal(doc)
	require.NoError(t, err)

	line, err := ejsonl.Marshal(bson.Raw(data))
	require.NoError(t, err)

	got, err := ejsonl.Unmarshal(line)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}
