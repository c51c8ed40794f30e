package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
)

// countQuery runs a server-side count aggregation instead of reading every document.
func countQuery(ctx context.Context, q firestore.Query) (int64, error) {
	results, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := results["total"]
	if !ok {
		return 0, fmt.Errorf("count aggregation returned no total")
	}
	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count aggregation type %T", raw)
	}
	return value.GetIntegerValue(), nil
}

func paginate(q firestore.Query, limit, offset int) firestore.Query {
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

// decodeAll drains the iterator into a slice of T.
func decodeAll[T any](iter *firestore.DocumentIterator) ([]*T, error) {
	defer iter.Stop()

	items := make([]*T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, nil
}

// pageSlice applies limit/offset to an in-memory result set.
func pageSlice[T any](items []*T, limit, offset int) []*T {
	if offset >= len(items) {
		return []*T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// stringOrDelete mirrors omitempty for field-level updates.
func stringOrDelete(v string) interface{} {
	if v == "" {
		return firestore.Delete
	}
	return v
}

func timeOrDelete(t *time.Time) interface{} {
	if t == nil {
		return firestore.Delete
	}
	return *t
}
