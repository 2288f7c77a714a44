package notion

import (
	"context"
	"fmt"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
	"github.com/shhac/agent-notion-sub000/pkg/constants"
	"github.com/shhac/agent-notion-sub000/pkg/property"
	"github.com/shhac/agent-notion-sub000/pkg/recordmap"
)

const defaultRowLimit = 50

// QueryCollectionRows returns the rows of a collection as seen through one
// of its views, each flattened through the collection schema. Every schema
// column is present on every row.
func (c *Client) QueryCollectionRows(ctx context.Context, collectionID, viewID string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = defaultRowLimit
	}

	res, err := connection.Send[queryCollectionResponse](ctx, c.con, connection.QueryCollection, queryCollectionRequest{
		Collection:     Pointer{Table: recordmap.TableCollection, ID: collectionID, SpaceID: c.creds.SpaceID},
		CollectionView: Pointer{Table: recordmap.TableCollectionView, ID: viewID, SpaceID: c.creds.SpaceID},
		Loader: collectionLoader{
			Type: "reducer",
			Reducers: map[string]collectionReducer{
				groupResultsReducer: {Type: "results", Limit: limit},
			},
			UserTimeZone: "UTC",
		},
	})
	if err != nil {
		return nil, err
	}

	rm := orEmpty(res.RecordMap)
	schema, err := c.collectionSchema(ctx, rm, collectionID)
	if err != nil {
		return nil, err
	}

	ids := res.Result.ReducerResults[groupResultsReducer].BlockIDs
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		b, ok := rm.Block(id)
		if !ok {
			continue
		}
		rows = append(rows, Row{ID: id, Properties: property.FlattenProperties(b.Properties, schema)})
	}
	return rows, nil
}

// collectionSchema reads the schema from rm, fetching the collection record
// when the response did not carry it.
func (c *Client) collectionSchema(ctx context.Context, rm recordmap.RecordMap, collectionID string) (property.Schema, error) {
	if coll, ok := recordmap.Lookup[recordmap.Collection](rm, recordmap.TableCollection, collectionID); ok {
		return coll.Schema, nil
	}

	fetched, err := c.SyncRecordValues(ctx, []Pointer{{Table: recordmap.TableCollection, ID: collectionID}})
	if err != nil {
		return nil, err
	}
	coll, ok := recordmap.Lookup[recordmap.Collection](fetched, recordmap.TableCollection, collectionID)
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", constants.ErrNotFound, collectionID)
	}
	return coll.Schema, nil
}
