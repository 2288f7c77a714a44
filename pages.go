package notion

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
	"github.com/shhac/agent-notion-sub000/pkg/constants"
	"github.com/shhac/agent-notion-sub000/pkg/recordmap"
)

// LoadPageChunk loads the first chunk of a page: the page block, its
// children and the records they reference.
func (c *Client) LoadPageChunk(ctx context.Context, pageID string, limit int) (recordmap.RecordMap, error) {
	res, err := connection.Send[recordMapResponse](ctx, c.con, connection.LoadPageChunk, pageChunkRequest{
		PageID: pageID,
		Limit:  limit,
		Cursor: pageCursor{Stack: [][]cursorEntry{}},
	})
	if err != nil {
		return nil, err
	}
	return orEmpty(res.RecordMap), nil
}

// SyncRecordValues fetches the latest version of each pointed-to record.
func (c *Client) SyncRecordValues(ctx context.Context, pointers []Pointer) (recordmap.RecordMap, error) {
	if len(pointers) == 0 {
		return recordmap.RecordMap{}, nil
	}

	req := syncRequest{Requests: make([]syncRecordRequest, 0, len(pointers))}
	for _, p := range pointers {
		if p.SpaceID == "" {
			p.SpaceID = c.creds.SpaceID
		}
		req.Requests = append(req.Requests, syncRecordRequest{Pointer: p, Version: -1})
	}

	res, err := connection.Send[recordMapResponse](ctx, c.con, connection.SyncRecordValues, req)
	if err != nil {
		return nil, err
	}
	return orEmpty(res.RecordMap), nil
}

// LoadChildren returns the alive children of parentID, fetching the ones
// missing from rm. The returned map is rm merged with everything fetched;
// rm itself is left untouched.
func (c *Client) LoadChildren(ctx context.Context, rm recordmap.RecordMap, parentID string) (recordmap.RecordMap, []*recordmap.Block, error) {
	if _, ok := rm.Block(parentID); !ok {
		return nil, nil, fmt.Errorf("%w: block %s", constants.ErrNotFound, parentID)
	}

	missing := rm.MissingChildren(parentID)
	batches := slices.Collect(slices.Chunk(missing, constants.ChildFetchBatchSize))
	fetched := make([]recordmap.RecordMap, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ChildFetchConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			pointers := make([]Pointer, 0, len(batch))
			for _, id := range batch {
				pointers = append(pointers, Pointer{Table: recordmap.TableBlock, ID: id})
			}
			res, err := c.SyncRecordValues(gctx, pointers)
			if err != nil {
				return err
			}
			fetched[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := rm.Merge(nil)
	for _, res := range fetched {
		merged = merged.Merge(res)
	}

	c.log.Debug().
		Str("parent", parentID).
		Int("missing", len(missing)).
		Int("batches", len(batches)).
		Msg("loaded children")

	return merged, merged.Children(parentID), nil
}

// GetBacklinks lists the blocks that mention blockID, once each.
func (c *Client) GetBacklinks(ctx context.Context, blockID string) ([]Backlink, error) {
	res, err := connection.Send[backlinksResponse](ctx, c.con, connection.GetBacklinksForBlock, backlinksRequest{
		Block: Pointer{Table: recordmap.TableBlock, ID: blockID, SpaceID: c.creds.SpaceID},
	})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := []Backlink{}
	for _, bl := range res.Backlinks {
		id := bl.MentionedFrom.BlockID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		link := Backlink{BlockID: id}
		if b, ok := res.RecordMap.Block(id); ok {
			link.Title = b.Title()
		}
		out = append(out, link)
	}
	return out, nil
}

// GetActivityLog returns activity entries newest first, as the service
// orders them.
func (c *Client) GetActivityLog(ctx context.Context, q ActivityQuery) ([]recordmap.Activity, error) {
	if q.SpaceID == "" {
		q.SpaceID = c.creds.SpaceID
	}
	res, err := connection.Send[activityLogResponse](ctx, c.con, connection.GetActivityLog, activityLogRequest{
		SpaceID:          q.SpaceID,
		NavigableBlockID: q.NavigableBlockID,
		Limit:            q.Limit,
		StartingAfterID:  q.StartingAfterID,
	})
	if err != nil {
		return nil, err
	}

	out := make([]recordmap.Activity, 0, len(res.ActivityIDs))
	for _, id := range res.ActivityIDs {
		act, ok := recordmap.Lookup[recordmap.Activity](res.RecordMap, recordmap.TableActivity, id)
		if !ok {
			c.log.Debug().Str("activity", id).Msg("activity missing from response")
			continue
		}
		out = append(out, *act)
	}
	return out, nil
}

// Spaces lists the spaces the current user belongs to.
func (c *Client) Spaces(ctx context.Context) ([]recordmap.Space, error) {
	res, err := connection.Send[spacesResponse](ctx, c.con, connection.GetSpaces, nil)
	if err != nil {
		return nil, err
	}

	var out []recordmap.Space
	for userID, rm := range *res {
		if c.creds.UserID != "" && userID != c.creds.UserID {
			continue
		}
		for _, id := range rm.IDs(recordmap.TableSpace) {
			if s, ok := recordmap.Lookup[recordmap.Space](rm, recordmap.TableSpace, id); ok {
				out = append(out, *s)
			}
		}
	}
	slices.SortFunc(out, func(a, b recordmap.Space) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func orEmpty(rm recordmap.RecordMap) recordmap.RecordMap {
	if rm == nil {
		return recordmap.RecordMap{}
	}
	return rm
}
