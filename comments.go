package notion

import (
	"context"
	"fmt"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
	"github.com/shhac/agent-notion-sub000/pkg/constants"
	"github.com/shhac/agent-notion-sub000/pkg/recordmap"
	"github.com/shhac/agent-notion-sub000/pkg/richtext"
)

// InlineComments returns the discussions on blockID found in rm, in the
// block's order, with the text each one is anchored on.
func (c *Client) InlineComments(rm recordmap.RecordMap, blockID string) ([]InlineComment, error) {
	b, ok := rm.Block(blockID)
	if !ok {
		return nil, fmt.Errorf("%w: block %s", constants.ErrNotFound, blockID)
	}

	title := b.Properties["title"]
	out := make([]InlineComment, 0, len(b.Discussions))
	for _, id := range b.Discussions {
		d, ok := recordmap.Lookup[recordmap.Discussion](rm, recordmap.TableDiscussion, id)
		if !ok {
			continue
		}

		ic := InlineComment{DiscussionID: id, Resolved: d.Resolved, Comments: []CommentText{}}
		if anchor, ok := richtext.ExtractTextByDecoration(title, richtext.CommentAnchor{DiscussionID: id}.Key()); ok {
			ic.AnchorText = anchor
		}
		for _, commentID := range d.Comments {
			cm, ok := recordmap.Lookup[recordmap.Comment](rm, recordmap.TableComment, commentID)
			if !ok || !cm.Alive {
				continue
			}
			ic.Comments = append(ic.Comments, CommentText{ID: cm.ID, AuthorID: cm.CreatedByID, Text: cm.Text.PlainText()})
		}
		out = append(out, ic)
	}
	return out, nil
}

// AddInlineComment starts a discussion on the first occurrence of
// anchorText in the title of blockID. The block's title is rewritten with a
// comment anchor over that text and saved together with the new discussion
// and its first comment in one transaction.
func (c *Client) AddInlineComment(ctx context.Context, rm recordmap.RecordMap, blockID, anchorText, text string) (*InlineComment, error) {
	b, ok := rm.Block(blockID)
	if !ok {
		return nil, fmt.Errorf("%w: block %s", constants.ErrNotFound, blockID)
	}

	discussionID := c.newID()
	commentID := c.newID()

	title, err := richtext.InjectAnchorByText(b.Properties["title"], anchorText, richtext.CommentAnchor{DiscussionID: discussionID})
	if err != nil {
		return nil, fmt.Errorf("anchoring comment on block %s: %w", blockID, err)
	}

	spaceID := b.SpaceID
	if spaceID == "" {
		spaceID = c.creds.SpaceID
	}
	blockPtr := Pointer{Table: recordmap.TableBlock, ID: blockID, SpaceID: spaceID}

	ops := []operation{
		{
			Pointer: Pointer{Table: recordmap.TableDiscussion, ID: discussionID, SpaceID: spaceID},
			Path:    []string{},
			Command: commandSet,
			Args: discussionArgs{
				ID:          discussionID,
				Version:     1,
				ParentID:    blockID,
				ParentTable: string(recordmap.TableBlock),
				SpaceID:     spaceID,
				Context:     richtext.FromPlainText(anchorText),
				Comments:    []string{commentID},
			},
		},
		{
			Pointer: Pointer{Table: recordmap.TableComment, ID: commentID, SpaceID: spaceID},
			Path:    []string{},
			Command: commandSet,
			Args: commentArgs{
				ID:             commentID,
				Version:        1,
				ParentID:       discussionID,
				ParentTable:    string(recordmap.TableDiscussion),
				SpaceID:        spaceID,
				Text:           richtext.FromPlainText(text),
				Alive:          true,
				CreatedByID:    c.creds.UserID,
				CreatedByTable: string(recordmap.TableUser),
				CreatedTime:    c.now().UnixMilli(),
			},
		},
		{
			Pointer: blockPtr,
			Path:    []string{"discussions"},
			Command: commandListAfter,
			Args:    listAfterArgs{ID: discussionID},
		},
		{
			Pointer: blockPtr,
			Path:    []string{"properties", "title"},
			Command: commandSet,
			Args:    title,
		},
	}

	err = c.con.Send(ctx, connection.SaveTransactions, saveTransactionsRequest{
		RequestID: c.newID(),
		Transactions: []transaction{{
			ID:         c.newID(),
			SpaceID:    spaceID,
			Operations: ops,
		}},
	}, nil)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Str("block", blockID).Str("discussion", discussionID).Msg("inline comment added")

	return &InlineComment{
		DiscussionID: discussionID,
		AnchorText:   anchorText,
		Comments:     []CommentText{{ID: commentID, AuthorID: c.creds.UserID, Text: text}},
	}, nil
}
