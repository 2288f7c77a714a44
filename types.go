package notion

import (
	"github.com/shhac/agent-notion-sub000/pkg/property"
	"github.com/shhac/agent-notion-sub000/pkg/recordmap"
	"github.com/shhac/agent-notion-sub000/pkg/richtext"
)

// Pointer addresses one record.
type Pointer struct {
	Table   recordmap.Table `json:"table"`
	ID      string          `json:"id"`
	SpaceID string          `json:"spaceId,omitempty"`
}

// Backlink is a block that mentions another block.
type Backlink struct {
	BlockID string `json:"blockId"`
	// Title is the mentioning block's title when the response included it.
	Title string `json:"title,omitempty"`
}

type ActivityQuery struct {
	SpaceID          string
	NavigableBlockID string
	Limit            int
	StartingAfterID  string
}

// Row is a collection row with its properties flattened and keyed by
// column name.
type Row struct {
	ID         string                    `json:"id"`
	Properties map[string]property.Value `json:"properties"`
}

// InlineComment is a discussion anchored on part of a block's text.
type InlineComment struct {
	DiscussionID string `json:"discussionId"`
	// AnchorText is empty for discussions on the block as a whole.
	AnchorText string        `json:"anchorText,omitempty"`
	Resolved   bool          `json:"resolved"`
	Comments   []CommentText `json:"comments"`
}

type CommentText struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId,omitempty"`
	Text     string `json:"text"`
}

// InferenceRequest is one user turn of an AI conversation.
type InferenceRequest struct {
	Prompt string
	// ThreadID continues an existing conversation; empty starts a new one.
	ThreadID string
	Model    string
	// PageID scopes the conversation to a page when set.
	PageID   string
	TimeZone string
}

type pageChunkRequest struct {
	PageID          string     `json:"pageId"`
	Limit           int        `json:"limit"`
	Cursor          pageCursor `json:"cursor"`
	ChunkNumber     int        `json:"chunkNumber"`
	VerticalColumns bool       `json:"verticalColumns"`
}

type pageCursor struct {
	Stack [][]cursorEntry `json:"stack"`
}

type cursorEntry struct {
	Table string `json:"table"`
	ID    string `json:"id"`
	Index int    `json:"index"`
}

type recordMapResponse struct {
	RecordMap recordmap.RecordMap `json:"recordMap"`
}

type syncRequest struct {
	Requests []syncRecordRequest `json:"requests"`
}

type syncRecordRequest struct {
	Pointer Pointer `json:"pointer"`
	Version int     `json:"version"`
}

type backlinksRequest struct {
	Block Pointer `json:"block"`
}

type backlinksResponse struct {
	Backlinks []struct {
		BlockID       string `json:"block_id"`
		MentionedFrom struct {
			Type    string `json:"type"`
			BlockID string `json:"block_id"`
		} `json:"mentioned_from"`
	} `json:"backlinks"`
	RecordMap recordmap.RecordMap `json:"recordMap"`
}

type activityLogRequest struct {
	SpaceID          string `json:"spaceId"`
	NavigableBlockID string `json:"navigableBlockId,omitempty"`
	Limit            int    `json:"limit"`
	StartingAfterID  string `json:"startingAfterId,omitempty"`
}

type activityLogResponse struct {
	ActivityIDs []string            `json:"activityIds"`
	RecordMap   recordmap.RecordMap `json:"recordMap"`
}

type queryCollectionRequest struct {
	Collection     Pointer          `json:"collection"`
	CollectionView Pointer          `json:"collectionView"`
	Loader         collectionLoader `json:"loader"`
}

type collectionLoader struct {
	Type         string                       `json:"type"`
	Reducers     map[string]collectionReducer `json:"reducers"`
	SearchQuery  string                       `json:"searchQuery"`
	UserTimeZone string                       `json:"userTimeZone"`
}

type collectionReducer struct {
	Type  string `json:"type"`
	Limit int    `json:"limit"`
}

const groupResultsReducer = "collection_group_results"

type queryCollectionResponse struct {
	Result struct {
		ReducerResults map[string]struct {
			BlockIDs []string `json:"blockIds"`
			HasMore  bool     `json:"hasMore"`
		} `json:"reducerResults"`
	} `json:"result"`
	RecordMap recordmap.RecordMap `json:"recordMap"`
}

type saveTransactionsRequest struct {
	RequestID    string        `json:"requestId"`
	Transactions []transaction `json:"transactions"`
}

type transaction struct {
	ID         string      `json:"id"`
	SpaceID    string      `json:"spaceId"`
	Operations []operation `json:"operations"`
}

// operation commands of saveTransactions.
const (
	commandSet       = "set"
	commandListAfter = "listAfter"
)

type operation struct {
	Pointer Pointer  `json:"pointer"`
	Path    []string `json:"path"`
	Command string   `json:"command"`
	Args    any      `json:"args"`
}

type discussionArgs struct {
	ID          string            `json:"id"`
	Version     int               `json:"version"`
	ParentID    string            `json:"parent_id"`
	ParentTable string            `json:"parent_table"`
	SpaceID     string            `json:"space_id"`
	Context     richtext.RichText `json:"context"`
	Resolved    bool              `json:"resolved"`
	Comments    []string          `json:"comments"`
}

type commentArgs struct {
	ID             string            `json:"id"`
	Version        int               `json:"version"`
	ParentID       string            `json:"parent_id"`
	ParentTable    string            `json:"parent_table"`
	SpaceID        string            `json:"space_id"`
	Text           richtext.RichText `json:"text"`
	Alive          bool              `json:"alive"`
	CreatedByID    string            `json:"created_by_id"`
	CreatedByTable string            `json:"created_by_table"`
	CreatedTime    int64             `json:"created_time"`
}

type listAfterArgs struct {
	ID string `json:"id"`
}

type inferenceRunRequest struct {
	TraceID                 string            `json:"traceId"`
	SpaceID                 string            `json:"spaceId"`
	Transcript              []transcriptEntry `json:"transcript"`
	ThreadID                string            `json:"threadId"`
	CreateThread            bool              `json:"createThread"`
	GenerateTitle           bool              `json:"generateTitle"`
	SaveAllThreadOperations bool              `json:"saveAllThreadOperations"`
	IsPartialTranscript     bool              `json:"isPartialTranscript"`
	ThreadType              string            `json:"threadType"`
}

type transcriptEntry struct {
	Type      string `json:"type"`
	Value     any    `json:"value"`
	UserID    string `json:"userId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type transcriptConfig struct {
	Type  string `json:"type"`
	Model string `json:"model,omitempty"`
}

type transcriptContext struct {
	TimeZone        string `json:"timezone"`
	UserID          string `json:"userId"`
	SpaceID         string `json:"spaceId"`
	CurrentDatetime string `json:"currentDatetime"`
	Surface         string `json:"surface"`
	BlockID         string `json:"blockId,omitempty"`
}

type spacesResponse map[string]recordmap.RecordMap
