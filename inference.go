package notion

import (
	"context"
	"errors"
	"time"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
	"github.com/shhac/agent-notion-sub000/pkg/inference"
	"github.com/shhac/agent-notion-sub000/pkg/ndjson"
)

var errEmptyPrompt = errors.New("empty prompt")

// RunInference sends one user turn and consumes the answer stream. New
// threads answer with cumulative events and continued threads with patches;
// both are normalized before the text reaches sink. On a stream failure the
// partial Result is returned with the error.
func (c *Client) RunInference(ctx context.Context, req InferenceRequest, sink inference.Sink) (inference.Result, error) {
	if req.Prompt == "" {
		return inference.Result{}, errEmptyPrompt
	}

	newThread := req.ThreadID == ""
	threadID := req.ThreadID
	if newThread {
		threadID = c.newID()
	}
	traceID := c.newID()

	body, err := c.con.Stream(ctx, connection.RunInferenceTranscript, c.inferenceBody(req, traceID, threadID, newThread))
	if err != nil {
		return inference.Result{}, err
	}
	defer body.Close()

	dec := ndjson.NewDecoder(body, ndjson.WithLogger(c.log))
	res, err := inference.Accumulate(inference.NewReconstructor(dec, inference.WithLogger(c.log)), sink)
	if res.TraceID == "" {
		res.TraceID = traceID
	}
	res.ThreadID = threadID

	c.log.Debug().
		Str("thread", threadID).
		Str("trace", res.TraceID).
		Bool("new_thread", newThread).
		Int("skipped_lines", dec.Skipped()).
		Msg("inference finished")

	return res, err
}

func (c *Client) inferenceBody(req InferenceRequest, traceID, threadID string, newThread bool) inferenceRunRequest {
	now := c.now().UTC()
	timeZone := req.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}

	return inferenceRunRequest{
		TraceID: traceID,
		SpaceID: c.creds.SpaceID,
		Transcript: []transcriptEntry{
			{Type: "config", Value: transcriptConfig{Type: "markdown-chat", Model: req.Model}},
			{Type: "context", Value: transcriptContext{
				TimeZone:        timeZone,
				UserID:          c.creds.UserID,
				SpaceID:         c.creds.SpaceID,
				CurrentDatetime: now.Format(time.RFC3339),
				Surface:         "ai_module",
				BlockID:         req.PageID,
			}},
			{Type: "user", Value: [][]string{{req.Prompt}}, UserID: c.creds.UserID, CreatedAt: now.Format(time.RFC3339)},
		},
		ThreadID:                threadID,
		CreateThread:            newThread,
		GenerateTitle:           newThread,
		SaveAllThreadOperations: true,
		IsPartialTranscript:     !newThread,
		ThreadType:              "markdown-chat",
	}
}
