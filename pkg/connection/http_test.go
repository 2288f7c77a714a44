package connection

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

type RoundTripFunc func(req *http.Request) *http.Response

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

// NewTestClient returns *http.Client with Transport replaced to avoid making real calls
func NewTestClient(fn RoundTripFunc) *http.Client {
	return &http.Client{
		Transport: fn,
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		// Must be set to non-nil value or it panics
		Header: make(http.Header),
	}
}

var testCredentials = Credentials{Token: "tok-123", UserID: "user-1", SpaceID: "space-1"}

type HTTPTestSuite struct {
	suite.Suite
}

func TestHTTPTestSuite(t *testing.T) {
	suite.Run(t, new(HTTPTestSuite))
}

func (s *HTTPTestSuite) newConnection(base string, client *http.Client) *HTTP {
	u, err := url.Parse(base)
	s.Require().NoError(err)
	con := New(NewConfig(u, testCredentials))
	if client != nil {
		con.SetHTTPClient(client)
	}
	return con
}

func (s *HTTPTestSuite) TestSend_requestShape() {
	var called bool
	client := NewTestClient(func(req *http.Request) *http.Response {
		called = true
		s.Equal(http.MethodPost, req.Method)
		s.Equal("https://workspace.test/api/v3/loadPageChunk", req.URL.String())
		s.Equal("application/json", req.Header.Get("Content-Type"))
		s.Equal("user-1", req.Header.Get(constants.HeaderActiveUser))
		s.Equal("space-1", req.Header.Get(constants.HeaderSpaceID))

		cookie, err := req.Cookie(constants.TokenCookieName)
		s.Require().NoError(err)
		s.Equal("tok-123", cookie.Value)

		body, err := io.ReadAll(req.Body)
		s.Require().NoError(err)
		s.JSONEq(`{"pageId":"p1","limit":30}`, string(body))

		return jsonResponse(http.StatusOK, `{"recordMap":{"block":{}},"cursor":{"stack":[]}}`)
	})

	con := s.newConnection("https://workspace.test/ignored/path", client)

	var out struct {
		RecordMap map[string]any `json:"recordMap"`
	}
	err := con.Send(context.Background(), LoadPageChunk, map[string]any{"pageId": "p1", "limit": 30}, &out)
	s.Require().NoError(err)
	s.True(called)
	s.Contains(out.RecordMap, "block")
}

func (s *HTTPTestSuite) TestSend_typed() {
	client := NewTestClient(func(req *http.Request) *http.Response {
		body, _ := io.ReadAll(req.Body)
		s.JSONEq(`{}`, string(body))
		return jsonResponse(http.StatusOK, `{"backlinks":[{"block_id":"b1"}]}`)
	})
	con := s.newConnection("https://workspace.test", client)

	type backlinks struct {
		Backlinks []struct {
			BlockID string `json:"block_id"`
		} `json:"backlinks"`
	}
	res, err := Send[backlinks](context.Background(), con, GetBacklinksForBlock, nil)
	s.Require().NoError(err)
	s.Require().Len(res.Backlinks, 1)
	s.Equal("b1", res.Backlinks[0].BlockID)
}

func (s *HTTPTestSuite) TestSend_protocolError() {
	long := strings.Repeat("x", 2000)
	client := NewTestClient(func(req *http.Request) *http.Response {
		return jsonResponse(http.StatusBadRequest, long)
	})
	con := s.newConnection("https://workspace.test", client)

	err := con.Send(context.Background(), SyncRecordValues, map[string]any{}, nil)
	s.Require().Error(err, "should return error for status code 400")

	var perr *ProtocolError
	s.Require().True(errors.As(err, &perr))
	s.Equal(http.StatusBadRequest, perr.Status)
	s.Equal(SyncRecordValues, perr.Endpoint)
	s.Len(perr.BodySnippet, constants.ErrorBodySnippetLength)
	s.ErrorIs(err, &ProtocolError{})
	s.NotErrorIs(err, constants.ErrTimeout)
}

func (s *HTTPTestSuite) TestSend_invalidJSON() {
	client := NewTestClient(func(req *http.Request) *http.Response {
		return jsonResponse(http.StatusOK, `not json`)
	})
	con := s.newConnection("https://workspace.test", client)

	var out map[string]any
	err := con.Send(context.Background(), GetSpaces, nil, &out)
	s.ErrorIs(err, constants.ErrInvalidResponse)
}

func (s *HTTPTestSuite) TestRejectedBeforeIO() {
	client := NewTestClient(func(req *http.Request) *http.Response {
		s.Fail("no request expected", req.URL.String())
		return jsonResponse(http.StatusOK, `{}`)
	})
	ctx := context.Background()

	con := s.newConnection("https://workspace.test", client)
	s.ErrorIs(con.Send(ctx, Endpoint("deleteEverything"), nil, nil), constants.ErrUnknownEndpoint)
	_, err := con.Stream(ctx, Endpoint("deleteEverything"), nil)
	s.ErrorIs(err, constants.ErrUnknownEndpoint)

	s.ErrorIs(con.Send(ctx, RunInferenceTranscript, nil, nil), constants.ErrStreamingOnly)
	_, err = con.Stream(ctx, LoadPageChunk, nil)
	s.ErrorIs(err, constants.ErrNotStreaming)

	noBase := New(&Config{Credentials: testCredentials, HTTPClient: client})
	s.ErrorIs(noBase.Send(ctx, LoadPageChunk, nil, nil), constants.ErrNoBaseURL)

	noToken := New(&Config{BaseURL: "https://workspace.test", HTTPClient: client})
	s.ErrorIs(noToken.Send(ctx, LoadPageChunk, nil, nil), constants.ErrNoCredentials)
}

func (s *HTTPTestSuite) TestDeadlines() {
	con := New(&Config{BaseURL: "https://workspace.test"})
	s.Equal(constants.DefaultTimeout, con.deadline(LoadPageChunk))
	s.Equal(constants.DefaultSlowTimeout, con.deadline(RunInferenceTranscript))
	s.Equal(constants.DefaultSlowTimeout, con.deadline(QueryCollection))

	con.SetTimeout(time.Second).SetSlowTimeout(time.Minute)
	s.Equal(time.Second, con.deadline(SaveTransactions))
	s.Equal(time.Minute, con.deadline(RunInferenceTranscript))
}

func (s *HTTPTestSuite) TestSend_timeout() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	con := s.newConnection(srv.URL, nil)
	con.SetTimeout(50 * time.Millisecond)

	err := con.Send(context.Background(), LoadPageChunk, nil, nil)
	s.ErrorIs(err, constants.ErrTimeout)
}

func (s *HTTPTestSuite) TestSend_callerCancelIsNotTimeout() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	con := s.newConnection(srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := con.Send(ctx, LoadPageChunk, nil, nil)
	s.Require().Error(err)
	s.NotErrorIs(err, constants.ErrTimeout)
	s.ErrorIs(err, context.Canceled)
}

func (s *HTTPTestSuite) TestStream_lines() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v3/runInferenceTranscript", r.URL.Path)
		s.Equal("application/x-ndjson", r.Header.Get("Accept"))
		flusher := w.(http.Flusher)
		for i := range 3 {
			fmt.Fprintf(w, `{"type":"agent-inference","n":%d}`+"\n", i)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	var logs bytes.Buffer
	u, _ := url.Parse(srv.URL)
	cfg := NewConfig(u, testCredentials)
	cfg.Logger = zerolog.New(&logs).Level(zerolog.DebugLevel)
	con := New(cfg)

	body, err := con.Stream(context.Background(), RunInferenceTranscript, map[string]any{"traceId": "t"})
	s.Require().NoError(err)
	defer body.Close()

	var got []int
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		var ev struct {
			N int `json:"n"`
		}
		s.Require().NoError(json.Unmarshal(sc.Bytes(), &ev))
		got = append(got, ev.N)
	}
	s.Require().NoError(sc.Err())
	s.Equal([]int{0, 1, 2}, got)

	s.Contains(logs.String(), `"endpoint":"runInferenceTranscript"`)
	s.Contains(logs.String(), `"stream":true`)
}

func (s *HTTPTestSuite) TestStream_timeoutMidStream() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"agent-inference"}`)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	con := s.newConnection(srv.URL, nil)
	con.SetSlowTimeout(100 * time.Millisecond)

	body, err := con.Stream(context.Background(), RunInferenceTranscript, nil)
	s.Require().NoError(err)
	defer body.Close()

	data, err := io.ReadAll(body)
	s.ErrorIs(err, constants.ErrTimeout)
	s.Contains(string(data), "agent-inference")
}

func (s *HTTPTestSuite) TestStream_protocolError() {
	client := NewTestClient(func(req *http.Request) *http.Response {
		return jsonResponse(http.StatusUnauthorized, `{"errorId":"x","name":"UnauthorizedError"}`)
	})
	con := s.newConnection("https://workspace.test", client)

	_, err := con.Stream(context.Background(), RunInferenceTranscript, nil)

	var perr *ProtocolError
	s.Require().ErrorAs(err, &perr)
	s.Equal(http.StatusUnauthorized, perr.Status)
	s.Contains(perr.Error(), "UnauthorizedError")
}

func TestEndpoints(t *testing.T) {
	eps := Endpoints()
	if len(eps) != len(endpoints) {
		t.Fatalf("got %d endpoints, want %d", len(eps), len(endpoints))
	}
	for i := 1; i < len(eps); i++ {
		if eps[i-1] >= eps[i] {
			t.Fatalf("endpoints not sorted: %v", eps)
		}
	}
	if !RunInferenceTranscript.Streaming() || LoadPageChunk.Streaming() {
		t.Fatal("only the inference run streams")
	}
	if Endpoint("nope").Valid() {
		t.Fatal("unknown endpoint reported valid")
	}
}
