package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/matzehuels/arithgraph/pkg/arith"
	"github.com/matzehuels/arithgraph/pkg/enum"
	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
	"github.com/matzehuels/arithgraph/pkg/graph"
	"github.com/matzehuels/arithgraph/pkg/search"
)

// TaskHeader carries the task ID on HTTP requests.
const TaskHeader = "X-Task-ID"

// =============================================================================
// Wire Format
// =============================================================================

// TaskMessage is the JSON form of a task sent to a remote worker:
//
//	{"id": "...", "graph": {"nodes": [...], "edges": [...]},
//	 "range": {"min": 1, "max": 10}, "prefix": [3]}
type TaskMessage struct {
	ID         string         `json:"id"`
	Graph      graph.Document `json:"graph"`
	Range      enum.Range     `json:"range"`
	Prefix     arith.Weights  `json:"prefix"`
	CheckEvery int            `json:"check_every,omitempty"`
}

// ResultMessage is the JSON form of a worker's answer. Exactly one of
// Solutions (possibly empty) or Error is meaningful.
type ResultMessage struct {
	ID         string          `json:"id"`
	Solutions  []arith.Weights `json:"solutions"`
	Candidates uint64          `json:"candidates"`
	Pruned     uint64          `json:"pruned"`
	Error      *ErrorMessage   `json:"error,omitempty"`
}

// ErrorMessage is a coded error that survives the wire.
type ErrorMessage struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// NewTaskMessage serialises t under the given ID.
func NewTaskMessage(id string, t search.Task) TaskMessage {
	prefix := t.Prefix
	if prefix == nil {
		prefix = arith.Weights{}
	}
	return TaskMessage{
		ID:         id,
		Graph:      graph.ToDocument(t.Graph),
		Range:      t.Range,
		Prefix:     prefix,
		CheckEvery: t.CheckEvery,
	}
}

// Task rebuilds the task, validating the graph.
func (m TaskMessage) Task() (search.Task, error) {
	g, err := graph.FromDocument(m.Graph)
	if err != nil {
		return search.Task{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "task %s: graph", m.ID)
	}
	return search.Task{
		Graph:      g,
		Range:      m.Range,
		Prefix:     m.Prefix,
		CheckEvery: m.CheckEvery,
	}, nil
}

// NewResultMessage builds the reply for a finished task.
func NewResultMessage(id string, res search.TaskResult, err error) ResultMessage {
	if err != nil {
		return ResultMessage{ID: id, Error: newErrorMessage(err)}
	}
	sols := res.Solutions
	if sols == nil {
		sols = []arith.Weights{}
	}
	return ResultMessage{
		ID:         id,
		Solutions:  sols,
		Candidates: res.Candidates,
		Pruned:     res.Pruned,
	}
}

func newErrorMessage(err error) *ErrorMessage {
	code := apperrors.GetCode(err)
	switch {
	case code != "":
	case errors.Is(err, context.DeadlineExceeded):
		code = apperrors.ErrCodeTimeout
	default:
		code = apperrors.ErrCodeInternal
	}
	msg := err.Error()
	var e *apperrors.Error
	if errors.As(err, &e) {
		msg = strings.TrimPrefix(msg, string(e.Code)+": ")
	}
	return &ErrorMessage{Code: code, Message: msg}
}

// Result converts the message back into a task result or a coded error.
func (m ResultMessage) Result() (search.TaskResult, error) {
	if m.Error != nil {
		return search.TaskResult{}, m.Error.Err()
	}
	return search.TaskResult{
		Solutions:  m.Solutions,
		Candidates: m.Candidates,
		Pruned:     m.Pruned,
	}, nil
}

// Err turns the message into an *errors.Error with the same code.
func (e *ErrorMessage) Err() error {
	code := e.Code
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	return &apperrors.Error{Code: code, Message: "worker: " + e.Message}
}
