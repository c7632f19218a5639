package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IssueKind classifies a data problem found in a snapshot.
type IssueKind string

// Issue kinds.
const (
	IssueMissingField     IssueKind = "missing_field"
	IssueDuplicateID      IssueKind = "duplicate_id"
	IssueDanglingEdge     IssueKind = "dangling_edge"
	IssueUnknownNodeType  IssueKind = "unknown_node_type"
	IssueUnknownEdgeType  IssueKind = "unknown_edge_type"
	IssueInvalidPosition  IssueKind = "invalid_position"
	IssueMissingNodeLabel IssueKind = "missing_label"
)

// Issue describes a single problem. Issues never stop a render: the core
// degrades per node or per edge, and issues exist to be logged.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	ID      string    `json:"id"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Kind, i.ID, i.Message)
}

// Validate reports every data problem in the snapshot, in input order.
func Validate(s Snapshot) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(s.Nodes))

	for i, n := range s.Nodes {
		if err := validate.Struct(n); err != nil {
			issues = append(issues, structIssues(fmt.Sprintf("nodes[%d]", i), err)...)
		}
		if n.ID != "" && seen[n.ID] {
			issues = append(issues, Issue{IssueDuplicateID, n.ID, "node id appears more than once"})
		}
		seen[n.ID] = true
		if !n.Type.Valid() {
			issues = append(issues, Issue{IssueUnknownNodeType, n.ID, fmt.Sprintf("unknown node type %q", n.Type)})
		}
		if !finite(n.Position.X) || !finite(n.Position.Y) {
			issues = append(issues, Issue{IssueInvalidPosition, n.ID, "position is not finite"})
		}
		if n.Data.Label == "" && n.Type != NodeTextBlock {
			issues = append(issues, Issue{IssueMissingNodeLabel, n.ID, "node has no label"})
		}
	}

	edgeSeen := make(map[string]bool, len(s.Edges))
	for i, e := range s.Edges {
		if err := validate.Struct(e); err != nil {
			issues = append(issues, structIssues(fmt.Sprintf("edges[%d]", i), err)...)
		}
		if e.ID != "" && edgeSeen[e.ID] {
			issues = append(issues, Issue{IssueDuplicateID, e.ID, "edge id appears more than once"})
		}
		edgeSeen[e.ID] = true
		if e.Source != "" && !seen[e.Source] {
			issues = append(issues, Issue{IssueDanglingEdge, e.ID, fmt.Sprintf("source %q not found", e.Source)})
		}
		if e.Target != "" && !seen[e.Target] {
			issues = append(issues, Issue{IssueDanglingEdge, e.ID, fmt.Sprintf("target %q not found", e.Target)})
		}
		if raw := e.Data.EdgeType; raw != "" && !EdgeType(raw).Valid() {
			issues = append(issues, Issue{IssueUnknownEdgeType, e.ID, fmt.Sprintf("unknown edge type %q, using hierarchy", raw)})
		}
	}
	return issues
}

func structIssues(where string, err error) []Issue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{IssueMissingField, where, err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Kind:    IssueMissingField,
			ID:      where,
			Message: fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()),
		})
	}
	return issues
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
