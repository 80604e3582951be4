package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shipsync/internal/logger"
	"shipsync/internal/services/shopify"

	"golang.org/x/sync/errgroup"
)

// BatchSize is the most variant ids the Admin API accepts in one mutation.
const BatchSize = 200

// Runner executes an Admin GraphQL document. *shopify.Client implements it.
type Runner interface {
	Run(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error
}

// Assignment asks for variants to be moved into or out of one profile.
type Assignment struct {
	ProfileID    string
	ToAssociate  []string
	ToDissociate []string
}

type BatchResult struct {
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
	Size      int       `json:"size"`
	Shape     string    `json:"shape,omitempty"`
	Succeeded bool      `json:"succeeded"`
	Error     string    `json:"error,omitempty"`

	err error
}

type AssignmentResult struct {
	ProfileID string        `json:"profileId"`
	Batches   []BatchResult `json:"batches"`
}

// Result collects the outcome of every batch of a Reconcile call.
type Result struct {
	Assignments []AssignmentResult `json:"assignments"`
}

// Failure describes a batch that did not apply.
type Failure struct {
	ProfileID string    `json:"profileId"`
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
	Error     string    `json:"error"`
}

func (r *Result) OK() bool {
	return len(r.Failures()) == 0
}

func (r *Result) Failures() []Failure {
	var out []Failure
	for _, a := range r.Assignments {
		for _, b := range a.Batches {
			if !b.Succeeded {
				out = append(out, Failure{
					ProfileID: a.ProfileID,
					Index:     b.Index,
					Direction: b.Direction,
					Error:     b.Error,
				})
			}
		}
	}
	return out
}

// Err joins the errors of all failed batches, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, a := range r.Assignments {
		for _, b := range a.Batches {
			if b.Succeeded {
				continue
			}
			err := b.err
			if err == nil {
				err = errors.New(b.Error)
			}
			errs = append(errs, fmt.Errorf("profile %s batch %d (%s): %w", a.ProfileID, b.Index, b.Direction, err))
		}
	}
	return errors.Join(errs...)
}

// Calls returns the number of batches issued.
func (r *Result) Calls() int {
	n := 0
	for _, a := range r.Assignments {
		n += len(a.Batches)
	}
	return n
}

type Reconciler struct {
	runner Runner
	logger *logger.Logger
}

func NewReconciler(runner Runner, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		runner: runner,
		logger: logger,
	}
}

type batch struct {
	assignment int
	slot       int
	profileID  string
	direction  Direction
	ids        []string
}

// Reconcile applies every assignment. All batches run concurrently and the
// call returns once each has settled; a failed batch never stops the others.
func (r *Reconciler) Reconcile(ctx context.Context, assignments []Assignment) *Result {
	result := &Result{Assignments: make([]AssignmentResult, len(assignments))}

	var batches []batch
	for i, a := range assignments {
		result.Assignments[i].ProfileID = a.ProfileID
		associate := dedupe(a.ToAssociate, nil)
		dissociate := dedupe(a.ToDissociate, associate)

		for _, dir := range []Direction{Associate, Dissociate} {
			ids := associate
			if dir == Dissociate {
				ids = dissociate
			}
			for _, chunk := range chunkIDs(ids, BatchSize) {
				slot := len(result.Assignments[i].Batches)
				result.Assignments[i].Batches = append(result.Assignments[i].Batches, BatchResult{
					Index:     slot,
					Direction: dir,
					Size:      len(chunk),
				})
				batches = append(batches, batch{
					assignment: i,
					slot:       slot,
					profileID:  a.ProfileID,
					direction:  dir,
					ids:        chunk,
				})
			}
		}
	}

	var g errgroup.Group
	for _, b := range batches {
		b := b
		g.Go(func() error {
			shape, err := r.runBatch(ctx, b.profileID, b.direction, b.ids)
			br := &result.Assignments[b.assignment].Batches[b.slot]
			br.Shape = shape.String()
			if err != nil {
				br.err = err
				br.Error = err.Error()
				r.logger.Error("profile %s batch %d (%s, %d ids) failed: %v", b.profileID, b.slot, b.direction, len(b.ids), err)
				return nil
			}
			br.Succeeded = true
			r.logger.Debug("profile %s batch %d (%s, %d ids) applied via %s", b.profileID, b.slot, b.direction, len(b.ids), shape)
			return nil
		})
	}
	g.Wait()

	return result
}

// runBatch walks the shape chain until one shape is accepted. Only schema
// rejections and unsupported directions move on to the next shape.
func (r *Reconciler) runBatch(ctx context.Context, profileID string, dir Direction, ids []string) (MutationShape, error) {
	var lastErr error
	last := shapeChain[0]
	for _, shape := range shapeChain {
		m, ok := shape.build(profileID, dir, ids)
		if !ok {
			if lastErr == nil {
				lastErr = fmt.Errorf("%s mutation cannot %s variants", shape, dir)
			}
			continue
		}
		last = shape

		var data map[string]*mutationPayload
		if err := r.runner.Run(ctx, m.query, m.vars, &data); err != nil {
			if shopify.IsSchemaError(err) {
				r.logger.Warn("%s mutation rejected by schema, falling back: %v", shape, err)
				lastErr = err
				continue
			}
			return shape, err
		}

		payload := data[m.field]
		if payload == nil {
			return shape, fmt.Errorf("%s returned an empty payload", m.field)
		}
		if fatal := fatalUserErrors(payload.UserErrors); len(fatal) > 0 {
			return shape, &shopify.UserErrorsError{Action: m.field, Errors: fatal}
		}
		return shape, nil
	}
	return last, fmt.Errorf("no mutation shape accepted: %w", lastErr)
}

// benignMarkers match messages saying the requested state already holds:
// "already associated", "item exists", or "not associated" on dissociation.
var benignMarkers = []string{"already", "exists", "not associated"}

// IsBenign reports whether a user error only says the target state already holds.
func IsBenign(ue shopify.UserError) bool {
	msg := strings.ToLower(ue.Message)
	for _, marker := range benignMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func fatalUserErrors(errs []shopify.UserError) []shopify.UserError {
	var fatal []shopify.UserError
	for _, ue := range errs {
		if !IsBenign(ue) {
			fatal = append(fatal, ue)
		}
	}
	return fatal
}

// dedupe drops empty and repeated ids, and any id present in exclude.
func dedupe(ids []string, exclude []string) []string {
	seen := make(map[string]struct{}, len(ids)+len(exclude))
	for _, id := range exclude {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
