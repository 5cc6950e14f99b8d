package core

import (
	"context"
	"errors"
	"log"
)

// Result is the outcome of a pipeline run: either Text or Err is set.
type Result struct {
	Text string
	Err  *InferenceError
}

func Ok(text string) Result { return Result{Text: text} }

func Err(err *InferenceError) Result { return Result{Err: err} }

func (r Result) IsOk() bool { return r.Err == nil }

// Pipeline runs the two model calls of a turn: summarize the conversation so
// far, then generate the persona reply from that summary.
type Pipeline struct {
	completer Completer
	debug     bool
}

func NewPipeline(c Completer, debug bool) *Pipeline {
	return &Pipeline{completer: c, debug: debug}
}

// Run summarizes transcript and feeds the summary with latest into the
// response prompt. A failed summary stops the run before the second call.
func (p *Pipeline) Run(ctx context.Context, transcript, latest string) Result {
	summary := p.step(ctx, StageSummary, BuildSummaryPrompt(transcript))
	if !summary.IsOk() {
		return summary
	}

	reply := p.step(ctx, StageResponse, BuildResponsePrompt(summary.Text, latest))
	if !reply.IsOk() {
		return reply
	}
	return Ok(ExtractResponse(reply.Text))
}

func (p *Pipeline) step(ctx context.Context, stage Stage, prompt string) Result {
	if p.debug {
		log.Printf("Pipeline %s: sending prompt (%d bytes)", stage, len(prompt))
	}
	out, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return Err(stageError(stage, err))
	}
	if p.debug {
		log.Printf("Pipeline %s: received %d bytes", stage, len(out))
	}
	return Ok(out)
}

func stageError(stage Stage, err error) *InferenceError {
	var ie *InferenceError
	if errors.As(err, &ie) {
		tagged := *ie
		tagged.Stage = stage
		return &tagged
	}
	return &InferenceError{Stage: stage, Err: err}
}
