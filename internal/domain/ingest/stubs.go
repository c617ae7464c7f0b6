package ingest

import "fmt"

// processStub handles the data models the pipeline accepts but does not yet
// act on. They are reported as pending rather than silently dropped so the
// broker's delivery logs stay truthful.
func (r *Router) processStub(env *Envelope) *ProcessingResult {
	return &ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("%s processed (implementation pending)", env.Meta.DataModel),
	}
}
