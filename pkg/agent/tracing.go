package agent

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const agentTracerName = "pantryplay.agent"

const (
	spanProcess  = "agent.process"
	spanDocument = "agent.document"
	spanTask     = "agent.task"
)

func agentTracer() trace.Tracer {
	return otel.Tracer(agentTracerName)
}
