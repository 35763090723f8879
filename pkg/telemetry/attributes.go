// Copyright 2026 © The Ensemble Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration with rich
// attributes for run observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for run telemetry. These follow OpenTelemetry
// naming conventions where applicable.
const (
	// Run attributes
	AttrRunID     = "ensemble.run.id"
	AttrRunRound  = "ensemble.run.round"
	AttrRunRounds = "ensemble.run.max_rounds"

	// Role attributes
	AttrRoleName  = "ensemble.role.name"
	AttrRoleState = "ensemble.role.state"

	// Action attributes
	AttrActionName    = "ensemble.action.name"
	AttrActionAttempt = "ensemble.action.attempt"

	// Message attributes
	AttrMessageID      = "ensemble.message.id"
	AttrMessageCauseBy = "ensemble.message.cause_by"
	AttrMessageTS      = "ensemble.message.timestamp"

	// Memory attributes
	AttrMemoryEnabled   = "ensemble.memory.enabled"
	AttrMemoryRetrieved = "ensemble.memory.retrieved_count"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"

	// Error attributes
	AttrErrorCode = "ensemble.error.code"
)

// RoleAttributes returns common attributes for role cycle spans.
func RoleAttributes(name, state, runID string, round int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRoleName, name),
	}
	if state != "" {
		attrs = append(attrs, attribute.String(AttrRoleState, state))
	}
	if runID != "" {
		attrs = append(attrs, attribute.String(AttrRunID, runID))
	}
	if round > 0 {
		attrs = append(attrs, attribute.Int(AttrRunRound, round))
	}
	return attrs
}

// MessageAttributes returns attributes for a published message.
func MessageAttributes(id, causeBy string, timestamp int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMessageID, id),
		attribute.String(AttrMessageCauseBy, causeBy),
		attribute.Int64(AttrMessageTS, timestamp),
	}
}

// ActionAttributes returns attributes for an action execution span.
func ActionAttributes(name string, attempt int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrActionName, name),
	}
	if attempt > 0 {
		attrs = append(attrs, attribute.Int(AttrActionAttempt, attempt))
	}
	return attrs
}

// RecallAttributes returns attributes for long-term memory retrieval.
func RecallAttributes(enabled bool, retrieved int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrMemoryEnabled, enabled),
	}
	if retrieved > 0 {
		attrs = append(attrs, attribute.Int(AttrMemoryRetrieved, retrieved))
	}
	return attrs
}
