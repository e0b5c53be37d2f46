// Package ingest loads trace events from YAML or JSON documents.
//
// A document holds a single top-level list:
//
//	events:
//	  - event_type: order.created
//	    description: Order 1001 created
//	    actor: {id: u-1, type: user, name: Ann}
//	    objects:
//	      - {id: order-1001, type: order, external_id: "1001"}
//
// Every document is checked against the CUE definitions in schema.cue before
// conversion, so enum values, confidence bounds and unknown fields are
// rejected with a *ValidationError naming the offending path. Durations are
// given in seconds.
package ingest
