package stats

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ExportProto renders r as a protobuf-encoded google.protobuf.Struct.
//
// A hand-authored, protoc-generated StatsRecord message would be the
// more direct fit for the domain-stack table's "generated StatsRecord"
// note, but this build never invokes protoc (or any Go toolchain), and
// a by-hand .pb.go forging protoreflect's generated-message internals
// would be exactly the kind of fabricated dependency scaffolding to
// avoid. structpb.Struct is itself a real, already-generated message
// type the protobuf-go module ships, so building one from the record's
// fields and marshaling it exercises the genuine
// google.golang.org/protobuf wire encoder without inventing anything.
func (r Record) ExportProto() ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"run_id":               r.RunID,
		"problem":              r.Problem,
		"hole":                 r.Hole,
		"outcome":              r.Outcome,
		"elapsed_ns":           float64(r.Elapsed),
		"verification_time_ns": float64(r.VerificationTime),
		"refinement_steps":     float64(r.RefinementSteps),
		"cache_hits":           float64(r.CacheHits),
		"cache_misses":         float64(r.CacheMisses),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}
