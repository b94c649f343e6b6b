package aop

import (
	"fmt"
	"sort"
	"strings"
)

// SoftFailure records one degraded identifier resolution.
type SoftFailure struct {
	Kind   string `json:"kind"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Report summarizes a completed assembly.
type Report struct {
	Counts               map[EntityType]int `json:"counts"`
	GeneMentions         int                `json:"gene_mentions"`
	MalformedLexiconRows int                `json:"malformed_lexicon_rows"`
	SoftFailures         []SoftFailure      `json:"soft_failures,omitempty"`
}

// SoftFailureCount returns the number of keys that resolved empty because
// of a failed call.
func (r *Report) SoftFailureCount() int {
	if r == nil {
		return 0
	}
	return len(r.SoftFailures)
}

// String renders the counts in a stable order, e.g.
// "AOP=2 KE=5 KER=3 ... soft_failures=1".
func (r *Report) String() string {
	if r == nil {
		return ""
	}
	keys := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%d ", k, r.Counts[EntityType(k)])
	}
	fmt.Fprintf(&b, "gene_mentions=%d soft_failures=%d", r.GeneMentions, len(r.SoftFailures))
	return b.String()
}
