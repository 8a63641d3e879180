package core

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// Counts maps a measured bitstring to the number of shots that produced it.
// Classical bit 0 is the rightmost character of the key.
type Counts map[string]uint32

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

func (c Counts) String() string {
	st, err := jsonIter.Marshal(c)
	if err != nil {
		zap.L().Error("Failed to marshal core.Counts")
		return ""
	}
	return string(st)
}

func (c Counts) Total() uint64 {
	var total uint64
	for _, v := range c {
		total += uint64(v)
	}
	return total
}

func (c Counts) Clone() Counts {
	clone := make(Counts, len(c))
	for k, v := range c {
		clone[k] = v
	}
	return clone
}

func (c Counts) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func CloneCountsList(in []Counts) []Counts {
	out := make([]Counts, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// ToPrettyJSON renders v as indented JSON for logs and reports.
func ToPrettyJSON(v interface{}) string {
	st, err := jsonIter.Marshal(v)
	if err != nil {
		zap.L().Error("Failed to marshal value to json", zap.Error(err))
		return ""
	}
	return string(pretty.Pretty(st))
}
