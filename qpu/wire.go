package qpu

import (
	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/circuit"
	"github.com/oqtopus-team/ddbench/core"
	"google.golang.org/protobuf/types/known/structpb"
)

// The sampler service exchanges google.protobuf.Struct messages whose fields are the
// JSON forms of the types below.
const (
	SamplerServiceName = "ddbench.sampler.v1.SamplerService"
	GetTargetMethod    = "/" + SamplerServiceName + "/GetTarget"
	SampleMethod       = "/" + SamplerServiceName + "/Sample"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type TargetResponse struct {
	Name     string          `json:"name"`
	MaxShots int             `json:"max_shots"`
	Target   *backend.Target `json:"target"`
}

type WirePub struct {
	Circuit *circuit.Circuit `json:"circuit"`
	Shots   int              `json:"shots"`
}

type SampleRequest struct {
	Pubs []WirePub `json:"pubs"`
}

type SampleResponse struct {
	JobID  string        `json:"job_id"`
	Counts []core.Counts `json:"counts"`
}

func NewSampleRequest(pubs []backend.Pub) *SampleRequest {
	req := &SampleRequest{Pubs: make([]WirePub, len(pubs))}
	for i, p := range pubs {
		req.Pubs[i] = WirePub{Circuit: p.Circuit, Shots: p.Shots}
	}
	return req
}

func (r *SampleRequest) ToPubs() []backend.Pub {
	pubs := make([]backend.Pub, len(r.Pubs))
	for i, p := range r.Pubs {
		pubs[i] = backend.Pub{Circuit: p.Circuit, Shots: p.Shots}
	}
	return pubs
}

// ToStruct converts v through its JSON form.
func ToStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal message")
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "message is not a JSON object")
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes s into v.
func FromStruct(s *structpb.Struct, v interface{}) error {
	if s == nil {
		return errors.New("empty message")
	}
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrap(err, "decode message")
	}
	return nil
}
