// Package rpc defines the Connect wire contract of the visitlog server: the
// procedure names, the JSON message types, the error mapping, and the
// handler and client constructors built on them.
//
// Messages are plain Go structs encoded with encoding/json through a custom
// Connect codec, so no protobuf code generation is involved.
package rpc

import (
	"encoding/json"
	"fmt"
)

// ServiceName is the fully-qualified name of the service.
const ServiceName = "visitlog.v1.VisitLogService"

// Procedure paths.
const (
	RegisterProcedure             = "/" + ServiceName + "/Register"
	LoginProcedure                = "/" + ServiceName + "/Login"
	GetCurrentUserProcedure       = "/" + ServiceName + "/GetCurrentUser"
	ListPropertiesProcedure       = "/" + ServiceName + "/ListProperties"
	CreatePropertyProcedure       = "/" + ServiceName + "/CreateProperty"
	ListVisitsProcedure           = "/" + ServiceName + "/ListVisits"
	ListVisitsByPropertyProcedure = "/" + ServiceName + "/ListVisitsByProperty"
	CreateVisitProcedure          = "/" + ServiceName + "/CreateVisit"
)

// PublicProcedures do not require a bearer token.
var PublicProcedures = map[string]bool{
	RegisterProcedure: true,
	LoginProcedure:    true,
}

// codecName matches the "application/json" content type.
const codecName = "json"

// jsonCodec is a connect.Codec for plain Go structs.
type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
