// Package wire defines the messages exchanged between the editor and the
// template server. Every message travels as a google.protobuf.Struct whose
// fields follow the JSON tags below.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/letterdesk/internal/compose"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "letterdesk.v1.TemplateService"

// Method names of ServiceName.
const (
	MethodGetTemplate          = "GetTemplate"
	MethodReplaceZones         = "ReplaceZones"
	MethodUpdateTemplateConfig = "UpdateTemplateConfig"
	MethodCreateZone           = "CreateZone"
	MethodDeleteZone           = "DeleteZone"
	MethodExportLetter         = "ExportLetter"
	MethodPreview              = "Preview"
)

// FullMethod returns "/service/method".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type TemplateRequest struct {
	TemplateID string `json:"template_id"`
}

type ReplaceZonesRequest struct {
	TemplateID string        `json:"template_id"`
	Zones      []layout.Zone `json:"zones"`
}

type UpdateConfigRequest struct {
	TemplateID string        `json:"template_id"`
	Config     layout.Config `json:"config"`
}

type CreateZoneRequest struct {
	TemplateID string      `json:"template_id"`
	Zone       layout.Zone `json:"zone"`
}

type DeleteZoneRequest struct {
	ZoneID string `json:"zone_id"`
}

// ExportRequest asks for a letter; an empty TemplateID uses the letter's own.
type ExportRequest struct {
	LetterID   string `json:"letter_id"`
	TemplateID string `json:"template_id,omitempty"`
}

// ExportResponse carries the document base64 encoded.
type ExportResponse struct {
	Document []byte            `json:"document"`
	Location string            `json:"location"`
	Warnings []compose.Warning `json:"warnings,omitempty"`
}

type PreviewRequest struct {
	TemplateID string `json:"template_id"`
	Selected   string `json:"selected,omitempty"`
}

// Encode converts v into a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return s, nil
}

// Decode fills v from s. A nil Struct leaves v untouched.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
