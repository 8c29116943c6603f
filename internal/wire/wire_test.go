package wire

import (
	"testing"

	"github.com/dmitrijs2005/letterdesk/internal/compose"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeDecode_Template(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.Verification.Enabled = true
	in := layout.Template{
		ID: "t1", Name: "Letterhead", BackgroundRef: "bg/t1.png", Config: &cfg,
		Zones: []layout.Zone{{
			ID: "z1", Name: "Recipient", Rect: layout.Rect{X: 40, Y: 200, Width: 200, Height: 40},
			FontFamily: "default", FontSize: 14, Alignment: layout.AlignLeft,
		}},
	}

	s, err := Encode(in)
	require.NoError(t, err)
	assert.Equal(t, "t1", s.Fields["id"].GetStringValue())

	var out layout.Template
	require.NoError(t, Decode(s, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecode_ExportResponse(t *testing.T) {
	in := ExportResponse{
		Document: []byte("%PDF-1.4\x00\x01"),
		Location: "s3://x",
		Warnings: []compose.Warning{{Code: compose.WarnSymbolMissing, Message: "m"}},
	}
	s, err := Encode(in)
	require.NoError(t, err)

	var out ExportResponse
	require.NoError(t, Decode(s, &out))
	assert.Equal(t, in, out)
}

func TestDecode_Errors(t *testing.T) {
	var req TemplateRequest
	assert.NoError(t, Decode(nil, &req))
	assert.Empty(t, req.TemplateID)

	s, err := structpb.NewStruct(map[string]any{"template_id": 5})
	require.NoError(t, err)
	assert.Error(t, Decode(s, &req))

	_, err = Encode(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/letterdesk.v1.TemplateService/Preview", FullMethod(MethodPreview))
}
