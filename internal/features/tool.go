package features

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// ToolName is the name agents call the lookup by.
const ToolName = "get_features"

const toolSummary = "Get Snowplow features for a specific session. Returns web aggregated session details."

// Request represents the tool input.
type Request struct {
	SessionID string `json:"session_id" yaml:"session_id" jsonschema:"title=session_id,description=The Snowplow domain session id to fetch features for."`
}

// Response represents the tool output.
type Response struct {
	Text string `json:"text" yaml:"text" jsonschema:"title=text,description=The session features one per block or a fallback message."`
}

// Tool exposes the adapter as a named agent tool with a JSON parameters schema.
type Tool struct {
	adapter     *Adapter
	description string
	params      *jsonschema.Schema
}

// NewTool wraps the adapter. The description lists the view's features so
// the agent knows what it gets back.
func NewTool(adapter *Adapter) *Tool {
	return &Tool{
		adapter:     adapter,
		description: describe(adapter),
		params:      reflectParams(reflect.TypeOf(Request{})),
	}
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return t.description
}

// Parameters returns the JSON schema of Request.
func (t *Tool) Parameters() any {
	return t.params
}

func (t *Tool) Run(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("invalid request: nil")
	}
	text, err := t.adapter.GetFeatures(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &Response{Text: text}, nil
}

// Call runs the tool with a JSON encoded Request and returns the rendered text.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := json.Unmarshal([]byte(strings.TrimSpace(input)), &req); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal input")
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func describe(a *Adapter) string {
	var b strings.Builder
	b.WriteString(toolSummary)
	view := a.View()
	if len(view.Features) == 0 {
		return b.String()
	}
	b.WriteString("\n\nFeatures:")
	for _, f := range view.Features {
		b.WriteString("\n- ")
		b.WriteString(f.Name)
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
	}
	return b.String()
}

func reflectParams(t reflect.Type) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.ReflectFromType(t)
	s.Version = ""
	s.ID = ""
	return s
}
