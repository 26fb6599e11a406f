package advisor

import "encoding/json"

// JSONCodec is a connect codec for plain Go structs. It replaces connect's
// default protojson codec under the same name, so requests are sent with
// the application/json content type.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements connect.Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
