package notify

import "strings"

const masked = "***masked***"

var sensitiveKeys = map[string]bool{
	"token":        true,
	"access_token": true,
	"bot_token":    true,
	"secret":       true,
	"api_key":      true,
	"password":     true,
}

// MaskResponse returns a copy of a provider response with credential-like
// keys redacted at any depth.
func MaskResponse(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if sensitiveKeys[strings.ToLower(k)] {
			out[k] = masked
			continue
		}
		out[k] = maskValue(v)
	}
	return out
}

func maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return MaskResponse(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = maskValue(e)
		}
		return cp
	default:
		return v
	}
}
