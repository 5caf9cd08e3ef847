package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// postJSON sends body as JSON and decodes the reply. Errors never include the
// request URL since bot tokens travel in the path.
func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body any) (int, map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request", ErrTransport)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	var decoded map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("%w: invalid response (HTTP %d)", ErrTransport, resp.StatusCode)
		}
	}
	return resp.StatusCode, decoded, nil
}

func lookup(m map[string]any, path ...any) (any, bool) {
	var cur any = m
	for _, p := range path {
		switch key := p.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = obj[key]; !ok {
				return nil, false
			}
		case int:
			arr, ok := cur.([]any)
			if !ok || key >= len(arr) {
				return nil, false
			}
			cur = arr[key]
		}
	}
	return cur, true
}

func lookupString(m map[string]any, path ...any) string {
	v, ok := lookup(m, path...)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

func isSuccess(code int) bool { return code >= 200 && code < 300 }
