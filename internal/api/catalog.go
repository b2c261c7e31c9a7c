package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/anzway/learnterm/internal/catalog"
)

// CatalogOptions fetches the option list for one catalog resource
// ("classes", "subjects", "chapters", "chapter-images", "questions"),
// scoped by the resolved parent values. The response is normalized into
// label/value options regardless of which shape the backend chose.
func (c *Client) CatalogOptions(ctx context.Context, resource string, parents []catalog.Param) ([]catalog.Option, error) {
	query := url.Values{}
	for _, p := range parents {
		query.Set(p.Name, p.Value)
	}

	var raw json.RawMessage
	if err := c.getJSON(ctx, "/"+resource, query, &raw); err != nil {
		return nil, err
	}
	return normalizeOptions(raw)
}

// normalizeOptions resolves the backend's duck-typed catalog shapes once, at
// the boundary. Accepted shapes:
//
//	["a", "b"]
//	[{"label": "A", "value": "a"}, ...]
//	{"subjects": ["a", "b"]}   (any single wrapper key)
//
// Missing labels fall back to a display label derived from the value.
func normalizeOptions(raw json.RawMessage) ([]catalog.Option, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err == nil {
		return optionsFromEntries(entries)
	}

	// Wrapper object: use the first field holding an array.
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("catalog response is neither array nor object")}
	}
	for _, v := range wrapper {
		if err := json.Unmarshal(v, &entries); err == nil {
			return optionsFromEntries(entries)
		}
	}
	return nil, &DecodeError{Err: fmt.Errorf("catalog response contains no option array")}
}

func optionsFromEntries(entries []json.RawMessage) ([]catalog.Option, error) {
	opts := make([]catalog.Option, 0, len(entries))
	for _, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			opts = append(opts, catalog.Option{Label: catalog.DisplayLabel(s), Value: s})
			continue
		}

		var pair struct {
			Label string `json:"label"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(e, &pair); err != nil || pair.Value == "" {
			return nil, &DecodeError{Err: fmt.Errorf("unrecognized catalog entry %s", e)}
		}
		if pair.Label == "" {
			pair.Label = catalog.DisplayLabel(pair.Value)
		}
		opts = append(opts, catalog.Option{Label: pair.Label, Value: pair.Value})
	}
	return opts, nil
}
