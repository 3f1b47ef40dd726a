package upstream

import (
	"encoding/json"
	"errors"
)

// Page is the canonical list payload every backend response shape maps to.
// TotalPages/TotalItems are zero when the upstream omitted them; the listing
// layer computes both from the item count in that case.
type Page struct {
	Items      []json.RawMessage
	TotalPages int
	TotalItems int
}

// ErrNoItems indicates a payload in which no item collection could be found.
var ErrNoItems = errors.New("upstream: no item collection in response")

// itemKeys are the historically observed names for the embedded collection.
var itemKeys = []string{"items", "docs", "transactions", "data", "results"}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	TotalPages int             `json:"totalPages"`
	TotalItems int             `json:"totalItems"`
	Total      int             `json:"total"`
	TotalDocs  int             `json:"totalDocs"`
}

// NormalizePage maps every known upstream list shape to a Page. Observed
// shapes: a bare array; an envelope whose data is the array; an envelope
// whose data is an object holding the array under one of itemKeys (with or
// without pagination counters); and a doubly nested data.data envelope.
func NormalizePage(raw json.RawMessage) (Page, error) {
	if items, ok := asArray(raw); ok {
		return Page{Items: items}, nil
	}
	page, ok, err := unwrapObject(raw)
	if err != nil {
		return Page{}, err
	}
	if ok {
		return page, nil
	}
	return Page{}, ErrNoItems
}

// NormalizeItem unwraps a single-record payload: either the record itself or
// an envelope carrying it under data (possibly twice).
func NormalizeItem(raw json.RawMessage) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Not an object; hand the payload back as-is.
		return raw, nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return raw, nil
	}
	var inner envelope
	if err := json.Unmarshal(env.Data, &inner); err == nil && len(inner.Data) > 0 && string(inner.Data) != "null" {
		return inner.Data, nil
	}
	return env.Data, nil
}

// unwrapObject handles the envelope shapes, recursing one level through data.
func unwrapObject(raw json.RawMessage) (Page, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Page{}, false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Page{}, false, err
	}
	totals := func(p *Page) {
		switch {
		case env.TotalItems > 0:
			p.TotalItems = env.TotalItems
		case env.Total > 0:
			p.TotalItems = env.Total
		case env.TotalDocs > 0:
			p.TotalItems = env.TotalDocs
		}
		p.TotalPages = env.TotalPages
	}

	for _, key := range itemKeys {
		inner, ok := fields[key]
		if !ok {
			continue
		}
		if items, isArr := asArray(inner); isArr {
			page := Page{Items: items}
			totals(&page)
			return page, true, nil
		}
		if key == "data" {
			// data may itself be an envelope, one level down.
			page, found, err := unwrapObject(inner)
			if err != nil {
				return Page{}, false, err
			}
			if found {
				if page.TotalPages == 0 && page.TotalItems == 0 {
					totals(&page)
				}
				return page, true, nil
			}
		}
	}
	return Page{}, false, nil
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}
