// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package parser turns a raw places response into an ordered name to address
// mapping.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/apex/log"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrMalformedResponse means the body could not be parsed as a document.
var ErrMalformedResponse = errors.New("malformed response")

// statusOK is compared case-insensitively.
const statusOK = "ok"

// PlaceResult maps place names to formatted addresses in document order. A
// repeated name keeps its first position and takes the last address.
type PlaceResult struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewPlaceResult returns an empty result.
func NewPlaceResult() *PlaceResult {
	return &PlaceResult{m: orderedmap.New[string, string]()}
}

// Set inserts or replaces name.
func (r *PlaceResult) Set(name, address string) {
	r.m.Set(name, address)
}

// Get returns the address for name.
func (r *PlaceResult) Get(name string) (string, bool) {
	return r.m.Get(name)
}

func (r *PlaceResult) Len() int {
	return r.m.Len()
}

// Each calls fn for every pair in order.
func (r *PlaceResult) Each(fn func(name, address string)) {
	for p := r.m.Oldest(); p != nil; p = p.Next() {
		fn(p.Key, p.Value)
	}
}

// Names returns the place names in order.
func (r *PlaceResult) Names() []string {
	names := make([]string, 0, r.m.Len())
	r.Each(func(name, _ string) { names = append(names, name) })
	return names
}

// MarshalJSON renders the result as a JSON object, keeping order.
func (r *PlaceResult) MarshalJSON() ([]byte, error) {
	return r.m.MarshalJSON()
}

// Parse reads raw as format, either xml or json. Empty input yields an empty
// result. A document whose status is not ok also yields an empty result, since
// that is the API reporting no results rather than a failure to talk to it.
func Parse(raw []byte, format string) (*PlaceResult, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return NewPlaceResult(), nil
	}

	switch strings.ToLower(format) {
	case "", "xml":
		return parseXML(raw)
	case "json":
		return parseJSON(raw)
	default:
		return nil, fmt.Errorf("unsupported response format %q", format)
	}
}

// DetectFormat guesses the format of raw from its first significant byte. It
// returns "" when the body is neither xml nor json.
func DetectFormat(raw []byte) string {
	b := bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
	if len(b) == 0 {
		return ""
	}
	switch b[0] {
	case '<':
		return "xml"
	case '{', '[':
		return "json"
	}
	return ""
}

func parseXML(raw []byte) (*PlaceResult, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	root := xmlquery.FindOne(doc, "/*")
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedResponse)
	}

	result := NewPlaceResult()

	status := ""
	if n := xmlquery.FindOne(root, "status"); n != nil {
		status = strings.TrimSpace(n.InnerText())
	}
	if !strings.EqualFold(status, statusOK) {
		log.WithField("status", status).Debug("response status is not ok")
		return result, nil
	}

	for _, n := range xmlquery.Find(root, "result") {
		name := childText(n, "name")
		address := childText(n, "formatted_address")
		if name == "" || address == "" {
			continue
		}
		result.Set(name, address)
	}

	return result, nil
}

func childText(n *xmlquery.Node, name string) string {
	c := n.SelectElement(name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.InnerText())
}

func parseJSON(raw []byte) (*PlaceResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: no root object", ErrMalformedResponse)
	}

	result := NewPlaceResult()

	status := strings.TrimSpace(doc.Get("status").String())
	if !strings.EqualFold(status, statusOK) {
		log.WithField("status", status).Debug("response status is not ok")
		return result, nil
	}

	doc.Get("results").ForEach(func(_, v gjson.Result) bool {
		name := strings.TrimSpace(v.Get("name").String())
		address := strings.TrimSpace(v.Get("formatted_address").String())
		if name != "" && address != "" {
			result.Set(name, address)
		}
		return true
	})

	return result, nil
}
