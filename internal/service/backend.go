// Package service holds one thin type per backend resource. Services shape
// parameters and decode payloads; they hold no state.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/spec-kit/miniticker/internal/apiclient"
)

// Backend is the part of apiclient.Client the services use.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
	SendForm(ctx context.Context, method, path string, form *apiclient.Multipart, out any) error
}

// listEnvelope decodes either a bare JSON array or an object carrying the
// array under "items".
type listEnvelope[T any] struct {
	Items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err == nil {
		l.Items = items
		return nil
	}
	var wrapped struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	l.Items = wrapped.Items
	return nil
}

func (l listEnvelope[T]) list() []T {
	if l.Items == nil {
		return []T{}
	}
	return l.Items
}

func boolParam(b bool) string {
	return strconv.FormatBool(b)
}

func escape(id string) string {
	return url.PathEscape(id)
}
