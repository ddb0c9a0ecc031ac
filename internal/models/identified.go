package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindRef
	KindFull
)

// Identified is a relation the backend sends either as a bare id or as a nested object
type Identified[T any] struct {
	Kind  Kind
	ID    int64
	Value T // set only for KindFull
}

func Ref[T any](id int64) Identified[T] {
	return Identified[T]{Kind: KindRef, ID: id}
}

func Full[T any](id int64, value T) Identified[T] {
	return Identified[T]{Kind: KindFull, ID: id, Value: value}
}

func (i Identified[T]) IDValue() int64 {
	return i.ID
}

// Full value if it was sent, or false
func (i Identified[T]) Get() (T, bool) {
	return i.Value, i.Kind == KindFull
}

func (i *Identified[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*i = Identified[T]{}
		return nil

	case len(data) > 0 && data[0] == '{':
		var head struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			return fmt.Errorf("identified object has no numeric id: %w", err)
		}
		var value T
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*i = Full(head.ID, value)
		return nil

	default:
		var id int64
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("identified value is neither id nor object: %w", err)
		}
		*i = Ref[T](id)
		return nil
	}
}

func (i Identified[T]) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case KindFull:
		return json.Marshal(i.Value)
	case KindRef:
		return json.Marshal(i.ID)
	default:
		return []byte("null"), nil
	}
}

// Label is a display value the backend sends as string, number or {label|name|value} object
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		for _, key := range []string{"label", "name", "value"} {
			if raw, ok := obj[key]; ok {
				return l.UnmarshalJSON(raw)
			}
		}
		*l = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("label is neither string, number nor object: %w", err)
		}
		*l = Label(n.String())
	}
	return nil
}

func (l Label) String() string {
	return string(l)
}

// Int returns the label as number when it holds one (e.g. training year)
func (l Label) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(l)))
	return n, err == nil
}

// Page accepts both a bare list and the paginated {count, results} envelope
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	var env struct {
		Count   int `json:"count"`
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Results == nil {
		env.Results = []T{}
	}
	if env.Count == 0 {
		env.Count = len(env.Results)
	}
	*p = Page[T]{Count: env.Count, Results: env.Results}
	return nil
}
