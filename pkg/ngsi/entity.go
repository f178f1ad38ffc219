package ngsi

import (
	"encoding/json"
	"maps"
)

// Well-known entity keys
const (
	KeyID          = "id"
	KeyType        = "type"
	KeyTimeInstant = "TimeInstant"
)

// Entity представляет NGSI v2 сущность как открытый JSON-документ.
// Обязательны только id и type, остальные ключи - атрибуты.
// encoding/json сериализует ключи map в отсортированном порядке.
type Entity map[string]any

// Attribute представляет атрибут сущности в normalized представлении
type Attribute struct {
	Value    any            `json:"value"`              // значение (любой JSON)
	Metadata map[string]any `json:"metadata,omitempty"` // метаданные атрибута
	Type     string         `json:"type"`               // NGSI тип атрибута (Number, DateTime, ...)
}

// ID returns the entity id and whether it is a non-empty string.
func (e Entity) ID() (string, bool) {
	return e.stringField(KeyID)
}

// Type returns the entity type and whether it is a non-empty string.
func (e Entity) Type() (string, bool) {
	return e.stringField(KeyType)
}

func (e Entity) stringField(key string) (string, bool) {
	v, ok := e[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Attribute extracts the named attribute. The second result is false when
// the key is absent or does not hold a JSON object.
func (e Entity) Attribute(name string) (Attribute, bool) {
	raw, ok := e[name].(map[string]any)
	if !ok {
		return Attribute{}, false
	}

	attr := Attribute{Value: raw["value"]}
	if t, ok := raw["type"].(string); ok {
		attr.Type = t
	}
	if md, ok := raw["metadata"].(map[string]any); ok {
		attr.Metadata = md
	}
	return attr, true
}

// HasValue reports whether the attribute document carried a non-null value.
func (a Attribute) HasValue() bool {
	return a.Value != nil
}

// ValueString renders the attribute value: strings verbatim, everything
// else as JSON text.
func (a Attribute) ValueString() string {
	switch v := a.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// SetAttribute stores a normalized attribute under name.
func (e Entity) SetAttribute(name string, attr Attribute) {
	md := attr.Metadata
	if md == nil {
		md = map[string]any{}
	}
	e[name] = map[string]any{
		"type":     attr.Type,
		"value":    attr.Value,
		"metadata": md,
	}
}

// IDOnly returns the projection {id} used by delete batches.
func (e Entity) IDOnly() Entity {
	id, _ := e.ID()
	return Entity{KeyID: id}
}

// Merge copies every top-level key of doc into the entity, overwriting
// existing keys. Nested documents are not merged.
func (e Entity) Merge(doc map[string]any) {
	maps.Copy(e, doc)
}

// Types returns the set of entity types present in entities.
// Entities without a type are reported via the second result (their indexes).
func Types(entities []Entity) (map[string]struct{}, []int) {
	types := make(map[string]struct{})
	var untyped []int
	for i, e := range entities {
		t, ok := e.Type()
		if !ok {
			untyped = append(untyped, i)
			continue
		}
		types[t] = struct{}{}
	}
	return types, untyped
}
