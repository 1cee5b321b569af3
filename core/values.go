package core

import (
	"maps"
	"time"
)

// FileInput is the runtime value of a FILE contract input.
type FileInput struct {
	ID          string `json:"id,omitempty"`
	FileName    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Content     []byte `json:"content,omitempty"`
}

// BusinessObject is a persistent business data entity. PersistenceID is
// zero until a repository assigned one.
type BusinessObject struct {
	Type          string         `json:"type"`
	PersistenceID int64          `json:"persistenceId,omitempty"`
	Attributes    map[string]any `json:"attributes"`
}

// NewBusinessObject creates an unpersisted entity of the given type.
func NewBusinessObject(typ string, attrs map[string]any) *BusinessObject {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &BusinessObject{Type: typ, Attributes: attrs}
}

// Clone returns a copy whose attribute map can be mutated independently.
func (b *BusinessObject) Clone() *BusinessObject {
	if b == nil {
		return nil
	}
	return &BusinessObject{Type: b.Type, PersistenceID: b.PersistenceID, Attributes: maps.Clone(b.Attributes)}
}

// Get returns an attribute value.
func (b *BusinessObject) Get(attr string) any { return b.Attributes[attr] }

// Set writes an attribute value.
func (b *BusinessObject) Set(attr string, v any) {
	if b.Attributes == nil {
		b.Attributes = map[string]any{}
	}
	b.Attributes[attr] = v
}

// BusinessDataRef links a container's business data name to the ids of the
// objects it holds. Multiple refs hold a list even when it has one element.
type BusinessDataRef struct {
	Name     string  `json:"name"`
	Multiple bool    `json:"multiple"`
	IDs      []int64 `json:"ids"`
}

// Document is the value of a DOCUMENT left operand.
type Document struct {
	Name        string    `json:"name"`
	FileName    string    `json:"filename,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	URL         string    `json:"url,omitempty"`
	Content     []byte    `json:"content,omitempty"`
	Created     time.Time `json:"created"`
}

// ContractDataRecord is one archived contract input value.
type ContractDataRecord struct {
	ID        string    `json:"id"`
	Container Container `json:"container"`
	Name      string    `json:"name"`
	Value     any       `json:"value"`
	Created   time.Time `json:"created"`
}
