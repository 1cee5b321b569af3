package core

import "context"

// VariableStore persists plain process variables per container.
type VariableStore interface {
	// Get returns the values present for names; absent names are omitted.
	Get(ctx context.Context, c Container, names []string) (map[string]any, error)
	Set(ctx context.Context, c Container, name string, value any) error
}

// DocumentStore persists documents attached to a container.
type DocumentStore interface {
	Get(ctx context.Context, c Container, names []string) (map[string]*Document, error)
	Save(ctx context.Context, c Container, doc *Document) error
	// Delete removes a document or returns ErrNotFound.
	Delete(ctx context.Context, c Container, name string) error
}

// BusinessDataRepository persists business objects and the references a
// container holds to them.
type BusinessDataRepository interface {
	// FindRefs returns the references present for names; absent names are omitted.
	FindRefs(ctx context.Context, c Container, names []string) (map[string]*BusinessDataRef, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*BusinessObject, error)
	// Save inserts or updates obj, assigning PersistenceID on insert.
	Save(ctx context.Context, obj *BusinessObject) error
	Delete(ctx context.Context, id int64) error
	SetRef(ctx context.Context, c Container, ref *BusinessDataRef) error
	DeleteRef(ctx context.Context, c Container, name string) error
}

// KVStore holds external data that lives outside the engine's own tables.
type KVStore interface {
	Get(ctx context.Context, c Container, names []string) (map[string]any, error)
	Put(ctx context.Context, c Container, name string, value any) error
	Delete(ctx context.Context, c Container, name string) error
}

// ContractDataStore archives validated contract inputs per container.
type ContractDataStore interface {
	Save(ctx context.Context, c Container, values map[string]any) error
	// Get returns the archived input or ErrNotFound.
	Get(ctx context.Context, c Container, name string) (*ContractDataRecord, error)
	List(ctx context.Context, c Container) ([]*ContractDataRecord, error)
}
