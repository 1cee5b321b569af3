// Package businessdata provides BusinessDataRepository implementations.
//
// A repository stores business objects by persistence id and, separately,
// the references each container holds to them under a business data name.
// InMemoryStore is process local; GormRepository persists both tables
// through GORM on sqlite or postgres.
package businessdata
