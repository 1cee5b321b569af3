package core

// ContainerType names the kind of instance a batch runs against.
type ContainerType string

const (
	ContainerProcessInstance  ContainerType = "PROCESS_INSTANCE"
	ContainerActivityInstance ContainerType = "ACTIVITY_INSTANCE"
)

// Container identifies the instance whose variables a batch reads and writes.
type Container struct {
	ID   int64         `json:"id"`
	Type ContainerType `json:"type"`
}
