package quota

import "context"

// CounterKey es la clave del contador en el backend externo.
const CounterKey = "registered_users_count"

// Snapshot es una vista de solo lectura del cupo de registro.
type Snapshot struct {
	Registered int `json:"registered"`
	Limit      int `json:"limit"`
}

// Full indica si ya no quedan cupos disponibles.
func (s Snapshot) Full() bool {
	return s.Registered >= s.Limit
}

// Store abstrae el contador compartido de registros. Reserve toma un
// cupo de forma atomica respetando el limite; Release lo devuelve
// cuando el aprovisionamiento posterior falla.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Reserve(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
