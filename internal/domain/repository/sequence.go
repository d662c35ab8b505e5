package repository

import "context"

// SequenceGenerator generador atómico de secuencias (códigos de venta).
// Cada llamada devuelve un valor estrictamente mayor que el anterior para el mismo nombre.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// SequenceSeeder sube el último valor emitido de una secuencia a last si está por debajo.
// Nunca la baja: un valor ya emitido no vuelve a salir.
type SequenceSeeder interface {
	Seed(ctx context.Context, name string, last int64) error
}
