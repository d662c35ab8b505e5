package repository

import (
	"context"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
)

// AlertRepository puerto de persistencia de alertas (nunca se eliminan).
type AlertRepository interface {
	// CreateIfNoUnread inserta la alerta solo si no existe otra no leída del mismo {producto, tipo}.
	// Devuelve false si ya existía una.
	CreateIfNoUnread(ctx context.Context, alert *entity.Alert) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	// MarkRead marca como leída solo si estaba no leída; devuelve false si ya lo estaba.
	MarkRead(ctx context.Context, id, actorID string, at time.Time) (bool, error)
	List(ctx context.Context, filter AlertFilter) ([]*entity.Alert, error)
}
