package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/boutique-backoffice/internal/domain"
	"github.com/jhoicas/boutique-backoffice/internal/domain/entity"
	"github.com/jhoicas/boutique-backoffice/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepository)(nil)

// AlertRepository alertas en memoria. La deduplicación se decide bajo el lock del almacén.
type AlertRepository struct {
	s *Store
}

// CreateIfNoUnread inserta la alerta salvo que exista otra no leída del mismo {producto, tipo}.
func (r *AlertRepository) CreateIfNoUnread(_ context.Context, a *entity.Alert) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.alerts {
		if existing.ProductID == a.ProductID && existing.Type == a.Type && !existing.Read {
			return false, nil
		}
	}
	r.s.alerts[a.ID] = cloneAlert(a)
	r.s.alertIDs = append(r.s.alertIDs, a.ID)
	return true, nil
}

func (r *AlertRepository) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.alerts[id]
	if !ok {
		return nil, nil
	}
	return cloneAlert(a), nil
}

// MarkRead devuelve false si la alerta ya estaba leída.
func (r *AlertRepository) MarkRead(_ context.Context, id, actorID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.alerts[id]
	if !ok {
		return false, fmt.Errorf("%w: alerta %s", domain.ErrNotFound, id)
	}
	if a.Read {
		return false, nil
	}
	a.Read = true
	a.ReadAt = &at
	a.NotifiedActorID = actorID
	return true, nil
}

func (r *AlertRepository) List(_ context.Context, f repository.AlertFilter) ([]*entity.Alert, error) {
	r.s.mu.RLock()
	out := make([]*entity.Alert, 0)
	for i := len(r.s.alertIDs) - 1; i >= 0; i-- {
		a := r.s.alerts[r.s.alertIDs[i]]
		if f.ProductID != "" && a.ProductID != f.ProductID {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Urgency != "" && a.Urgency != f.Urgency {
			continue
		}
		if f.Unread != nil && a.Read == *f.Unread {
			continue
		}
		if !f.DateRange.Contains(a.CreatedAt) {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	pg := f.Page.Normalize()
	return page(out, pg.Offset, pg.Limit), nil
}
