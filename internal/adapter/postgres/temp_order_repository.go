package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/jackc/pgx/v5"
)

type tempOrderRepository struct {
	db DB
}

func NewTempOrderRepository(db DB) interfaces.TempOrderRepository {
	return &tempOrderRepository{db: db}
}

const tempOrderColumns = `id, nombre_cliente, direccion_cliente, telefono_cliente,
	detalles_pedido, total, estado, confiable, creado_en`

func scanTempOrder(row Row) (*domain.TempOrder, error) {
	var (
		t       domain.TempOrder
		details []byte
	)
	err := row.Scan(
		&t.ID, &t.CustomerName, &t.Address, &t.Phone,
		&details, &t.Total, &t.Status, &t.Trusted, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Details = details
	return &t, nil
}

func (r *tempOrderRepository) Create(ctx context.Context, t *domain.TempOrder) error {
	query := `
		INSERT INTO pedidos_temp (nombre_cliente, direccion_cliente, telefono_cliente,
		                          detalles_pedido, total, estado, confiable, creado_en)
		VALUES ($1, $2, $3, $4::json, $5, $6, $7, $8)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRow(ctx, query,
		t.CustomerName, t.Address, t.Phone, string(t.Details),
		t.Total, t.Status, t.Trusted, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert temporary order: %w", err)
	}
	return nil
}

func (r *tempOrderRepository) Get(ctx context.Context, id int64) (*domain.TempOrder, error) {
	t, err := scanTempOrder(conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+tempOrderColumns+` FROM pedidos_temp WHERE id = $1`, id,
	))
	if err != nil {
		return nil, notFound(err, "temporary order")
	}
	return t, nil
}

func (r *tempOrderRepository) List(ctx context.Context, status *domain.TempOrderStatus) ([]domain.TempOrder, error) {
	var (
		rows Rows
		err  error
	)
	if status == nil {
		rows, err = conn(ctx, r.db).Query(ctx,
			`SELECT `+tempOrderColumns+` FROM pedidos_temp ORDER BY creado_en DESC, id DESC`)
	} else {
		rows, err = conn(ctx, r.db).Query(ctx,
			`SELECT `+tempOrderColumns+` FROM pedidos_temp WHERE estado = $1 ORDER BY creado_en DESC, id DESC`, *status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query temporary orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TempOrder, 0)
	for rows.Next() {
		t, err := scanTempOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan temporary order: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate temporary orders: %w", err)
	}
	return out, nil
}

func (r *tempOrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM pedidos_temp WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete temporary order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("temporary order not found")
	}
	return nil
}

func (r *tempOrderRepository) SetTrusted(ctx context.Context, id int64, trusted bool) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE pedidos_temp SET confiable = $1 WHERE id = $2`, trusted, id)
	if err != nil {
		return fmt.Errorf("failed to update trust flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("temporary order not found")
	}
	return nil
}

// TrustByPhone relies on false sorting before true.
func (r *tempOrderRepository) TrustByPhone(ctx context.Context, phone string) (domain.TrustStatus, error) {
	var trusted bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT confiable FROM pedidos_temp WHERE telefono_cliente = $1 ORDER BY confiable ASC LIMIT 1`, phone,
	).Scan(&trusted)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TrustStatus{}, nil
	}
	if err != nil {
		return domain.TrustStatus{}, fmt.Errorf("failed to look up phone: %w", err)
	}
	return domain.TrustStatus{Exists: true, Trusted: trusted}, nil
}

// Transition is a compare-and-set on estado. Concurrent callers serialize on
// the row lock and the loser matches zero rows.
func (r *tempOrderRepository) Transition(ctx context.Context, id int64, from, to domain.TempOrderStatus) (*domain.TempOrder, error) {
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("invalid temporary order transition %s -> %s", from, to)
	}

	query := `
		UPDATE pedidos_temp SET estado = $3
		WHERE id = $1 AND estado = $2
		RETURNING ` + tempOrderColumns

	t, err := scanTempOrder(conn(ctx, r.db).QueryRow(ctx, query, id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("no pending temporary order with that id")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition temporary order: %w", err)
	}
	return t, nil
}
