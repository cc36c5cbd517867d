package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

type productRepository struct {
	db DB
}

func NewProductRepository(db DB) interfaces.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, name, price, type::text, image FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Type, &p.Image); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Types lists the labels of the product_type enum in declaration order.
func (r *productRepository) Types(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT unnest(enum_range(NULL::product_type))::text`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product types: %w", err)
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan product type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product types: %w", err)
	}
	return types, nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, name, price, type::text, image FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Type, &p.Image)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (name, price, type, image)
		VALUES ($1, $2, $3::product_type, $4)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRow(ctx, query, p.Name, p.Price, p.Type, p.Image).Scan(&p.ID)
	if err != nil {
		return productWriteError(err, p.Type)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, price = $2, type = $3::product_type, image = $4
		WHERE id = $5
	`
	tag, err := conn(ctx, r.db).Exec(ctx, query, p.Name, p.Price, p.Type, p.Image, p.ID)
	if err != nil {
		return productWriteError(err, p.Type)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product not found")
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.Conflict("product is referenced by existing orders")
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product not found")
	}
	return nil
}

func (r *productRepository) CountOrderItems(ctx context.Context, productID int64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE product_id = $1`, productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count order items: %w", err)
	}
	return n, nil
}

func productWriteError(err error, productType string) error {
	if pgCode(err) == codeInvalidText {
		return domain.Validation(fmt.Sprintf("invalid product type %q", productType))
	}
	return fmt.Errorf("failed to write product: %w", err)
}

type tableRepository struct {
	db DB
}

func NewTableRepository(db DB) interfaces.TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, name FROM dining_tables ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return tables, nil
}

func (r *tableRepository) Get(ctx context.Context, id int64) (*domain.Table, error) {
	var t domain.Table
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT id, name FROM dining_tables WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, notFound(err, "table")
	}
	return &t, nil
}

func (r *tableRepository) Create(ctx context.Context, t *domain.Table) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO dining_tables (name) VALUES ($1) RETURNING id`, t.Name).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	return nil
}

func (r *tableRepository) Update(ctx context.Context, t *domain.Table) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE dining_tables SET name = $1 WHERE id = $2`, t.Name, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("table not found")
	}
	return nil
}

func (r *tableRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM dining_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("table not found")
	}
	return nil
}

func (r *tableRepository) CountOrders(ctx context.Context, tableID int64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE table_id = $1`, tableID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

type settingsRepository struct {
	db DB
}

func NewSettingsRepository(db DB) interfaces.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT domicilios_activos FROM configuracion WHERE id = 1`).Scan(&s.DeliveryEnabled)
	if err != nil {
		return nil, notFound(err, "configuracion")
	}
	return &s, nil
}

func (r *settingsRepository) SetDeliveryEnabled(ctx context.Context, enabled bool) error {
	query := `
		INSERT INTO configuracion (id, domicilios_activos) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET domicilios_activos = EXCLUDED.domicilios_activos
	`
	if _, err := conn(ctx, r.db).Exec(ctx, query, enabled); err != nil {
		return fmt.Errorf("failed to update configuracion: %w", err)
	}
	return nil
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`, u.Username, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return domain.Conflict("username already exists")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}
