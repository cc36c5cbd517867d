package interfaces

import (
	"context"
	"encoding/json"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/shopspring/decimal"
)

// Commands

type SubmitTempOrderCommand struct {
	CustomerName string
	Address      string
	Phone        string
	Details      json.RawMessage
	Total        decimal.Decimal
}

type CreateOrderCommand struct {
	TableID int64
	Items   []CreateOrderItemCommand
}

type CreateOrderItemCommand struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

type UpdateOrderItemCommand struct {
	ItemID    int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Services

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	VerifyToken(token string) (*domain.Claims, error)
	CreateUser(ctx context.Context, username, password string) (*domain.User, error)
}

type TempOrderService interface {
	Submit(ctx context.Context, cmd SubmitTempOrderCommand) (*domain.TempOrder, error)
	ListAll(ctx context.Context) ([]domain.TempOrder, error)
	ListPending(ctx context.Context) ([]domain.TempOrder, error)
	ListForDelivery(ctx context.Context) ([]domain.TempOrder, error)
	Delete(ctx context.Context, id int64) error
	SetTrusted(ctx context.Context, id int64, trusted bool) error
	VerifyPhone(ctx context.Context, phone string) (domain.TrustStatus, error)
	Reject(ctx context.Context, id int64) error
	Approve(ctx context.Context, id int64) (int64, error)
}

type CatalogService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ProductTypes(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListTables(ctx context.Context) ([]domain.Table, error)
	CreateTable(ctx context.Context, name string) (*domain.Table, error)
	UpdateTable(ctx context.Context, id int64, name string) (*domain.Table, error)
	DeleteTable(ctx context.Context, id int64) error

	Settings(ctx context.Context) (*domain.Settings, error)
	SetDeliveryEnabled(ctx context.Context, enabled bool) error
}

type OrderService interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	OpenOrderForTable(ctx context.Context, tableID int64) ([]domain.Order, error)
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	UpdateItem(ctx context.Context, cmd UpdateOrderItemCommand) (*domain.OrderItem, error)
	DeleteItem(ctx context.Context, itemID int64) error
	CloseOrder(ctx context.Context, id int64) error
}
