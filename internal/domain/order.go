package domain

import "time"

// Order ("pedido") is a placed order. UserName is backfilled from the user
// directory when UserID is set and no name was supplied.
type Order struct {
	ID          int64     `json:"id"`
	OrderNumber *int64    `json:"nPedido,omitempty"`
	Details     string    `json:"detallesPedido,omitempty"`
	Status      string    `json:"estadoPedido"`
	TotalPrice  float64   `json:"precioTotal"`
	UserID      *int64    `json:"usuarioId,omitempty"`
	UserName    string    `json:"nombreUsuario,omitempty"`
	FullName    string    `json:"nombreCompleto,omitempty"`
	Address     string    `json:"direccion,omitempty"`
	City        string    `json:"ciudad,omitempty"`
	PostalCode  string    `json:"codigoPostal,omitempty"`
	Phone       string    `json:"telefono,omitempty"`
	Email       string    `json:"email,omitempty"`
	Comments    string    `json:"comentarios,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
