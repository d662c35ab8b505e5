package dto

// CreateReturnRequest entrada para solicitar una devolución.
type CreateReturnRequest struct {
	SaleID  string              `json:"sale_id" validate:"required"`
	ActorID string              `json:"actor_id" validate:"required"`
	Reason  string              `json:"reason"`
	Lines   []ReturnLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReturnLineRequest prenda a devolver.
type ReturnLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Reason    string `json:"reason"`
}
