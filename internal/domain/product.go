package domain

// Product is a catalog item.
type Product struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Price Money  `json:"price"`
	Image string `json:"image"`
}

// Stock is the available quantity of a product at lookup time.
type Stock struct {
	ProductID int64 `json:"id"`
	Amount    int   `json:"amount"`
}
