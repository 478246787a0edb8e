package ebay

// the subset of the browse api item_summary/search response that is mapped.

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type image struct {
	ImageUrl string `json:"imageUrl"`
}

type itemLocation struct {
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince"`
	PostalCode      string `json:"postalCode"`
	Country         string `json:"country"`
}

type seller struct {
	Username string `json:"username"`
}

type itemSummary struct {
	ItemId           string        `json:"itemId"`
	Title            string        `json:"title"`
	ItemWebUrl       string        `json:"itemWebUrl"`
	Price            *amount       `json:"price"`
	Image            *image        `json:"image"`
	Condition        string        `json:"condition"`
	ItemCreationDate string        `json:"itemCreationDate"`
	ItemLocation     *itemLocation `json:"itemLocation"`
	Seller           *seller       `json:"seller"`
}

type searchResponse struct {
	Total         int           `json:"total"`
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type publicKeyResponse struct {
	Key       string `json:"key"`
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
}
