package requests

// SearchAddressRequest query of GET /search_address_api
type SearchAddressRequest struct {
	Address string `form:"address" binding:"required"`
}

// BatchSearchRequest body of POST /v1/addresses/jobs
type BatchSearchRequest struct {
	Addresses []string `json:"addresses" binding:"required,min=1,dive,required"`
}
