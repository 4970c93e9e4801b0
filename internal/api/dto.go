package api

// SearchResultType is the only result type: whole pages.
const SearchResultType = "page"

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID         string `json:"id" example:"/unix/setup/install" validate:"required"`
	Type       string `json:"type" example:"page" validate:"required"`
	URL        string `json:"url" example:"/unix/setup/install" validate:"required"`
	Title      string `json:"title" example:"Installing the tools" validate:"required"`
	Excerpt    string `json:"excerpt" example:"...use conda for reproducible..."`
	Collection string `json:"collection" example:"unix" validate:"required"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
	Pages  int    `json:"pages,omitempty" example:"42"`
}
