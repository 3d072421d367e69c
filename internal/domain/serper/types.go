package serper

// Endpoint identifies an upstream Serper API endpoint path.
type Endpoint string

const (
	EndpointSearch  Endpoint = "/search"
	EndpointNews    Endpoint = "/news"
	EndpointScholar Endpoint = "/scholar"
)

// SearchRequest represents a query to the Serper API. The same argument
// set applies to the search, news and scholar endpoints.
type SearchRequest struct {
	Q           string  `json:"q"`
	GL          *string `json:"gl,omitempty"`          // Region code (ISO 3166-1 alpha-2)
	HL          *string `json:"hl,omitempty"`          // Language code (ISO 639-1)
	Location    *string `json:"location,omitempty"`    // Location for search results
	Autocorrect *bool   `json:"autocorrect,omitempty"` // Enable autocorrect
	Num         *int    `json:"num,omitempty"`         // Number of results (default: 10)
	Page        *int    `json:"page,omitempty"`        // Page number (default: 1)
}

// Body builds the JSON body for the upstream call, omitting unset fields.
func (r SearchRequest) Body() map[string]any {
	body := map[string]any{
		"q": r.Q,
	}
	if r.GL != nil {
		body["gl"] = *r.GL
	}
	if r.HL != nil {
		body["hl"] = *r.HL
	}
	if r.Location != nil {
		body["location"] = *r.Location
	}
	if r.Autocorrect != nil {
		body["autocorrect"] = *r.Autocorrect
	}
	if r.Num != nil {
		body["num"] = *r.Num
	}
	if r.Page != nil {
		body["page"] = *r.Page
	}
	return body
}

// Mode records which credential-selection outcome authorized a call.
type Mode string

const (
	// ModeCredential means the caller's own API key was used.
	ModeCredential Mode = "credential"

	// ModePaid means a validated payment authorized use of the operator key.
	ModePaid Mode = "paid"
)

// Outcome is the result of one authorized upstream call.
type Outcome struct {
	Mode Mode
	Body map[string]any
}
