package advisor

// ChatRequest is one chat turn. ConversationHistory is ordered oldest first.
type ChatRequest struct {
	Query               string   `json:"query"`
	ConversationHistory []string `json:"conversationHistory,omitempty"`
}

// ChatResponse is the assistant's answer to a chat turn.
type ChatResponse struct {
	Message        string          `json:"message"`
	Phones         []Phone         `json:"phones,omitempty"`
	Comparison     *Comparison     `json:"comparison,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Intent         string          `json:"intent"`
	Confidence     float64         `json:"confidence"`
	SafetyCheck    SafetyCheck     `json:"safetyCheck"`
	Degraded       bool            `json:"degraded,omitempty"`
}

// Phone is the client view of a catalog phone.
type Phone struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Price        Price    `json:"price"`
	Availability string   `json:"availability"`
	Category     string   `json:"category"`
	Rating       Rating   `json:"rating"`
	Highlights   []string `json:"highlights,omitempty"`
	Pros         []string `json:"pros,omitempty"`
	Cons         []string `json:"cons,omitempty"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
}

// Price is a phone's price in its currency.
type Price struct {
	Current  float64 `json:"current"`
	Original float64 `json:"original,omitempty"`
	Currency string  `json:"currency"`
}

// Rating holds per-dimension scores on a 0-5 scale.
type Rating struct {
	Overall     float64 `json:"overall"`
	Camera      float64 `json:"camera"`
	Performance float64 `json:"performance"`
	Battery     float64 `json:"battery"`
	Display     float64 `json:"display"`
	Design      float64 `json:"design"`
}

// Comparison is the payload of a compare turn.
type Comparison struct {
	Phones   []Phone `json:"phones"`
	Analysis string  `json:"analysis"`
	Winner   string  `json:"winner"`
}

// Recommendation is the payload of a recommend turn.
type Recommendation struct {
	Primary      Phone              `json:"primary"`
	Alternatives []Phone            `json:"alternatives"`
	Reasoning    string             `json:"reasoning"`
	Scores       map[string]float64 `json:"scores,omitempty"`
}

// SafetyCheck reports whether the query passed screening.
type SafetyCheck struct {
	Passed bool     `json:"passed"`
	Flags  []string `json:"flags,omitempty"`
}

// ListPhonesRequest filters the catalog. Zero values mean unfiltered. View
// selects a leaderboard (camera, gaming, value, compact, battery).
type ListPhonesRequest struct {
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`
	View     string  `json:"view,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

// ListPhonesResponse lists matching phones.
type ListPhonesResponse struct {
	Phones []Phone `json:"phones"`
	Total  int     `json:"total"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
