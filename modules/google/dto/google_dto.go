package dto

type AuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type CallbackRequest struct {
	State string `query:"state"`
	Code  string `query:"code"`
}

type ConnectionStatusResponse struct {
	Connected bool `json:"connected"`
}

type ListEventsRequest struct {
	TimeMin string `query:"time_min"`
	TimeMax string `query:"time_max"`
}

type EventResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Status      string `json:"status,omitempty"`
}
