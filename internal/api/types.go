package api

type teamRequest struct {
	ID int `json:"id"`
}

type teamResponse struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	ColorBright string   `json:"colorBright"`
	ColorDark   string   `json:"colorDark"`
	Members     []string `json:"members"`
}

type scoreResponse struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}
