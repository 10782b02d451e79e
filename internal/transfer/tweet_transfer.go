package transfer

type TweetCreation struct {
	Content     string
	ScheduledAt string
}

type TweetRequest struct {
	Text  string         `json:"text"`
	Media *TweetMediaRef `json:"media,omitempty"`
}

type TweetMediaRef struct {
	MediaIDs []string `json:"media_ids"`
}

type TweetResponse struct {
	Data   TweetData      `json:"data"`
	Errors []TwitterError `json:"errors"`
}

type TweetData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MediaUploadResponse struct {
	Data   MediaUploadData `json:"data"`
	Errors []TwitterError  `json:"errors"`
}

type MediaUploadData struct {
	ID       string `json:"id"`
	MediaKey string `json:"media_key"`
}

type TwitterError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}
