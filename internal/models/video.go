package models

// Video is a single video search hit
type Video struct {
	Title        string `json:"title"`
	VideoID      string `json:"videoId"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	ChannelTitle string `json:"channelTitle,omitempty"`
	Description  string `json:"description,omitempty"`
}
