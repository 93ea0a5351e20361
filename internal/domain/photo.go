package domain

import "io"

type Photo struct {
	ID           int64  `json:"id"`
	URL          string `json:"url"`
	ExperienceID int64  `json:"experience_id"`
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
