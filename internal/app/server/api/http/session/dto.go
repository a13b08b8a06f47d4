package session

import "time"

type createInput struct {
	Body CreateRequest
}

type CreateRequest struct {
	OwnerID   string `json:"ownerId" minLength:"3" maxLength:"128" doc:"Household identifier"`
	AccessKey string `json:"accessKey" minLength:"16" maxLength:"72" doc:"Device access key; registers the owner on first use"`
}

type createOutput struct {
	Body CreateResponse
}

type CreateResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
