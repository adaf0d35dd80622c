package models

// OS and Nickname are pointers so that "required" rejects a missing field
// while still accepting an empty string.
type CheckPhoneRequest struct {
	Phone string  `json:"phone" binding:"required"`
	OS    *string `json:"os" binding:"required"`
}

type CheckPhoneResponse struct {
	RequestID string `json:"requestID"`
}

type CheckCodeRequest struct {
	RequestID string `json:"requestID" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type GuestRequest struct {
	Nickname *string `json:"nickname" binding:"required"`
}

type BanTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	PassCode string `json:"passCode" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type AppInfo struct {
	Name        string   `json:"name"`
	Versions    []string `json:"versions"`
	Environment string   `json:"environment"`
}
