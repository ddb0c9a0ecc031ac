package apperrors

import (
	"errors"
)

// Client side: outcome classes of a backend call
var (
	// 401 that survived the single refresh-and-retry, or 401 without refresh token
	ErrAuthExpired = errors.New("authentication expired")
	// The refresh endpoint itself failed
	ErrAuthRefreshFailed = errors.New("authentication refresh failed")
	// Any other non-2xx response
	ErrRequestFailed = errors.New("request failed")
	// Transport level failure: no response at all
	ErrNetworkFailure = errors.New("network failure")
)

// Client side: session and input errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidCSV       = errors.New("invalid csv file")

	// Session was cleared or replaced while a token refresh was in flight
	ErrSessionChanged = errors.New("session changed during refresh")
)

// Backend side
var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("wrong password")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrAccessTokenInvalid = errors.New("access token is invalid")
)
