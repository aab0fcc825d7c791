package auth

import (
	"fmt"
	"maps"
)

// Storage item keys used by the manager.
const (
	ItemUser       = "user"
	ItemLegacyUUID = "uuid"
	ItemAuthParams = "auth_params"
	ItemEphemeral  = "ephemeral"
	ItemKeys       = "keys"
)

// Events published through the Notifier. They carry no payload; subscribers re-query.
const (
	EventSecurityUpdateStatusChanged = "security-update-status-changed"
	EventUserPreferencesChanged      = "user-preferences-changed"
	EventOfflineDegraded             = "offline-degraded"
)

// Fixed protocol version tags for accounts whose auth params carry no version.
const (
	VersionLegacy   = "002"
	VersionOriginal = "001"
)

// User is the session identity.
type User struct {
	UUID  string `json:"uuid"`
	Email string `json:"email,omitempty"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// AuthParams are the server-provided key derivation parameters of an account.
type AuthParams map[string]any

// Version returns the "version" field when present as a non-empty string.
func (p AuthParams) Version() (string, bool) {
	v, ok := p["version"].(string)
	return v, ok && v != ""
}

func (p AuthParams) clone() AuthParams {
	return maps.Clone(p)
}

// Keys is the locally held key material of an account.
type Keys struct {
	MasterKey      string `json:"mk,omitempty"`
	ServerPassword string `json:"pw,omitempty"`
	// AuthKey is only present for accounts created before protocol version tagging.
	AuthKey string `json:"ak,omitempty"`
}

// HasLegacyAuthKey reports whether the keys carry the legacy "ak" marker.
func (k *Keys) HasLegacyAuthKey() bool {
	return k != nil && k.AuthKey != ""
}

// RemoteError is a rejection reported by the server (bad credentials, validation).
type RemoteError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
	}
	return "remote error: " + e.Message
}

// Response is the outcome of an auth exchange. Error is set on rejection; otherwise
// User, AuthParams and Keys describe the authenticated account.
type Response struct {
	Error      *RemoteError
	User       *User
	AuthParams AuthParams
	Keys       *Keys
}

// Failed reports whether the server rejected the request.
func (r *Response) Failed() bool {
	return r.Error != nil
}

// LoginRequest carries the sign-in credentials. StrictSignIn and Extra are passed to the
// transport unchanged.
type LoginRequest struct {
	Server       string
	Email        string
	Password     string
	StrictSignIn bool
	Extra        map[string]string
	// Ephemeral keeps the session in volatile storage. Not sent to the server.
	Ephemeral bool
}

// RegisterRequest carries the credentials of a new account.
type RegisterRequest struct {
	Server   string
	Email    string
	Password string
	// Ephemeral keeps the session in volatile storage. Not sent to the server.
	Ephemeral bool
}

// ChangePasswordRequest replaces the account password. NewKeys and NewAuthParams are
// derived by the caller from the new password.
type ChangePasswordRequest struct {
	Server                string
	Email                 string
	CurrentServerPassword string
	NewKeys               *Keys
	NewAuthParams         AuthParams
}

// FlowKind names an auth flow.
type FlowKind string

const (
	FlowLogin          FlowKind = "login"
	FlowRegister       FlowKind = "register"
	FlowChangePassword FlowKind = "change_password"
)
