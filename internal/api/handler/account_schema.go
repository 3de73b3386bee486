package handler

import (
	"bytes"
	"encoding/json"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

// accountRequest is the full representation accepted by POST and PUT.
type accountRequest struct {
	Username string  `json:"username" validate:"required"`
	Role     *string `json:"role"`
}

// patchAccountRequest accepts any subset of fields. An explicit JSON null
// for role clears it; an absent role leaves it untouched.
type patchAccountRequest struct {
	Username *string        `json:"username"`
	Role     optionalString `json:"role" swaggertype:"string"`
}

// optionalString records whether a field was present in the payload.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// --- HAL response types ---

type link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

type accountLinks struct {
	Self    link `json:"self"`
	Account link `json:"account"`
}

type accountResponse struct {
	ID       int64        `json:"id"`
	Username string       `json:"username"`
	Role     *string      `json:"role"`
	Links    accountLinks `json:"_links"`
}

type embeddedAccounts struct {
	Accounts []accountResponse `json:"accounts"`
}

type selfLinks struct {
	Self link `json:"self"`
}

type accountCollectionResponse struct {
	Embedded embeddedAccounts `json:"_embedded"`
	Links    selfLinks        `json:"_links"`
}

type searchLinks struct {
	FindByUsername link `json:"findByUsername"`
	FindByRole     link `json:"findByRole"`
	Self           link `json:"self"`
}

type searchIndexResponse struct {
	Links searchLinks `json:"_links"`
}
