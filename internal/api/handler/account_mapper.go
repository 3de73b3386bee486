package handler

import (
	"strconv"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
)

const (
	accountsPath = "/accounts"
	searchPath   = accountsPath + "/search"
)

func accountHref(id int64) string {
	return accountsPath + "/" + strconv.FormatInt(id, 10)
}

// --- Domain → Response ---

func toAccountResponse(a *domain.Account) accountResponse {
	self := link{Href: accountHref(a.ID())}
	return accountResponse{
		ID:       a.ID(),
		Username: a.Username(),
		Role:     a.Role(),
		Links:    accountLinks{Self: self, Account: self},
	}
}

func toCollectionResponse(accts []*domain.Account, selfHref string) accountCollectionResponse {
	items := make([]accountResponse, 0, len(accts))
	for _, a := range accts {
		items = append(items, toAccountResponse(a))
	}
	return accountCollectionResponse{
		Embedded: embeddedAccounts{Accounts: items},
		Links:    selfLinks{Self: link{Href: selfHref}},
	}
}

func newSearchIndex() searchIndexResponse {
	return searchIndexResponse{Links: searchLinks{
		FindByUsername: link{Href: searchPath + "/findByUsername{?username}", Templated: true},
		FindByRole:     link{Href: searchPath + "/findByRole{?role}", Templated: true},
		Self:           link{Href: searchPath},
	}}
}

// --- Request → Service input ---

func toPatch(req patchAccountRequest) ports.AccountPatch {
	patch := ports.AccountPatch{Username: req.Username}
	if req.Role.Set {
		if req.Role.Value == nil {
			patch.ClearRole = true
		} else {
			patch.Role = req.Role.Value
		}
	}
	return patch
}
