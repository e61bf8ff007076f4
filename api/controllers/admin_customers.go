package controllers

import (
	"net/http"
	"strings"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/responses"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/validators"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/users"
	pkgerrors "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/errors"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/pagination"
)

type customerListResponse struct {
	Customers  []*users.UserDTO `json:"customers"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// AdminCustomerList pages registered accounts for the back office.
func AdminCustomerList(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := repo.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list := customerListResponse{
			Customers:  make([]*users.UserDTO, 0, len(result.Users)),
			NextCursor: result.NextCursor,
		}
		for i := range result.Users {
			list.Customers = append(list.Customers, users.FromModel(&result.Users[i]))
		}

		responses.WriteSuccess(w, list)
	}
}
