package server

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

// Identity headers set by the authenticating proxy in front of the API.
const (
	HeaderUser         = "X-User"
	HeaderUserAdmin    = "X-User-Admin"
	HeaderCustomerCode = "X-Customer-Code"
)

const identityKey = "identity"

// IdentityMiddleware reads the caller identity from headers and carries the
// request id into the request context.
func IdentityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := entity.Identity{
			Username:     strings.TrimSpace(req.Header.Get(HeaderUser)),
			CustomerCode: strings.TrimSpace(req.Header.Get(HeaderCustomerCode)),
		}
		if v := strings.TrimSpace(req.Header.Get(HeaderUserAdmin)); v != "" {
			admin, err := strconv.ParseBool(v)
			if err != nil {
				return NewBadRequestError("invalid "+HeaderUserAdmin+" header", err)
			}
			id.IsAdmin = admin
		}
		c.Set(identityKey, id)

		if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
			c.SetRequest(req.WithContext(common.WithRequestID(req.Context(), rid)))
		}
		return next(c)
	}
}

func identityFrom(c echo.Context) entity.Identity {
	id, _ := c.Get(identityKey).(entity.Identity)
	return id
}
