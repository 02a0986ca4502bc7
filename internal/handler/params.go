package handler

import (
	"net/http"
	"strconv"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// lookupFilter echoes a lookup back to the client. Numeric ids (pid, uid)
// are reported as numbers.
func lookupFilter(selector, value string) httputil.Body {
	if selector == model.PostSelectorPID || selector == model.UserSelectorUID {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			return httputil.Body{selector: id}
		}
	}
	return httputil.Body{selector: value}
}

// parsePage reads offset and limit from the query string. Missing values
// take the defaults; out-of-range values are clamped.
func parsePage(r *http.Request) (model.Page, error) {
	q := r.URL.Query()

	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.Page{}, model.NewValidationError("offset", "offset must be an integer")
		}
		offset = n
	}

	limit := model.DefaultPageLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.Page{}, model.NewValidationError("limit", "limit must be an integer")
		}
		limit = n
	}

	return model.NewPage(offset, limit), nil
}
