// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"strconv"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxLimit caps page sizes requested by clients.
const MaxLimit = 100

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	limit, page = Clamp(limit, page)
	sk := (page - 1) * limit
	return options.Find().SetLimit(limit).SetSkip(sk)
}

// Clamp applies the default (10) and maximum page size and a minimum page of 1.
func Clamp(limit, page int64) (int64, int64) {
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

// ParsePage reads "page" and "limit" query values, falling back to the
// defaults when missing or malformed.
func ParsePage(pageStr, limitStr string) (page, limit int64) {
	page, _ = strconv.ParseInt(pageStr, 10, 64)
	limit, _ = strconv.ParseInt(limitStr, 10, 64)
	limit, page = Clamp(limit, page)
	return page, limit
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
