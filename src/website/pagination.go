package website

import (
	"strconv"
)

// Works out which page of an index to show. An empty index still has one
// (empty) page, so "?page=1" is always valid.
func getPageInfo(
	pageParam string,
	totalItems int,
	itemsPerPage int,
) (
	page int,
	totalPages int,
	ok bool,
) {
	totalPages = (totalItems + itemsPerPage - 1) / itemsPerPage
	if totalPages < 1 {
		totalPages = 1
	}

	page = 1
	if pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil {
			return 0, 0, false
		}
		page = parsed
	}
	if page < 1 || page > totalPages {
		return 0, 0, false
	}

	return page, totalPages, true
}

func pageUrl(base string, page int) string {
	if page <= 1 {
		return base
	}
	return base + "?page=" + strconv.Itoa(page)
}
