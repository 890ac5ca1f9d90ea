package htmx

import (
	"net/http"
	"strings"
)

const (
	requestHeader = "HX-Request"
	boostedHeader = "HX-Boosted"
)

func IsRequest(r *http.Request) bool {
	return headerTrue(r, requestHeader)
}

// IsBoosted marks hx-boost navigation, which swaps the whole body.
func IsBoosted(r *http.Request) bool {
	return headerTrue(r, boostedHeader)
}

// WantsFragment is true when the page content alone should be rendered,
// without the layout shell around it.
func WantsFragment(r *http.Request) bool {
	return IsRequest(r) && !IsBoosted(r)
}

func headerTrue(r *http.Request, name string) bool {
	return strings.EqualFold(r.Header.Get(name), "true")
}
