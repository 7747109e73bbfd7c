package api

import (
	"time"

	"github.com/valyala/fasthttp"
)

// Doer executes one HTTP exchange with a per-request timeout.
// *fasthttp.Client satisfies it.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}
